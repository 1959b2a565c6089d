package router

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"silent_auction/internal/auction"
	"silent_auction/internal/config"
	"silent_auction/internal/middleware"
)

// Setup registers every HTTP route. rdb may be nil, in which case bid
// placement runs without rate limiting.
func Setup(r *gin.Engine, svc *auction.Service, rdb *rd.Client, cfg config.AppConfig) {
	r.GET("/health", health())

	admin := middleware.RequireAdmin(cfg.AdminPassword)

	api := r.Group("/api")
	api.GET("/items", listItems(svc))
	api.GET("/results", results(svc))
	api.POST("/items", admin, addItem(svc))
	api.PUT("/items/:id", admin, updateItem(svc))
	api.DELETE("/items/:id", admin, deleteItem(svc))
	api.PUT("/items/:id/minBid", admin, updateMinBid(svc))
	api.DELETE("/items/:id/bid/:bidIndex", admin, deleteBid(svc))
	api.POST("/auction-end-time", admin, setEndTime(svc))

	if rdb != nil {
		api.POST("/items/:id/bid",
			middleware.RedisRateLimit(rdb, cfg.BidRateLimit, cfg.BidRateWindow),
			placeBid(svc))
	} else {
		api.POST("/items/:id/bid", placeBid(svc))
	}
}

func health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "silent-auction",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// listItems returns every item and the auction end time in one read.
func listItems(svc *auction.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.ListItems())
	}
}

// results returns the current winner of every item.
func results(svc *auction.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Results())
	}
}

func addItem(svc *auction.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in auction.AddItemInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		item, err := svc.AddItem(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

func updateItem(svc *auction.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch auction.ItemPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		item, err := svc.UpdateItem(c.Request.Context(), c.Param("id"), patch)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func deleteItem(svc *auction.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.DeleteItem(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Item deleted successfully"})
	}
}

func updateMinBid(svc *auction.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			MinBid any `json:"minBid"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		item, err := svc.UpdateMinBid(c.Request.Context(), c.Param("id"), req.MinBid)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

// placeBid appends an offer to an item. Whether the amount clears the
// item's minimum bid is enforced client-side only, as it always was.
func placeBid(svc *auction.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in auction.BidInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		item, err := svc.PlaceBid(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func deleteBid(svc *auction.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		index, err := strconv.Atoi(c.Param("bidIndex"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bid index"})
			return
		}
		if err := svc.DeleteBid(c.Request.Context(), c.Param("id"), index); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Bid deleted successfully"})
	}
}

func setEndTime(svc *auction.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			EndTime string `json:"endTime"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		stored, err := svc.SetEndTime(c.Request.Context(), req.EndTime)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"endTime": stored})
	}
}

// respondError maps the error taxonomy onto status codes: validation
// 400, unknown item 404, anything else (storage) 500.
func respondError(c *gin.Context, err error) {
	switch {
	case auction.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, auction.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
	default:
		zap.L().Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

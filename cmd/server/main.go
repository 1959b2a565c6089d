package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"silent_auction/internal/auction"
	"silent_auction/internal/config"
	"silent_auction/internal/logging"
	"silent_auction/internal/middleware"
	"silent_auction/internal/router"
	"silent_auction/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	st, err := store.Open(cfg.DataFile)
	if err != nil {
		logger.Fatal("open auction document", zap.Error(err))
	}
	defer st.Close()

	bus := EventBus.New()
	clock := auction.NewClock(bus)
	defer clock.Stop()

	svc, err := auction.NewService(st, clock)
	if err != nil {
		logger.Fatal("init auction service", zap.Error(err))
	}

	// Log the final standings the moment the auction ends.
	if err := bus.Subscribe(auction.TopicAuctionEnded, func(end time.Time) {
		for _, res := range svc.Results() {
			logger.Info("final result",
				zap.String("item_id", res.ItemID),
				zap.String("item", res.Name),
				zap.String("winner", res.Bidder),
				zap.Float64("amount", res.Amount),
			)
		}
	}); err != nil {
		logger.Fatal("subscribe auction ended", zap.Error(err))
	}

	var rdb *rd.Client
	if cfg.RedisAddr != "" {
		rdb = rd.NewClient(&rd.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		defer func() { _ = rdb.Close() }()
		logger.Info("bid rate limiting enabled", zap.String("redis", cfg.RedisAddr))
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLog(logger), middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Setup(r, svc, rdb, cfg)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("data_file", st.Path()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	logger.Info("stopped")
}

package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"

	rediskey "silent_auction/pkg/redis"
)

// luaRateLimit implements an atomic sliding-window counter in Redis.
// KEYS[1]=window key, ARGV[1]=now, ARGV[2]=window start, ARGV[3]=window
// seconds, ARGV[4]=member, ARGV[5]=limit. Returns the count within the
// window, or -1 when the limit is hit.
const luaRateLimit = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local windowStart = tonumber(ARGV[2])
local windowSec = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '0', windowStart)

local count = redis.call('ZCARD', key)

if count < tonumber(ARGV[5]) then
  redis.call('ZADD', key, now, member)
  redis.call('EXPIRE', key, windowSec)
  return count + 1
else
  return -1
end
`

// RedisRateLimit throttles bid placement per bidder name, falling back
// to the client IP when the body carries no bidder. Redis failures let
// the request through; losing a few excess bids beats refusing all of
// them.
func RedisRateLimit(rdb *rd.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		bidder, err := extractBidder(c)
		if err != nil {
			bidder = ""
		}

		var key string
		if bidder != "" {
			key = rediskey.BidderRateKey(bidder)
		} else {
			key = rediskey.IPRateKey(c.ClientIP())
		}

		now := time.Now().UnixNano()
		windowSec := int64(window.Seconds())
		windowStart := now - window.Nanoseconds()
		member := c.GetString(requestIDKey)
		if member == "" {
			member = time.Now().String()
		}

		res, err := rdb.Eval(c.Request.Context(), luaRateLimit, []string{key},
			now, windowStart, windowSec, member, limit).Int()
		if err != nil {
			c.Next()
			return
		}

		if res < 0 {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many bids, please slow down",
			})
			return
		}
		c.Next()
	}
}

// extractBidder peeks at the bidder field of the JSON body without
// consuming it; the body is reset so the handler can bind it again.
func extractBidder(c *gin.Context) (string, error) {
	bodyBytes, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", err
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	var req struct {
		Bidder string `json:"bidder"`
	}
	if err := json.Unmarshal(bodyBytes, &req); err != nil {
		return "", err
	}
	return req.Bidder, nil
}

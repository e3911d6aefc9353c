package middlewares

import (
	"comebookus/src/lib"
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimit caps requests per client IP and route over a fixed window.
// Counters live in Redis so every instance shares the same budget and nothing
// resets on process restart.
func RateLimit(limit int, window time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		rdb := lib.GetRedisClient()
		if rdb == nil {
			// fail open: limiting is protection, not correctness
			return
		}
		key := fmt.Sprintf("ratelimit:%s:%s", ctx.ClientIP(), ctx.FullPath())
		count, err := rdb.Incr(context.Background(), key).Result()
		if err != nil {
			log.Printf("[ratelimit] Error incrementing %s: %s\n", key, err.Error())
			return
		}
		if count == 1 {
			rdb.Expire(context.Background(), key, window)
		}
		if count > int64(limit) {
			ctx.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
	}
}

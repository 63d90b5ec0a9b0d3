package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WriteLimiter decides whether one write attempt by an actor fits inside the
// sliding window. Implemented by the Redis throttle store.
type WriteLimiter interface {
	Allow(ctx context.Context, actorID string, limit int, window time.Duration, now time.Time) (bool, time.Duration, error)
}

// WriteThrottle caps permission writes per authenticated actor. Unidentified
// requests fall back to the client IP. Store failures let the request
// through; throttling is protection, not authorization.
func WriteThrottle(store WriteLimiter, limit int, window time.Duration, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if store == nil || limit <= 0 || window <= 0 {
			c.Next()
			return
		}

		actor := GetUserID(c)
		if actor == "" {
			actor = c.ClientIP()
		}
		if actor == "" {
			c.Next()
			return
		}

		allowed, retryAfter, err := store.Allow(c.Request.Context(), actor, limit, window, time.Now())
		if err != nil {
			log.Warn("write throttle check failed", zap.String("actor", actor), zap.Error(err))
			c.Next()
			return
		}

		if allowed {
			c.Next()
			return
		}

		seconds := int(math.Ceil(retryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(seconds))
		c.AbortWithStatusJSON(http.StatusTooManyRequests,
			newErrorResponse(c, "too many permission updates; retry later"))
	}
}

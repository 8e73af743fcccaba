package middleware

import (
	"context"
	"net/http"
	"strconv"

	"livepoll/internal/redis"
	"livepoll/internal/transport/httpdto"
	"livepoll/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type VoteLimiter interface {
	AllowVote(ctx context.Context, address string) (*redis.RateLimitResult, error)
}

// VoteRateLimitMiddleware caps vote submissions per client address. When the
// limiter itself fails the request is let through: the ledger still enforces
// one active vote per address.
func VoteRateLimitMiddleware(limiter VoteLimiter, l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := limiter.AllowVote(c.Request.Context(), c.ClientIP())
		if err != nil {
			if l != nil {
				l.Warn(c.Request.Context(), "vote_rate_limit_unavailable", zap.Error(err))
			}
			c.Next()
			return
		}

		setRateLimitHeaders(c, result)

		if !result.Allowed {
			c.Header("Retry-After", strconv.FormatInt(int64(result.ResetIn.Seconds())+1, 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, httpdto.NewErrorResponse("vote rate limit exceeded", "RATE_LIMITED"))
			return
		}

		c.Next()
	}
}

// setRateLimitHeaders sets standard rate limit response headers
func setRateLimitHeaders(c *gin.Context, result *redis.RateLimitResult) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(int64(result.ResetIn.Seconds()), 10))
}

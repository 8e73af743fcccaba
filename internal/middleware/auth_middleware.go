package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"livepoll/internal/services"
	"livepoll/internal/transport/httpdto"
	livepoll_errors "livepoll/pkg/errors"
	"livepoll/pkg/logger"

	"github.com/gin-gonic/gin"
)

// TokenParser validates access tokens.
type TokenParser interface {
	ParseAccessToken(ctx context.Context, token string) (services.AccessClaims, error)
}

// AuthMiddleware admits requests carrying a valid bearer token of any role.
// The claims are added to the request context.
func AuthMiddleware(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authenticate(c, parser); ok {
			c.Next()
		}
	}
}

// AdminAuthMiddleware admits requests carrying a valid admin bearer token.
func AdminAuthMiddleware(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := authenticate(c, parser)
		if !ok {
			return
		}
		if !claims.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, httpdto.NewErrorResponse("forbidden", "FORBIDDEN"))
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, parser TokenParser) (services.AccessClaims, bool) {
	token := extractBearer(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return services.AccessClaims{}, false
	}
	claims, err := parser.ParseAccessToken(c.Request.Context(), token)
	if errors.Is(err, livepoll_errors.ErrUnauthorized) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return services.AccessClaims{}, false
	}
	if err != nil {
		status, body := httpdto.FromError(err)
		if status == http.StatusServiceUnavailable {
			c.Header("Retry-After", "1")
		}
		c.AbortWithStatusJSON(status, body)
		return services.AccessClaims{}, false
	}

	ctx := services.WithClaimsContext(c.Request.Context(), claims)
	ctx = context.WithValue(ctx, logger.UserKey, claims.Subject)
	c.Request = c.Request.WithContext(ctx)
	return claims, true
}

func extractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

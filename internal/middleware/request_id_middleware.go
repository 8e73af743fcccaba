package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"livepoll/pkg/logger"

	"github.com/gin-gonic/gin"
)

func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-Id")
		if !validRequestID(requestID) {
			requestID = newRequestID()
		}
		c.Writer.Header().Set("X-Request-Id", requestID)
		ctx := context.WithValue(c.Request.Context(), logger.RequestIdKey, requestID)
		ctx = context.WithValue(ctx, logger.ClientAddressKey, c.ClientIP())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// newRequestID returns 16 random bytes as 32 hex characters.
func newRequestID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}

// validRequestID accepts caller supplied ids of up to 64 letters, digits,
// dashes and underscores. Anything else is replaced before it reaches logs.
func validRequestID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

package middleware

import (
	"livepoll/internal/transport/httpdto"
	"livepoll/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler renders errors attached with c.Error when the handler wrote no
// response itself.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		if l != nil {
			l.Error(c.Request.Context(), "request_error", zap.Error(err))
		}
		c.JSON(httpdto.FromError(err))
	}
}

// Recovery turns a panic into a 500 envelope and logs it.
func Recovery(l *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		if l != nil {
			l.Error(c.Request.Context(), "panic_recovered", zap.Any("panic", recovered))
		}
		c.AbortWithStatusJSON(500, httpdto.NewErrorResponse("internal error", "INTERNAL_ERROR"))
	})
}

package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/farmdirect/farmdirect-orders/internal/logging"
)

// RequestLogger attaches a request-scoped logger (carrying a request id) to
// both the gin context and the request context, and logs each completion.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}

		l := logging.New("http").With("request_id", reqID, "method", c.Request.Method, "path", c.FullPath())
		logging.With(c, l)
		c.Request = c.Request.WithContext(logging.WithCtx(c.Request.Context(), l))
		c.Header("X-Request-Id", reqID)

		start := time.Now()
		c.Next()

		l.Info("request completed",
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}

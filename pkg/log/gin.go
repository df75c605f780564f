package log

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const HeaderRequestID = "X-Request-ID"

// GinMiddleware returns a Gin middleware that tags every request with a
// request ID, injects a child logger into the request context and logs the
// completed request together with the actor set by the auth middleware.
func GinMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.New().String()
		}

		child := logger.With().
			Str(FieldRequestID, reqID).
			Str(FieldMethod, c.Request.Method).
			Str(FieldPath, c.Request.URL.Path).
			Str(FieldClientIP, c.ClientIP()).
			Logger()

		c.Header(HeaderRequestID, reqID)
		c.Request = c.Request.WithContext(WithLogger(c.Request.Context(), child))

		c.Next()

		var evt *zerolog.Event
		switch status := c.Writer.Status(); {
		case status >= 500:
			evt = child.Error()
		case status >= 400:
			evt = child.Warn()
		default:
			evt = child.Info()
		}
		evt = evt.
			Int(FieldStatus, c.Writer.Status()).
			Float64(FieldLatency, float64(time.Since(start).Milliseconds()))

		if userID := c.GetString(FieldUserID); userID != "" {
			evt = evt.Str(FieldUserID, userID)
		}
		if locationID, ok := c.Get(FieldLocationID); ok {
			if id, ok := locationID.(int64); ok {
				evt = evt.Int64(FieldLocationID, id)
			}
		}

		evt.Msg("request completed")
	}
}

package middleware

import (
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/yarrow/pkg/reqcontext"
	"github.com/Ramsey-B/yarrow/pkg/tracing"
)

// Logger emits one structured line per request with trace correlation.
func Logger(logger ectologger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			if err = next(c); err != nil {
				c.Error(err)
			}

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = res.Header().Get(echo.HeaderXRequestID)
			}
			if requestID == "" {
				requestID = uuid.New().String()
			}

			ctx := req.Context()
			logger.WithContext(ctx).WithFields(map[string]any{
				"request_id":    requestID,
				"tenant_id":     reqcontext.GetTenantID(ctx),
				"method":        req.Method,
				"route":         c.Path(),
				"uri":           req.RequestURI,
				"status":        res.Status,
				"remote_ip":     c.RealIP(),
				"user_agent":    req.UserAgent(),
				"trace_id":      tracing.GetTraceID(ctx),
				"span_id":       tracing.GetSpanID(ctx),
				"response_time": time.Since(start),
				"response_size": res.Size,
			}).Info("Request")

			return nil
		}
	}
}

package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/yarrow/pkg/reqcontext"
)

const (
	// HeaderTenantID is the header key for tenant ID
	HeaderTenantID = "X-Tenant-ID"
	// HeaderUserID is the header key for user ID
	HeaderUserID = "X-User-ID"
)

func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()

			// get request id from header
			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			// get tenant id from header
			tenantID := req.Header.Get(HeaderTenantID)

			// get user id from header
			userID := req.Header.Get(HeaderUserID)

			ctx := req.Context()
			ctx = reqcontext.SetRequestID(ctx, requestID)
			ctx = reqcontext.SetMethod(ctx, req.Method)
			ctx = reqcontext.SetRoute(ctx, req.URL.Path)
			ctx = reqcontext.SetRemoteIP(ctx, c.RealIP())
			ctx = reqcontext.SetReferer(ctx, req.Referer())
			ctx = reqcontext.SetTenantID(ctx, tenantID)
			ctx = reqcontext.SetUserID(ctx, userID)

			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}


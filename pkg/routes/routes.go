// Package routes assembles the HTTP surface.
package routes

import (
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/yarrow/pkg/middleware"
	"github.com/Ramsey-B/yarrow/pkg/routes/health"
	"github.com/Ramsey-B/yarrow/pkg/routes/provider"
	"github.com/Ramsey-B/yarrow/pkg/routes/reconcile"
)

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i any) error {
	return v.validate.Struct(i)
}

// New builds the echo server with middleware and all route groups registered.
func New(logger ectologger.Logger, serviceName string, checker *health.Checker) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{validate: validator.New()}
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(otelecho.Middleware(serviceName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	checker.RegisterRoutes(e)

	v1 := e.Group("/api/v1")
	provider.Register(v1.Group("/providers"))
	reconcile.Register(v1.Group("/reconcile"))

	return e
}

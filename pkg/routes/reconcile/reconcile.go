// Package reconcile exposes the reconciliation run API.
package reconcile

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/processor"
	"github.com/Ramsey-B/yarrow/pkg/reqcontext"
)

// Register registers reconcile routes
func Register(g *echo.Group) {
	g.POST("", Run)
}

// Run reconciles one directory's records against another's
func Run(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := reqcontext.GetTenantID(ctx)

	var req models.ReconcileRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Source == req.CandidateSource {
		return httperror.NewHTTPError(http.StatusBadRequest, "source and candidate_source must differ")
	}

	ctx, proc, err := ectoinject.GetContext[*processor.Processor](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	resp, err := proc.Run(ctx, tenantID, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

// Package provider exposes the provider record API.
package provider

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	providerrepo "github.com/Ramsey-B/yarrow/internal/repositories/provider"
	verdictrepo "github.com/Ramsey-B/yarrow/internal/repositories/verdict"
	"github.com/Ramsey-B/yarrow/pkg/geo"
	"github.com/Ramsey-B/yarrow/pkg/geocode"
	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/reqcontext"
)

const defaultSearchRadiusMiles = 25.0

// Register registers provider routes
func Register(g *echo.Group) {
	g.GET("", ListProviders)
	g.GET("/search", SearchProviders)
	g.GET("/:id", GetProvider)
	g.GET("/:id/verdicts", ListProviderVerdicts)
	g.POST("", UpsertProvider)
	g.DELETE("/:id", DeleteProvider)
}

// ListProviders lists providers scraped from one directory
func ListProviders(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := reqcontext.GetTenantID(ctx)

	source := c.QueryParam("source")
	if source == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "source query parameter is required")
	}

	ctx, repo, err := ectoinject.GetContext[*providerrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	providers, err := repo.ListBySource(ctx, tenantID, source)
	if err != nil {
		return err
	}

	items := make([]models.Provider, 0, len(providers))
	for _, p := range providers {
		items = append(items, *p)
	}

	return c.JSON(http.StatusOK, models.ProviderListResponse{
		Items:      items,
		TotalCount: len(items),
	})
}

// SearchProviders ranks providers by distance from a searched location. The
// center comes from lat/lon query parameters, or from a ZIP resolved through
// the geocode service.
func SearchProviders(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := reqcontext.GetTenantID(ctx)

	radius := defaultSearchRadiusMiles
	if raw := c.QueryParam("radius"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			return httperror.NewHTTPError(http.StatusBadRequest, "radius must be a non-negative number")
		}
		radius = parsed
	}

	center, err := searchCenter(c)
	if err != nil {
		return err
	}

	ctx, repo, err := ectoinject.GetContext[*providerrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	box := geo.NewBoundingBox(*center, radius)
	providers, err := repo.SearchWithinBox(ctx, tenantID, box, 500)
	if err != nil {
		return err
	}

	// The box over-selects at its corners; rank by exact distance and trim.
	results := make([]models.ProviderDistance, 0, len(providers))
	for _, p := range providers {
		coord := p.Coordinate()
		if coord == nil {
			continue
		}
		dist := geo.HaversineMiles(*center, *coord)
		if dist > radius {
			continue
		}
		results = append(results, models.ProviderDistance{
			Provider:      *p,
			DistanceMiles: dist,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].DistanceMiles < results[j].DistanceMiles
	})

	return c.JSON(http.StatusOK, results)
}

// searchCenter resolves the searched location from the request.
func searchCenter(c echo.Context) (*geo.Coordinate, error) {
	ctx := c.Request().Context()

	latRaw := c.QueryParam("lat")
	lonRaw := c.QueryParam("lon")
	if latRaw != "" || lonRaw != "" {
		lat, latErr := strconv.ParseFloat(latRaw, 64)
		lon, lonErr := strconv.ParseFloat(lonRaw, 64)
		if latErr != nil || lonErr != nil {
			return nil, httperror.NewHTTPError(http.StatusBadRequest, "lat and lon must both be valid numbers")
		}
		center := geo.Coordinate{Latitude: lat, Longitude: lon}
		if !center.Valid() {
			return nil, httperror.NewHTTPError(http.StatusBadRequest, "lat/lon out of range")
		}
		return &center, nil
	}

	zip := c.QueryParam("zip")
	if zip == "" {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "zip or lat/lon query parameters are required")
	}

	ctx, geocoder, err := ectoinject.GetContext[*geocode.Service](ctx)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	center := geocoder.ForwardZip(ctx, zip)
	if center == nil {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "could not resolve zip to a location")
	}
	return center, nil
}

// GetProvider gets a provider by ID
func GetProvider(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := reqcontext.GetTenantID(ctx)

	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[*providerrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	p, err := repo.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, p)
}

// ListProviderVerdicts lists match verdicts involving a provider
func ListProviderVerdicts(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := reqcontext.GetTenantID(ctx)

	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[*verdictrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	verdicts, err := repo.ListByProvider(ctx, tenantID, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, verdicts)
}

// UpsertProvider creates or updates a scraped provider record
func UpsertProvider(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := reqcontext.GetTenantID(ctx)

	var req models.UpsertProviderRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*providerrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	stored, _, err := repo.Upsert(ctx, req.ToProvider(tenantID))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, stored)
}

// DeleteProvider soft-deletes a provider record
func DeleteProvider(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := reqcontext.GetTenantID(ctx)

	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[*providerrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	ctx, verdicts, err := ectoinject.GetContext[*verdictrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	if err := verdicts.DeleteByProvider(ctx, tenantID, id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

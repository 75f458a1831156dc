// Package provider persists scraped provider records.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/yarrow/pkg/database"
	"github.com/Ramsey-B/yarrow/pkg/fingerprint"
	"github.com/Ramsey-B/yarrow/pkg/geo"
	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/tracing"
)

const columns = "id, tenant_id, source, source_key, name, practice_name, website, address, city, state, zip_code, monthly_fee, latitude, longitude, fingerprint, created_at, updated_at, deleted_at"

// Repository handles provider persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new provider repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Upsert writes a scraped record keyed by (tenant_id, source, source_key).
// Returns the stored record and whether its matchable content changed; an
// unchanged re-scrape is skipped entirely.
func (r *Repository) Upsert(ctx context.Context, p *models.Provider) (*models.Provider, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "provider.Repository.Upsert")
	defer span.End()

	p.Fingerprint = fingerprint.Generate(p)

	existing, err := r.GetBySourceKey(ctx, p.TenantID, p.Source, p.SourceKey)
	if err != nil {
		return nil, false, err
	}
	if existing != nil && !fingerprint.HasChanged(existing.Fingerprint, p.Fingerprint) {
		r.logger.WithContext(ctx).WithFields(map[string]any{
			"source":     p.Source,
			"source_key": p.SourceKey,
		}).Debug("Provider unchanged, skipping upsert")
		return existing, false, nil
	}

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	ib := database.NewInsertBuilder()
	ib.InsertInto("providers")
	ib.Cols("id", "tenant_id", "source", "source_key", "name", "practice_name", "website", "address", "city", "state", "zip_code", "monthly_fee", "latitude", "longitude", "fingerprint", "created_at", "updated_at")
	ib.Values(p.ID, p.TenantID, p.Source, p.SourceKey, p.Name, p.PracticeName, p.Website, p.Address, p.City, p.State, p.ZipCode, p.MonthlyFee, p.Latitude, p.Longitude, p.Fingerprint, p.CreatedAt, p.UpdatedAt)

	ub := ib.OnConflict("tenant_id", "source", "source_key")
	ub.Set(
		ub.Assign("name", database.Excluded("name")),
		ub.Assign("practice_name", database.Excluded("practice_name")),
		ub.Assign("website", database.Excluded("website")),
		ub.Assign("address", database.Excluded("address")),
		ub.Assign("city", database.Excluded("city")),
		ub.Assign("state", database.Excluded("state")),
		ub.Assign("zip_code", database.Excluded("zip_code")),
		ub.Assign("monthly_fee", database.Excluded("monthly_fee")),
		ub.Assign("latitude", database.Excluded("latitude")),
		ub.Assign("longitude", database.Excluded("longitude")),
		ub.Assign("fingerprint", database.Excluded("fingerprint")),
		ub.Assign("updated_at", database.Excluded("updated_at")),
		ub.Assign("deleted_at", nil),
	)

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"source": p.Source, "source_key": p.SourceKey}).Error("Failed to upsert provider")
		return nil, false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert provider")
	}

	stored, err := r.GetBySourceKey(ctx, p.TenantID, p.Source, p.SourceKey)
	if err != nil {
		return nil, false, err
	}
	return stored, true, nil
}

// Get retrieves a provider by ID
func (r *Repository) Get(ctx context.Context, tenantID string, id string) (*models.Provider, error) {
	ctx, span := tracing.StartSpan(ctx, "provider.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("providers")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	var p models.Provider
	if err := r.db.GetContext(ctx, &p, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("provider %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get provider")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get provider")
	}

	return &p, nil
}

// GetBySourceKey retrieves a provider by its scrape identity. Returns nil
// when no record exists.
func (r *Repository) GetBySourceKey(ctx context.Context, tenantID string, source string, sourceKey string) (*models.Provider, error) {
	ctx, span := tracing.StartSpan(ctx, "provider.Repository.GetBySourceKey")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("providers")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("source", source),
		sb.Equal("source_key", sourceKey),
	)

	query, args := sb.Build()
	var p models.Provider
	if err := r.db.GetContext(ctx, &p, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get provider by source key")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get provider")
	}

	return &p, nil
}

// ListBySource retrieves all live providers scraped from one directory.
func (r *Repository) ListBySource(ctx context.Context, tenantID string, source string) ([]*models.Provider, error) {
	ctx, span := tracing.StartSpan(ctx, "provider.Repository.ListBySource")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("providers")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("source", source),
		sb.IsNull("deleted_at"),
	)
	sb.OrderBy("source_key ASC")

	query, args := sb.Build()
	var providers []*models.Provider
	if err := r.db.SelectContext(ctx, &providers, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list providers by source")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list providers")
	}

	return providers, nil
}

// ListByState retrieves all live providers in a state, across sources.
func (r *Repository) ListByState(ctx context.Context, tenantID string, state string) ([]*models.Provider, error) {
	ctx, span := tracing.StartSpan(ctx, "provider.Repository.ListByState")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("providers")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		fmt.Sprintf("LOWER(state) = LOWER(%s)", sb.Var(state)),
		sb.IsNull("deleted_at"),
	)
	sb.OrderBy("source_key ASC")

	query, args := sb.Build()
	var providers []*models.Provider
	if err := r.db.SelectContext(ctx, &providers, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list providers by state")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list providers")
	}

	return providers, nil
}

// SearchWithinBox retrieves located providers inside a bounding box. Callers
// rank the result by exact haversine distance; this query only pre-filters.
func (r *Repository) SearchWithinBox(ctx context.Context, tenantID string, box geo.BoundingBox, limit int) ([]*models.Provider, error) {
	ctx, span := tracing.StartSpan(ctx, "provider.Repository.SearchWithinBox")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 100
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("providers")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.IsNotNull("latitude"),
		sb.IsNotNull("longitude"),
		sb.Between("latitude", box.MinLat, box.MaxLat),
		sb.Between("longitude", box.MinLon, box.MaxLon),
		sb.IsNull("deleted_at"),
	)
	sb.Limit(limit)

	query, args := sb.Build()
	var providers []*models.Provider
	if err := r.db.SelectContext(ctx, &providers, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to search providers within box")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to search providers")
	}

	return providers, nil
}

// PropagateFee fills a provider's fee from a matched donor. The guard keeps
// the write idempotent: a fee the record already knows is never overwritten.
func (r *Repository) PropagateFee(ctx context.Context, tenantID string, id string, fee float64) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "provider.Repository.PropagateFee")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin fee propagation")
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE providers
		SET monthly_fee = $1, updated_at = $2
		WHERE tenant_id = $3 AND id = $4 AND monthly_fee IS NULL AND deleted_at IS NULL
	`

	result, err := tx.ExecContext(ctx, query, fee, time.Now().UTC(), tenantID, id)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"provider_id": id}).Error("Failed to propagate fee")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to propagate fee")
	}

	if err := tx.Commit(ctx); err != nil {
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit fee propagation")
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// Delete soft-deletes a provider record.
func (r *Repository) Delete(ctx context.Context, tenantID string, id string) error {
	ctx, span := tracing.StartSpan(ctx, "provider.Repository.Delete")
	defer span.End()

	now := time.Now().UTC()
	ub := database.NewUpdateBuilder()
	ub.Update("providers")
	ub.Set(
		ub.Assign("deleted_at", now),
		ub.Assign("updated_at", now),
	)
	ub.Where(
		ub.Equal("id", id),
		ub.Equal("tenant_id", tenantID),
		ub.IsNull("deleted_at"),
	)

	query, args := ub.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete provider")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete provider")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("provider %s not found", id))
	}

	return nil
}

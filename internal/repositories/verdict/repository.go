// Package verdict persists reconciliation match verdicts.
package verdict

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
	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/tracing"
)

const columns = "id, tenant_id, source_provider_id, candidate_provider_id, tier, confidence, distance_miles, donor_fee, fee_eligible, created_at, updated_at"

// Repository handles match verdict persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new verdict repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// CreateBatch stores one verdict per source provider. Re-running a
// reconciliation keeps the strongest verdict seen for each source record.
func (r *Repository) CreateBatch(ctx context.Context, verdicts []models.MatchVerdict) error {
	ctx, span := tracing.StartSpan(ctx, "verdict.Repository.CreateBatch")
	defer span.End()

	if len(verdicts) == 0 {
		return nil
	}

	now := time.Now().UTC()
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto("match_verdicts")
	ib.Cols("id", "tenant_id", "source_provider_id", "candidate_provider_id", "tier", "confidence", "distance_miles", "donor_fee", "fee_eligible", "created_at", "updated_at")

	for i := range verdicts {
		v := &verdicts[i]
		if v.ID == "" {
			v.ID = uuid.New().String()
		}
		v.CreatedAt = now
		v.UpdatedAt = now
		ib.Values(v.ID, v.TenantID, v.SourceProviderID, v.CandidateProviderID, v.Tier, v.Confidence, v.DistanceMiles, v.DonorFee, v.FeeEligible, v.CreatedAt, v.UpdatedAt)
	}

	query, args := ib.Build()
	query += " ON CONFLICT (tenant_id, source_provider_id) DO UPDATE SET candidate_provider_id = EXCLUDED.candidate_provider_id, tier = EXCLUDED.tier, confidence = EXCLUDED.confidence, distance_miles = EXCLUDED.distance_miles, donor_fee = EXCLUDED.donor_fee, fee_eligible = EXCLUDED.fee_eligible, updated_at = EXCLUDED.updated_at WHERE EXCLUDED.confidence >= match_verdicts.confidence"

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin verdict write")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create verdicts batch")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create verdicts")
	}

	if err := tx.Commit(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit verdicts")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"count": len(verdicts)}).Debug("Created verdicts batch")
	return nil
}

// Get retrieves a verdict by ID
func (r *Repository) Get(ctx context.Context, tenantID string, id string) (*models.MatchVerdict, error) {
	ctx, span := tracing.StartSpan(ctx, "verdict.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("match_verdicts")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	var v models.MatchVerdict
	if err := r.db.GetContext(ctx, &v, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("verdict %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get verdict")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get verdict")
	}

	return &v, nil
}

// GetBySourceProvider retrieves the stored verdict for a source provider.
// Returns nil when the provider has never been reconciled.
func (r *Repository) GetBySourceProvider(ctx context.Context, tenantID string, sourceProviderID string) (*models.MatchVerdict, error) {
	ctx, span := tracing.StartSpan(ctx, "verdict.Repository.GetBySourceProvider")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("match_verdicts")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("source_provider_id", sourceProviderID),
	)

	query, args := sb.Build()
	var v models.MatchVerdict
	if err := r.db.GetContext(ctx, &v, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get verdict by source provider")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get verdict")
	}

	return &v, nil
}

// ListByProvider retrieves verdicts involving a provider on either side.
func (r *Repository) ListByProvider(ctx context.Context, tenantID string, providerID string) ([]models.MatchVerdict, error) {
	ctx, span := tracing.StartSpan(ctx, "verdict.Repository.ListByProvider")
	defer span.End()

	query := `
		SELECT ` + columns + `
		FROM match_verdicts
		WHERE tenant_id = $1
		AND (source_provider_id = $2 OR candidate_provider_id = $2)
		ORDER BY confidence DESC, updated_at DESC
	`

	var verdicts []models.MatchVerdict
	if err := r.db.SelectContext(ctx, &verdicts, query, tenantID, providerID); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list verdicts by provider")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list verdicts")
	}

	return verdicts, nil
}

// DeleteByProvider removes all verdicts involving a provider (used when the
// provider is deleted).
func (r *Repository) DeleteByProvider(ctx context.Context, tenantID string, providerID string) error {
	ctx, span := tracing.StartSpan(ctx, "verdict.Repository.DeleteByProvider")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom("match_verdicts")
	db.Where(
		db.Equal("tenant_id", tenantID),
		fmt.Sprintf("(source_provider_id = %s OR candidate_provider_id = %s)", db.Var(providerID), db.Var(providerID)),
	)

	query, args := db.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete verdicts by provider")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete verdicts")
	}

	return nil
}

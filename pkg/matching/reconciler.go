package matching

import (
	"context"

	"github.com/Gobusters/ectologger"
	"golang.org/x/sync/errgroup"

	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/tracing"
)

// ReconcilerConfig controls a reconciliation run.
type ReconcilerConfig struct {
	// Workers bounds how many source records classify concurrently.
	Workers int `json:"workers"`

	// ConfidenceThreshold is the minimum confidence for fee propagation.
	ConfidenceThreshold int `json:"confidence_threshold"`
}

// DefaultReconcilerConfig returns the default reconciler config.
func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{
		Workers:             4,
		ConfidenceThreshold: 85,
	}
}

// Reconciler runs one provider set against another and keeps the best verdict
// per source record. It performs no I/O; persisting verdicts and applying fee
// propagation belong to the caller.
type Reconciler struct {
	logger     ectologger.Logger
	classifier *Classifier
	config     ReconcilerConfig
}

// NewReconciler creates a new reconciler.
func NewReconciler(logger ectologger.Logger, classifier *Classifier, config ReconcilerConfig) *Reconciler {
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &Reconciler{
		logger:     logger,
		classifier: classifier,
		config:     config,
	}
}

// ReconcileAll classifies every source record against the full candidate set
// and returns one verdict per source, in source order. Source records are
// independent, so they classify concurrently; each worker writes only its own
// slot, which keeps the run deterministic for identical inputs.
func (r *Reconciler) ReconcileAll(ctx context.Context, sources, candidates []*models.Provider, confidenceThreshold int) ([]models.MatchVerdict, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Reconciler.ReconcileAll")
	defer span.End()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"source_count":         len(sources),
		"candidate_count":      len(candidates),
		"confidence_threshold": confidenceThreshold,
	}).Info("Starting reconciliation run")

	verdicts := make([]models.MatchVerdict, len(sources))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.config.Workers)

	for i, source := range sources {
		group.Go(func() error {
			best := r.classifier.ClassifyAgainst(groupCtx, source, candidates)
			verdicts[i] = r.toVerdict(source, best, confidenceThreshold)
			return groupCtx.Err()
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return verdicts, nil
}

// toVerdict folds a pair result into a stored verdict and decides fee
// eligibility: the match must clear the threshold, the candidate must donate a
// fee, and the source fee must still be unknown. A source with a known free
// membership keeps it.
func (r *Reconciler) toVerdict(source *models.Provider, best PairResult, confidenceThreshold int) models.MatchVerdict {
	verdict := models.MatchVerdict{
		TenantID:         source.TenantID,
		SourceProviderID: source.ID,
		Tier:             best.Tier,
		Confidence:       best.Confidence,
		DistanceMiles:    best.DistanceMiles,
		DonorFee:         best.DonorFee,
	}

	if best.Candidate != nil && best.Tier != models.MatchTierNone {
		id := best.Candidate.ID
		verdict.CandidateProviderID = &id
	}

	verdict.FeeEligible = verdict.Confidence >= confidenceThreshold &&
		verdict.DonorFee != nil &&
		!source.HasKnownFee()

	return verdict
}

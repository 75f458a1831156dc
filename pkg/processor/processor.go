// Package processor wires scraped provider records through storage, matching,
// and fee propagation. It is the ingestion layer behind the Kafka consumer and
// the engine behind the reconcile API.
package processor

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"

	providerrepo "github.com/Ramsey-B/yarrow/internal/repositories/provider"
	verdictrepo "github.com/Ramsey-B/yarrow/internal/repositories/verdict"
	"github.com/Ramsey-B/yarrow/pkg/events"
	"github.com/Ramsey-B/yarrow/pkg/kafka"
	"github.com/Ramsey-B/yarrow/pkg/matching"
	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/tracing"
)

// Config holds processor policy knobs.
type Config struct {
	// ConfidenceThreshold is the minimum confidence for fee propagation.
	ConfidenceThreshold int

	// AutoApply propagates eligible fees during ingestion. Reconcile runs
	// through the API apply only when the request asks for it.
	AutoApply bool
}

// Processor handles scraped provider messages and reconciliation runs
type Processor struct {
	logger       ectologger.Logger
	providerRepo *providerrepo.Repository
	verdictRepo  *verdictrepo.Repository
	classifier   *matching.Classifier
	reconciler   *matching.Reconciler
	emitter      *events.Emitter
	validate     *validator.Validate
	config       Config
}

// NewProcessor creates a new message processor
func NewProcessor(
	logger ectologger.Logger,
	providerRepo *providerrepo.Repository,
	verdictRepo *verdictrepo.Repository,
	classifier *matching.Classifier,
	reconciler *matching.Reconciler,
	emitter *events.Emitter,
	config Config,
) *Processor {
	return &Processor{
		logger:       logger,
		providerRepo: providerRepo,
		verdictRepo:  verdictRepo,
		classifier:   classifier,
		reconciler:   reconciler,
		emitter:      emitter,
		validate:     validator.New(),
		config:       config,
	}
}

// HandleMessage processes one scraped provider message. Returning an error
// leaves the message uncommitted for redelivery.
func (p *Processor) HandleMessage(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "processor.Processor.HandleMessage")
	defer span.End()

	tenantID := msg.GetTenantID()
	if tenantID == "" {
		// Unroutable message; committing it is the only way forward.
		p.logger.WithContext(ctx).WithFields(map[string]any{
			"topic": msg.Topic, "offset": msg.Offset,
		}).Error("Scraped message missing tenant ID, dropping")
		return nil
	}

	if msg.IsDelete() {
		return p.handleDelete(ctx, tenantID, msg.Scraped)
	}

	if msg.Scraped == nil || msg.Scraped.Provider == nil {
		p.logger.WithContext(ctx).Error("Scraped message missing provider payload, dropping")
		return nil
	}

	if err := p.validate.Struct(msg.Scraped.Provider); err != nil {
		// Malformed scrapes are expected data-quality noise, not retryable.
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"source": msg.GetSource(), "source_key": msg.Scraped.SourceKey,
		}).Warn("Scraped provider failed validation, dropping")
		return nil
	}

	record := msg.Scraped.Provider.ToProvider(tenantID)

	stored, changed, err := p.providerRepo.Upsert(ctx, record)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	if err := p.emitter.EmitProviderUpserted(ctx, stored); err != nil {
		p.logger.WithContext(ctx).WithError(err).Warn("Failed to emit upsert event, continuing")
	}

	return p.reconcileOne(ctx, stored)
}

func (p *Processor) handleDelete(ctx context.Context, tenantID string, scraped *kafka.ScrapedProviderMessage) error {
	ctx, span := tracing.StartSpan(ctx, "processor.Processor.handleDelete")
	defer span.End()

	existing, err := p.providerRepo.GetBySourceKey(ctx, tenantID, scraped.Source, scraped.SourceKey)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	if err := p.providerRepo.Delete(ctx, tenantID, existing.ID); err != nil {
		return err
	}
	if err := p.verdictRepo.DeleteByProvider(ctx, tenantID, existing.ID); err != nil {
		return err
	}

	if err := p.emitter.EmitProviderDeleted(ctx, tenantID, existing.ID, existing.Source); err != nil {
		p.logger.WithContext(ctx).WithError(err).Warn("Failed to emit delete event, continuing")
	}

	return nil
}

// reconcileOne classifies a freshly stored record against providers from
// other directories in the same state and persists the verdict.
func (p *Processor) reconcileOne(ctx context.Context, source *models.Provider) error {
	ctx, span := tracing.StartSpan(ctx, "processor.Processor.reconcileOne")
	defer span.End()

	if source.State == "" {
		return nil
	}

	inState, err := p.providerRepo.ListByState(ctx, source.TenantID, source.State)
	if err != nil {
		return err
	}

	candidates := make([]*models.Provider, 0, len(inState))
	for _, c := range inState {
		if c.Source != source.Source {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	best := p.classifier.ClassifyAgainst(ctx, source, candidates)
	verdict := p.toVerdict(source, best)

	if err := p.verdictRepo.CreateBatch(ctx, []models.MatchVerdict{verdict}); err != nil {
		return err
	}

	if verdict.IsMatch() {
		if err := p.emitter.EmitProviderMatched(ctx, source, &verdict); err != nil {
			p.logger.WithContext(ctx).WithError(err).Warn("Failed to emit match event, continuing")
		}
	}

	if p.config.AutoApply && verdict.FeeEligible {
		if err := p.applyFee(ctx, source, &verdict); err != nil {
			return err
		}
	}

	return nil
}

func (p *Processor) toVerdict(source *models.Provider, best matching.PairResult) models.MatchVerdict {
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
	verdict.FeeEligible = verdict.Confidence >= p.config.ConfidenceThreshold &&
		verdict.DonorFee != nil &&
		!source.HasKnownFee()
	return verdict
}

func (p *Processor) applyFee(ctx context.Context, source *models.Provider, verdict *models.MatchVerdict) error {
	applied, err := p.providerRepo.PropagateFee(ctx, verdict.TenantID, verdict.SourceProviderID, *verdict.DonorFee)
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	if err := p.emitter.EmitFeePropagated(ctx, source, verdict); err != nil {
		p.logger.WithContext(ctx).WithError(err).Warn("Failed to emit fee propagation event, continuing")
	}
	return nil
}

// Run reconciles every record from one directory against another and returns
// the verdicts. Fees are written only when the request asks to apply.
func (p *Processor) Run(ctx context.Context, tenantID string, req *models.ReconcileRequest) (*models.ReconcileResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "processor.Processor.Run")
	defer span.End()

	if req.Source == req.CandidateSource {
		return nil, fmt.Errorf("source and candidate source must differ")
	}

	threshold := p.config.ConfidenceThreshold
	if req.ConfidenceThreshold != nil {
		threshold = *req.ConfidenceThreshold
	}

	sources, err := p.providerRepo.ListBySource(ctx, tenantID, req.Source)
	if err != nil {
		return nil, err
	}
	candidates, err := p.providerRepo.ListBySource(ctx, tenantID, req.CandidateSource)
	if err != nil {
		return nil, err
	}

	verdicts, err := p.reconciler.ReconcileAll(ctx, sources, candidates, threshold)
	if err != nil {
		return nil, err
	}

	resp := &models.ReconcileResponse{
		Verdicts:       verdicts,
		SourceCount:    len(sources),
		CandidateCount: len(candidates),
	}
	for i := range verdicts {
		if verdicts[i].IsMatch() {
			resp.MatchCount++
		}
	}

	if !req.Apply {
		return resp, nil
	}

	if err := p.verdictRepo.CreateBatch(ctx, verdicts); err != nil {
		return nil, err
	}

	for i := range verdicts {
		v := &verdicts[i]
		if !v.FeeEligible {
			continue
		}
		source := findProvider(sources, v.SourceProviderID)
		if source == nil {
			continue
		}
		applied, err := p.providerRepo.PropagateFee(ctx, tenantID, v.SourceProviderID, *v.DonorFee)
		if err != nil {
			return nil, err
		}
		if applied {
			resp.FeesPropagated++
			if err := p.emitter.EmitFeePropagated(ctx, source, v); err != nil {
				p.logger.WithContext(ctx).WithError(err).Warn("Failed to emit fee propagation event, continuing")
			}
		}
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"source":          req.Source,
		"candidate":       req.CandidateSource,
		"matches":         resp.MatchCount,
		"fees_propagated": resp.FeesPropagated,
	}).Info("Reconciliation run applied")

	return resp, nil
}

func findProvider(providers []*models.Provider, id string) *models.Provider {
	for _, p := range providers {
		if p.ID == id {
			return p
		}
	}
	return nil
}

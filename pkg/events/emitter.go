// Package events handles event emission for provider lifecycle changes
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/yarrow/pkg/kafka"
	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Emitter handles event emission for provider reconciliation
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitProviderUpserted emits an event for a stored scraped record
func (e *Emitter) EmitProviderUpserted(ctx context.Context, p *models.Provider) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitProviderUpserted")
	defer span.End()

	data, _ := json.Marshal(map[string]any{
		"schema_version": SchemaVersion,
		"source":         p.Source,
		"source_key":     p.SourceKey,
		"fingerprint":    p.Fingerprint,
	})

	event := &kafka.ProviderEvent{
		EventType:  string(EventTypeProviderUpserted),
		TenantID:   p.TenantID,
		ProviderID: p.ID,
		Source:     p.Source,
		Data:       data,
	}

	if err := e.producer.PublishProviderEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit provider.upserted event")
		return err
	}

	return nil
}

// EmitProviderMatched emits an event when a reconciliation run finds a match
func (e *Emitter) EmitProviderMatched(ctx context.Context, source *models.Provider, verdict *models.MatchVerdict) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitProviderMatched")
	defer span.End()

	payload := map[string]any{
		"schema_version": SchemaVersion,
		"tier":           verdict.Tier,
		"confidence":     verdict.Confidence,
	}
	if verdict.CandidateProviderID != nil {
		payload["candidate_provider_id"] = *verdict.CandidateProviderID
	}
	if verdict.DistanceMiles != nil {
		payload["distance_miles"] = *verdict.DistanceMiles
	}
	dataJSON, _ := json.Marshal(payload)

	event := &kafka.ProviderEvent{
		EventType:  string(EventTypeProviderMatched),
		TenantID:   verdict.TenantID,
		ProviderID: verdict.SourceProviderID,
		Source:     source.Source,
		Data:       dataJSON,
	}

	if err := e.producer.PublishProviderEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit provider.matched event")
		return err
	}

	return nil
}

// EmitFeePropagated emits an event when a donor fee fills an unknown fee
func (e *Emitter) EmitFeePropagated(ctx context.Context, source *models.Provider, verdict *models.MatchVerdict) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitFeePropagated")
	defer span.End()

	payload := map[string]any{
		"schema_version": SchemaVersion,
		"tier":           verdict.Tier,
		"confidence":     verdict.Confidence,
	}
	if verdict.DonorFee != nil {
		payload["fee"] = *verdict.DonorFee
	}
	if verdict.CandidateProviderID != nil {
		payload["donor_provider_id"] = *verdict.CandidateProviderID
	}
	dataJSON, _ := json.Marshal(payload)

	event := &kafka.ProviderEvent{
		EventType:  string(EventTypeFeePropagated),
		TenantID:   verdict.TenantID,
		ProviderID: verdict.SourceProviderID,
		Source:     source.Source,
		Data:       dataJSON,
	}

	if err := e.producer.PublishProviderEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit provider.fee_propagated event")
		return err
	}

	return nil
}

// EmitProviderDeleted emits an event when a scraped listing disappears
func (e *Emitter) EmitProviderDeleted(ctx context.Context, tenantID string, providerID string, source string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitProviderDeleted")
	defer span.End()

	event := &kafka.ProviderEvent{
		EventType:  string(EventTypeProviderDeleted),
		TenantID:   tenantID,
		ProviderID: providerID,
		Source:     source,
	}

	if err := e.producer.PublishProviderEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit provider.deleted event")
		return err
	}

	return nil
}

package commands

import (
	"context"
	"encoding/json"
	"time"

	"agora/contexts/civic-engagement/engagement-ledger/domain/entities"
	"agora/internal/shared/events"
)

// Ledger events are partitioned by entity for stable ordering on
// entity-scoped consumers.
func newEngagementEnvelope(
	eventID string,
	eventType string,
	entityID string,
	occurredAt time.Time,
	data map[string]any,
) (events.Envelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return events.Envelope{}, err
	}
	return events.Envelope{
		EventID:       eventID,
		EventType:     eventType,
		SourceService: "engagement-ledger",
		OccurredAt:    occurredAt.UTC(),
		TraceID:       eventID,
		SchemaVersion: 1,
		PartitionKey:  entityID,
		Data:          payload,
	}, nil
}

func (uc EngagementUseCase) appendActionEvent(
	ctx context.Context,
	eventType string,
	entity entities.Entity,
	record entities.EngagementRecord,
	counts entities.AggregateCounts,
	occurredAt time.Time,
	metadata map[string]any,
) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	data := map[string]any{
		"entity_id":   entity.EntityID,
		"entity_kind": string(entity.Kind),
		"actor_id":    record.ActorID,
		"action":      string(record.Action),
		"group":       string(record.Group),
		"upvotes":     counts.Upvotes,
		"downvotes":   counts.Downvotes,
		"signatures":  counts.Signatures,
		"likes":       counts.Likes,
		"occurred_at": occurredAt.Format(time.RFC3339),
	}
	for key, value := range metadata {
		data[key] = value
	}
	envelope, err := newEngagementEnvelope(eventID, eventType, entity.EntityID, occurredAt, data)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

func (uc EngagementUseCase) appendThresholdEvent(
	ctx context.Context,
	entity entities.Entity,
	counts entities.AggregateCounts,
	occurredAt time.Time,
) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	goal := 0
	if entity.Goal != nil {
		goal = *entity.Goal
	}
	data := map[string]any{
		"entity_id":   entity.EntityID,
		"entity_kind": string(entity.Kind),
		"title":       entity.Title,
		"status":      string(entity.Status),
		"goal":        goal,
		"signatures":  counts.Signatures,
		"occurred_at": occurredAt.Format(time.RFC3339),
	}
	envelope, err := newEngagementEnvelope(eventID, "engagement.threshold_crossed", entity.EntityID, occurredAt, data)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

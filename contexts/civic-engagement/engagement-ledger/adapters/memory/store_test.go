package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"agora/contexts/civic-engagement/engagement-ledger/domain/entities"
	domainerrors "agora/contexts/civic-engagement/engagement-ledger/domain/errors"
	"agora/internal/shared/events"
)

func TestUpdateEntityVersionCheck(t *testing.T) {
	goal := 10
	store := NewStore([]entities.Entity{{
		EntityID: "petition-1",
		Kind:     entities.EntityKindPetition,
		Title:    "Test petition",
		Status:   entities.EntityStatusActive,
		Goal:     &goal,
		Version:  1,
	}})

	entity, err := store.GetEntity(context.Background(), "petition-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	entity.Status = entities.EntityStatusAchieved

	updated, err := store.UpdateEntity(context.Background(), entity, 1)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Version != 2 {
		t.Fatalf("expected version bump to 2, got %d", updated.Version)
	}

	// Stale writer must observe a conflict.
	_, err = store.UpdateEntity(context.Background(), entity, 1)
	if !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected conflict for stale version, got %v", err)
	}

	_, err = store.UpdateEntity(context.Background(), entities.Entity{EntityID: "missing"}, 1)
	if !errors.Is(err, domainerrors.ErrEntityNotFound) {
		t.Fatalf("expected not-found for unknown entity, got %v", err)
	}
}

func TestSaveRecordUpsertsByIdentity(t *testing.T) {
	store := NewStore(nil)
	now := time.Now().UTC()

	record := entities.EngagementRecord{
		RecordID:   "rec-1",
		EntityID:   "issue-1",
		ActorID:    "actor-1",
		Action:     entities.ActionUpvote,
		Group:      entities.GroupVote,
		RecordedAt: now,
		UpdatedAt:  now,
	}
	if err := store.SaveRecord(context.Background(), record); err != nil {
		t.Fatalf("save: %v", err)
	}

	record.Action = entities.ActionDownvote
	if err := store.SaveRecord(context.Background(), record); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	stored, found, err := store.GetRecordByGroup(context.Background(), "issue-1", "actor-1", entities.GroupVote)
	if err != nil || !found {
		t.Fatalf("lookup: found=%v err=%v", found, err)
	}
	if stored.Action != entities.ActionDownvote {
		t.Fatalf("expected downvote after upsert, got %s", stored.Action)
	}

	records, err := store.ListRecordsByEntity(context.Background(), "issue-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("upsert must not duplicate rows, got %d", len(records))
	}
}

func TestAppendOutboxDeduplicatesByEventID(t *testing.T) {
	store := NewStore(nil)
	envelope := events.Envelope{
		EventID:       "evt-1",
		EventType:     "engagement.action_recorded",
		SourceService: "engagement-ledger",
		OccurredAt:    time.Now().UTC(),
		SchemaVersion: 1,
		PartitionKey:  "issue-1",
		Data:          []byte(`{"entity_id":"issue-1"}`),
	}

	if err := store.AppendOutbox(context.Background(), envelope); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.AppendOutbox(context.Background(), envelope); err != nil {
		t.Fatalf("idempotent append: %v", err)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one pending row, got %d", len(pending))
	}

	if err := store.MarkOutboxPublished(context.Background(), "evt-1", time.Now().UTC()); err != nil {
		t.Fatalf("mark published: %v", err)
	}
	pending, err = store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("published rows must not stay pending, got %d", len(pending))
	}
}

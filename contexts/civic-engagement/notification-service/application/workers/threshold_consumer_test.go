package workers

import (
	"context"
	"testing"
	"time"

	"agora/contexts/civic-engagement/notification-service/adapters/memory"
	application "agora/contexts/civic-engagement/notification-service/application"
	"agora/internal/shared/events"
)

func newConsumerFixture() (ThresholdConsumer, *memory.Store) {
	store := memory.NewStore()
	consumer := ThresholdConsumer{
		Dedup: store,
		Service: application.Service{
			Repo:  store,
			Clock: store,
			IDGen: store,
		},
		Clock: store,
	}
	return consumer, store
}

func thresholdEnvelope(eventID string) events.Envelope {
	return events.Envelope{
		EventID:       eventID,
		EventType:     "engagement.threshold_crossed",
		SourceService: "engagement-ledger",
		OccurredAt:    time.Now().UTC(),
		SchemaVersion: 1,
		PartitionKey:  "petition-1",
		Data: []byte(`{"entity_id":"petition-1","entity_kind":"petition",` +
			`"title":"More bike lanes","status":"achieved","goal":3,"signatures":3}`),
	}
}

func TestThresholdConsumerCreatesNotification(t *testing.T) {
	consumer, store := newConsumerFixture()

	if err := consumer.handleThresholdCrossed(context.Background(), thresholdEnvelope("evt-1")); err != nil {
		t.Fatalf("handle: %v", err)
	}

	items, err := store.ListNotifications(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one notification, got %d", len(items))
	}
	notification := items[0]
	if notification.EntityID != "petition-1" {
		t.Fatalf("expected petition-1, got %s", notification.EntityID)
	}
	if notification.EventType != "engagement.threshold_crossed" {
		t.Fatalf("unexpected event type %s", notification.EventType)
	}
	if notification.Message != `Petition "More bike lanes" reached its goal of 3 signatures` {
		t.Fatalf("unexpected message %q", notification.Message)
	}
}

func TestThresholdConsumerSkipsReplayedEvent(t *testing.T) {
	consumer, store := newConsumerFixture()

	if err := consumer.handleThresholdCrossed(context.Background(), thresholdEnvelope("evt-1")); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := consumer.handleThresholdCrossed(context.Background(), thresholdEnvelope("evt-1")); err != nil {
		t.Fatalf("replayed delivery: %v", err)
	}

	items, err := store.ListNotifications(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("replay must not duplicate notifications, got %d", len(items))
	}
}

func TestThresholdConsumerDistinctEventsBothLand(t *testing.T) {
	consumer, store := newConsumerFixture()

	if err := consumer.handleThresholdCrossed(context.Background(), thresholdEnvelope("evt-1")); err != nil {
		t.Fatalf("first event: %v", err)
	}
	if err := consumer.handleThresholdCrossed(context.Background(), thresholdEnvelope("evt-2")); err != nil {
		t.Fatalf("second event: %v", err)
	}

	items, err := store.ListNotifications(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected two notifications, got %d", len(items))
	}
}

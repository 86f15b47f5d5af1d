package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"agora/contexts/civic-engagement/engagement-ledger/adapters/memory"
	"agora/internal/shared/events"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Envelope
	fail   bool
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) published() []events.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Envelope(nil), p.events...)
}

func appendTestEnvelope(t *testing.T, store *memory.Store, eventID string) {
	t.Helper()
	err := store.AppendOutbox(context.Background(), events.Envelope{
		EventID:       eventID,
		EventType:     "engagement.action_recorded",
		SourceService: "engagement-ledger",
		OccurredAt:    time.Now().UTC(),
		SchemaVersion: 1,
		PartitionKey:  "issue-1",
		Data:          []byte(`{"entity_id":"issue-1"}`),
	})
	if err != nil {
		t.Fatalf("append outbox: %v", err)
	}
}

func TestOutboxRelayPublishesAndMarksRows(t *testing.T) {
	store := memory.NewStore(nil)
	publisher := &recordingPublisher{}
	appendTestEnvelope(t, store, "evt-1")
	appendTestEnvelope(t, store, "evt-2")

	relay := OutboxRelay{Outbox: store, Publisher: publisher}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	if got := len(publisher.published()); got != 2 {
		t.Fatalf("expected 2 published events, got %d", got)
	}
	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending rows after relay, got %d", len(pending))
	}

	// A second cycle with nothing pending is a no-op.
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("idle run once: %v", err)
	}
	if got := len(publisher.published()); got != 2 {
		t.Fatalf("idle cycle must not republish, got %d events", got)
	}
}

func TestOutboxRelayKeepsRowsOnPublishFailure(t *testing.T) {
	store := memory.NewStore(nil)
	publisher := &recordingPublisher{fail: true}
	appendTestEnvelope(t, store, "evt-1")

	relay := OutboxRelay{Outbox: store, Publisher: publisher}
	if err := relay.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected publish failure to surface")
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("failed rows must stay pending, got %d", len(pending))
	}

	publisher.fail = false
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("retry run once: %v", err)
	}
	if got := len(publisher.published()); got != 1 {
		t.Fatalf("expected 1 published event after retry, got %d", got)
	}
}

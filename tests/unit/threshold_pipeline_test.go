package unit

import (
	"context"
	"testing"
	"time"

	engagementledger "agora/contexts/civic-engagement/engagement-ledger"
	ledgerworkers "agora/contexts/civic-engagement/engagement-ledger/application/workers"
	"agora/contexts/civic-engagement/engagement-ledger/domain/entities"
	notificationservice "agora/contexts/civic-engagement/notification-service"
	notificationworkers "agora/contexts/civic-engagement/notification-service/application/workers"
	"agora/internal/platform/messaging"
)

// Exercises the full async path: ledger mutation -> outbox -> bus ->
// threshold consumer -> stored notification.
func TestThresholdEventReachesNotificationInbox(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ledger := engagementledger.NewInMemoryModule([]entities.Entity{{
		EntityID:    "petition-1",
		Kind:        entities.EntityKindPetition,
		Title:       "More bike lanes",
		Description: "Dedicated bike lanes on arterial roads",
		Status:      entities.EntityStatusActive,
		Goal:        intPtr(1),
		Version:     1,
		CreatedAt:   time.Now().Add(-time.Hour),
	}}, nil)
	notifications := notificationservice.NewInMemoryModule(nil)

	bus, err := messaging.NewKafka(nil, nil)
	if err != nil {
		t.Fatalf("bus: %v", err)
	}
	consumer := notificationworkers.ThresholdConsumer{
		Subscriber: bus,
		Dedup:      notifications.Store,
		Service:    notifications.Service,
		Clock:      notifications.Store,
	}
	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("consumer start: %v", err)
	}

	result, err := ledger.Handler.RecordActionHandler(ctx, "petition-1", "actor-1", "sign")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !result.ThresholdCrossed {
		t.Fatalf("expected threshold crossed")
	}

	relay := ledgerworkers.OutboxRelay{
		Outbox:    ledger.Store,
		Publisher: bus,
		Clock:     ledger.Store,
	}
	if err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("relay: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		items, err := notifications.Service.ListNotifications(ctx, 10)
		if err != nil {
			t.Fatalf("list notifications: %v", err)
		}
		if len(items) == 1 {
			if items[0].EntityID != "petition-1" {
				t.Fatalf("expected petition-1, got %s", items[0].EntityID)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("notification never arrived, got %d items", len(items))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

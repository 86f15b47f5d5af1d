package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "agora/contexts/civic-engagement/notification-service/application"
	"agora/contexts/civic-engagement/notification-service/ports"
	"agora/internal/shared/events"
)

const (
	thresholdCrossedTopic = "engagement.threshold_crossed"
	defaultConsumerGroup  = "notification-service-threshold-cg"
)

// ThresholdConsumer turns threshold-crossed events from the engagement
// ledger into stored notification rows. Consumption is replay-safe via the
// event dedup store.
type ThresholdConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Service       application.Service
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Disabled      bool
	Logger        *slog.Logger
}

func (c ThresholdConsumer) Start(ctx context.Context) error {
	logger := c.logger()
	if c.Disabled {
		logger.Info("threshold consumer disabled by feature flag",
			"event", "notification_threshold_consumer_disabled",
			"module", "civic-engagement/notification-service",
			"layer", "worker",
		)
		return nil
	}
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultConsumerGroup
	}
	if err := c.Subscriber.Subscribe(ctx, thresholdCrossedTopic, group, c.handleThresholdCrossed); err != nil {
		logger.Error("threshold consumer subscribe failed",
			"event", "notification_threshold_consumer_subscribe_failed",
			"module", "civic-engagement/notification-service",
			"layer", "worker",
			"topic", thresholdCrossedTopic,
			"consumer_group", group,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("threshold consumer subscription active",
		"event", "notification_threshold_consumer_started",
		"module", "civic-engagement/notification-service",
		"layer", "worker",
		"consumer_group", group,
	)
	return nil
}

func (c ThresholdConsumer) handleThresholdCrossed(ctx context.Context, event events.Envelope) error {
	logger := c.logger()
	if alreadyProcessed, err := c.reserveEvent(ctx, event); err != nil {
		return err
	} else if alreadyProcessed {
		logger.Debug("threshold event replay skipped",
			"event", "notification_threshold_replayed",
			"module", "civic-engagement/notification-service",
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}

	var payload struct {
		EntityID   string `json:"entity_id"`
		EntityKind string `json:"entity_kind"`
		Title      string `json:"title"`
		Goal       int    `json:"goal"`
		Signatures int    `json:"signatures"`
	}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		logger.Error("threshold event decode failed",
			"event", "notification_threshold_decode_failed",
			"module", "civic-engagement/notification-service",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}

	message := fmt.Sprintf("Petition %q reached its goal of %d signatures", payload.Title, payload.Goal)
	_, err := c.Service.CreateNotification(ctx, application.CreateNotificationInput{
		Message:    message,
		EntityID:   payload.EntityID,
		EntityKind: payload.EntityKind,
		EventType:  event.EventType,
	})
	return err
}

func (c ThresholdConsumer) reserveEvent(ctx context.Context, event events.Envelope) (bool, error) {
	if c.Dedup == nil {
		return false, nil
	}
	sum := sha256.Sum256(event.Data)
	ttl := c.DedupTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	now := time.Now().UTC()
	if c.Clock != nil {
		now = c.Clock.Now().UTC()
	}
	return c.Dedup.ReserveEvent(ctx, event.EventID, hex.EncodeToString(sum[:]), now.Add(ttl))
}

func (c ThresholdConsumer) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

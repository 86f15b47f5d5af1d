package ports

import (
	"context"
	"time"

	"agora/contexts/civic-engagement/engagement-ledger/domain/entities"
	"agora/internal/shared/events"
)

type EntityRepository interface {
	CreateEntity(ctx context.Context, entity entities.Entity) error
	GetEntity(ctx context.Context, entityID string) (entities.Entity, error)
	ListEntities(ctx context.Context, kind entities.EntityKind) ([]entities.Entity, error)
	// UpdateEntity writes entity state conditionally on the stored version
	// matching expectedVersion and returns the row with its incremented
	// version. A mismatch means a concurrent writer won; callers receive
	// ErrConflict and decide whether to retry.
	UpdateEntity(ctx context.Context, entity entities.Entity, expectedVersion int64) (entities.Entity, error)
}

type LedgerRepository interface {
	// SaveRecord upserts by (entity_id, actor_id, exclusion_group); a
	// group-internal switch replaces the prior action in place.
	SaveRecord(ctx context.Context, record entities.EngagementRecord) error
	GetRecordByGroup(ctx context.Context, entityID string, actorID string, group entities.ExclusionGroup) (entities.EngagementRecord, bool, error)
	DeleteRecord(ctx context.Context, entityID string, actorID string, group entities.ExclusionGroup) error
	ListRecordsByEntity(ctx context.Context, entityID string) ([]entities.EngagementRecord, error)
	ListRecordsByActor(ctx context.Context, entityID string, actorID string) ([]entities.EngagementRecord, error)
	// CountsByEntity recomputes aggregates from ledger rows. It is the only
	// sanctioned source for counts; nothing maintains a free-standing counter.
	CountsByEntity(ctx context.Context, entityID string) (entities.AggregateCounts, error)
}

type CommentRepository interface {
	AddComment(ctx context.Context, comment entities.Comment) error
	ListCommentsByEntity(ctx context.Context, entityID string) ([]entities.Comment, error)
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope events.Envelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

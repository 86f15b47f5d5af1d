package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"agora/contexts/civic-engagement/engagement-ledger/domain/entities"
	domainerrors "agora/contexts/civic-engagement/engagement-ledger/domain/errors"
	"agora/contexts/civic-engagement/engagement-ledger/ports"
	"agora/internal/shared/events"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory adapter backing tests and local development. It
// implements every ledger port behind one RWMutex so readers always observe
// a consistent snapshot.
type Store struct {
	mu sync.RWMutex

	entities map[string]entities.Entity
	records  map[string]entities.EngagementRecord
	comments map[string][]entities.Comment
	outbox   map[string]outboxRecord
}

func NewStore(seed []entities.Entity) *Store {
	seeded := make(map[string]entities.Entity, len(seed))
	for _, entity := range seed {
		seeded[entity.EntityID] = entity
	}
	return &Store{
		entities: seeded,
		records:  make(map[string]entities.EngagementRecord),
		comments: make(map[string][]entities.Comment),
		outbox:   make(map[string]outboxRecord),
	}
}

func recordKey(entityID string, actorID string, group entities.ExclusionGroup) string {
	return strings.TrimSpace(entityID) + "|" + strings.TrimSpace(actorID) + "|" + string(group)
}

func (s *Store) CreateEntity(_ context.Context, entity entities.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(entity.EntityID)
	if _, exists := s.entities[key]; exists {
		return domainerrors.ErrConflict
	}
	s.entities[key] = entity
	return nil
}

func (s *Store) GetEntity(_ context.Context, entityID string) (entities.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entity, ok := s.entities[strings.TrimSpace(entityID)]
	if !ok {
		return entities.Entity{}, domainerrors.ErrEntityNotFound
	}
	return entity, nil
}

func (s *Store) ListEntities(_ context.Context, kind entities.EntityKind) ([]entities.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Entity, 0, len(s.entities))
	for _, entity := range s.entities {
		if kind != "" && entity.Kind != kind {
			continue
		}
		items = append(items, entity)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) UpdateEntity(_ context.Context, entity entities.Entity, expectedVersion int64) (entities.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(entity.EntityID)
	current, ok := s.entities[key]
	if !ok {
		return entities.Entity{}, domainerrors.ErrEntityNotFound
	}
	if current.Version != expectedVersion {
		return entities.Entity{}, domainerrors.ErrConflict
	}
	entity.Version = expectedVersion + 1
	s.entities[key] = entity
	return entity, nil
}

func (s *Store) SaveRecord(_ context.Context, record entities.EngagementRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[recordKey(record.EntityID, record.ActorID, record.Group)] = record
	return nil
}

func (s *Store) GetRecordByGroup(
	_ context.Context,
	entityID string,
	actorID string,
	group entities.ExclusionGroup,
) (entities.EngagementRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[recordKey(entityID, actorID, group)]
	if !ok {
		return entities.EngagementRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) DeleteRecord(_ context.Context, entityID string, actorID string, group entities.ExclusionGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey(entityID, actorID, group)
	if _, ok := s.records[key]; !ok {
		return domainerrors.ErrRecordNotFound
	}
	delete(s.records, key)
	return nil
}

func (s *Store) ListRecordsByEntity(_ context.Context, entityID string) ([]entities.EngagementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entityID = strings.TrimSpace(entityID)
	items := make([]entities.EngagementRecord, 0)
	for _, record := range s.records {
		if record.EntityID == entityID {
			items = append(items, record)
		}
	}
	sortRecords(items)
	return items, nil
}

func (s *Store) ListRecordsByActor(_ context.Context, entityID string, actorID string) ([]entities.EngagementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entityID = strings.TrimSpace(entityID)
	actorID = strings.TrimSpace(actorID)
	items := make([]entities.EngagementRecord, 0)
	for _, record := range s.records {
		if record.EntityID == entityID && record.ActorID == actorID {
			items = append(items, record)
		}
	}
	sortRecords(items)
	return items, nil
}

func (s *Store) CountsByEntity(_ context.Context, entityID string) (entities.AggregateCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entityID = strings.TrimSpace(entityID)
	records := make([]entities.EngagementRecord, 0)
	for _, record := range s.records {
		if record.EntityID == entityID {
			records = append(records, record)
		}
	}
	return entities.CountsFromRecords(records), nil
}

func (s *Store) AddComment(_ context.Context, comment entities.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(comment.EntityID)
	s.comments[key] = append(s.comments[key], comment)
	return nil
}

func (s *Store) ListCommentsByEntity(_ context.Context, entityID string) ([]entities.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := append([]entities.Comment(nil), s.comments[strings.TrimSpace(entityID)]...)
	return items, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope events.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrConflict
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func sortRecords(items []entities.EngagementRecord) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].RecordedAt.Before(items[j].RecordedAt)
	})
}

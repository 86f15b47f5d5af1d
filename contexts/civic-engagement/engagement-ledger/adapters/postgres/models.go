package postgresadapter

import (
	"time"

	"agora/contexts/civic-engagement/engagement-ledger/domain/entities"
)

type entityModel struct {
	ID          string       `gorm:"column:id;primaryKey"`
	Kind        string       `gorm:"column:kind;index"`
	Title       string       `gorm:"column:title"`
	Description string       `gorm:"column:description"`
	AuthorID    string       `gorm:"column:author_id"`
	Tags        []string     `gorm:"column:tags;serializer:json"`
	Status      string       `gorm:"column:status"`
	Goal        *int         `gorm:"column:goal"`
	Version     int64        `gorm:"column:version"`
	CreatedAt   time.Time    `gorm:"column:created_at"`
	UpdatedAt   time.Time    `gorm:"column:updated_at"`
}

func (entityModel) TableName() string { return "entities" }

func (m entityModel) toEntity() entities.Entity {
	return entities.Entity{
		EntityID:    m.ID,
		Kind:        entities.EntityKind(m.Kind),
		Title:       m.Title,
		Description: m.Description,
		AuthorID:    m.AuthorID,
		Tags:        m.Tags,
		Status:      entities.EntityStatus(m.Status),
		Goal:        m.Goal,
		Version:     m.Version,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func entityModelFromEntity(entity entities.Entity) entityModel {
	return entityModel{
		ID:          entity.EntityID,
		Kind:        string(entity.Kind),
		Title:       entity.Title,
		Description: entity.Description,
		AuthorID:    entity.AuthorID,
		Tags:        entity.Tags,
		Status:      string(entity.Status),
		Goal:        entity.Goal,
		Version:     entity.Version,
		CreatedAt:   entity.CreatedAt,
		UpdatedAt:   entity.UpdatedAt,
	}
}

// engagementRecordModel carries the composite uniqueness constraint on
// (entity_id, actor_id, exclusion_group): the storage-level backstop for the
// one-record-per-group invariant the use case enforces.
type engagementRecordModel struct {
	ID             string    `gorm:"column:id;primaryKey"`
	EntityID       string    `gorm:"column:entity_id;uniqueIndex:uq_engagement_identity"`
	ActorID        string    `gorm:"column:actor_id;uniqueIndex:uq_engagement_identity"`
	ExclusionGroup string    `gorm:"column:exclusion_group;uniqueIndex:uq_engagement_identity"`
	Action         string    `gorm:"column:action"`
	RecordedAt     time.Time `gorm:"column:recorded_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (engagementRecordModel) TableName() string { return "engagement_records" }

func (m engagementRecordModel) toEntity() entities.EngagementRecord {
	return entities.EngagementRecord{
		RecordID:   m.ID,
		EntityID:   m.EntityID,
		ActorID:    m.ActorID,
		Action:     entities.Action(m.Action),
		Group:      entities.ExclusionGroup(m.ExclusionGroup),
		RecordedAt: m.RecordedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func recordModelFromEntity(record entities.EngagementRecord) engagementRecordModel {
	return engagementRecordModel{
		ID:             record.RecordID,
		EntityID:       record.EntityID,
		ActorID:        record.ActorID,
		ExclusionGroup: string(record.Group),
		Action:         string(record.Action),
		RecordedAt:     record.RecordedAt,
		UpdatedAt:      record.UpdatedAt,
	}
}

type commentModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	EntityID  string    `gorm:"column:entity_id;index"`
	ActorID   string    `gorm:"column:actor_id"`
	Content   string    `gorm:"column:content"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (commentModel) TableName() string { return "entity_comments" }

type outboxModel struct {
	ID           string     `gorm:"column:id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string { return "engagement_outbox" }

func toRecordEntities(rows []engagementRecordModel) []entities.EngagementRecord {
	items := make([]entities.EngagementRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

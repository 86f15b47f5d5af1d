package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/civic-engagement/engagement-ledger/domain/entities"
	domainerrors "agora/contexts/civic-engagement/engagement-ledger/domain/errors"
	"agora/contexts/civic-engagement/engagement-ledger/ports"
	"agora/internal/shared/events"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateEntity(ctx context.Context, entity entities.Entity) error {
	row := entityModelFromEntity(entity)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("ledger_repo_create_entity_failed", err,
			"entity_id", strings.TrimSpace(entity.EntityID),
		)
	}
	return nil
}

func (r *Repository) GetEntity(ctx context.Context, entityID string) (entities.Entity, error) {
	var row entityModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(entityID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Entity{}, domainerrors.ErrEntityNotFound
		}
		return entities.Entity{}, r.logError("ledger_repo_get_entity_failed", err, "entity_id", strings.TrimSpace(entityID))
	}
	return row.toEntity(), nil
}

func (r *Repository) ListEntities(ctx context.Context, kind entities.EntityKind) ([]entities.Entity, error) {
	tx := r.db.WithContext(ctx).Model(&entityModel{})
	if kind != "" {
		tx = tx.Where("kind = ?", string(kind))
	}
	var rows []entityModel
	if err := tx.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_entities_failed", err, "kind", string(kind))
	}
	items := make([]entities.Entity, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// UpdateEntity is the optimistic write: the row is updated only when its
// stored version still matches expectedVersion. Zero rows affected with the
// row present means a concurrent writer advanced the version first.
func (r *Repository) UpdateEntity(ctx context.Context, entity entities.Entity, expectedVersion int64) (entities.Entity, error) {
	update := r.db.WithContext(ctx).
		Model(&entityModel{}).
		Where("id = ? AND version = ?", strings.TrimSpace(entity.EntityID), expectedVersion).
		Updates(map[string]any{
			"status":     string(entity.Status),
			"updated_at": entity.UpdatedAt,
			"version":    expectedVersion + 1,
		})
	if update.Error != nil {
		return entities.Entity{}, r.logError("ledger_repo_update_entity_failed", update.Error,
			"entity_id", strings.TrimSpace(entity.EntityID),
		)
	}
	if update.RowsAffected == 0 {
		if _, err := r.GetEntity(ctx, entity.EntityID); err != nil {
			return entities.Entity{}, err
		}
		return entities.Entity{}, domainerrors.ErrConflict
	}
	entity.Version = expectedVersion + 1
	return entity, nil
}

func (r *Repository) SaveRecord(ctx context.Context, record entities.EngagementRecord) error {
	row := recordModelFromEntity(record)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "entity_id"},
			{Name: "actor_id"},
			{Name: "exclusion_group"},
		},
		DoUpdates: clause.Assignments(map[string]any{
			"action":     row.Action,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrConflict
		}
		return r.logError("ledger_repo_save_record_failed", create.Error,
			"record_id", strings.TrimSpace(record.RecordID),
			"entity_id", strings.TrimSpace(record.EntityID),
			"actor_id", strings.TrimSpace(record.ActorID),
		)
	}
	return nil
}

func (r *Repository) GetRecordByGroup(
	ctx context.Context,
	entityID string,
	actorID string,
	group entities.ExclusionGroup,
) (entities.EngagementRecord, bool, error) {
	var row engagementRecordModel
	err := r.db.WithContext(ctx).
		Where("entity_id = ?", strings.TrimSpace(entityID)).
		Where("actor_id = ?", strings.TrimSpace(actorID)).
		Where("exclusion_group = ?", string(group)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.EngagementRecord{}, false, nil
		}
		return entities.EngagementRecord{}, false, r.logError("ledger_repo_get_record_failed", err,
			"entity_id", strings.TrimSpace(entityID),
			"actor_id", strings.TrimSpace(actorID),
			"group", string(group),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) DeleteRecord(ctx context.Context, entityID string, actorID string, group entities.ExclusionGroup) error {
	del := r.db.WithContext(ctx).
		Where("entity_id = ?", strings.TrimSpace(entityID)).
		Where("actor_id = ?", strings.TrimSpace(actorID)).
		Where("exclusion_group = ?", string(group)).
		Delete(&engagementRecordModel{})
	if del.Error != nil {
		return r.logError("ledger_repo_delete_record_failed", del.Error,
			"entity_id", strings.TrimSpace(entityID),
			"actor_id", strings.TrimSpace(actorID),
			"group", string(group),
		)
	}
	if del.RowsAffected == 0 {
		return domainerrors.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) ListRecordsByEntity(ctx context.Context, entityID string) ([]entities.EngagementRecord, error) {
	var rows []engagementRecordModel
	if err := r.db.WithContext(ctx).
		Where("entity_id = ?", strings.TrimSpace(entityID)).
		Order("recorded_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_records_failed", err,
			"entity_id", strings.TrimSpace(entityID),
		)
	}
	return toRecordEntities(rows), nil
}

func (r *Repository) ListRecordsByActor(ctx context.Context, entityID string, actorID string) ([]entities.EngagementRecord, error) {
	var rows []engagementRecordModel
	if err := r.db.WithContext(ctx).
		Where("entity_id = ?", strings.TrimSpace(entityID)).
		Where("actor_id = ?", strings.TrimSpace(actorID)).
		Order("recorded_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_actor_records_failed", err,
			"entity_id", strings.TrimSpace(entityID),
			"actor_id", strings.TrimSpace(actorID),
		)
	}
	return toRecordEntities(rows), nil
}

// CountsByEntity derives aggregates from ledger rows; no counter column
// exists anywhere in the schema.
func (r *Repository) CountsByEntity(ctx context.Context, entityID string) (entities.AggregateCounts, error) {
	type actionCount struct {
		Action string
		Total  int
	}
	var rows []actionCount
	err := r.db.WithContext(ctx).
		Model(&engagementRecordModel{}).
		Select("action, COUNT(*) AS total").
		Where("entity_id = ?", strings.TrimSpace(entityID)).
		Group("action").
		Scan(&rows).
		Error
	if err != nil {
		return entities.AggregateCounts{}, r.logError("ledger_repo_counts_failed", err,
			"entity_id", strings.TrimSpace(entityID),
		)
	}
	var counts entities.AggregateCounts
	for _, row := range rows {
		switch entities.Action(row.Action) {
		case entities.ActionUpvote:
			counts.Upvotes = row.Total
		case entities.ActionDownvote:
			counts.Downvotes = row.Total
		case entities.ActionSign:
			counts.Signatures = row.Total
		case entities.ActionLike:
			counts.Likes = row.Total
		}
	}
	return counts, nil
}

func (r *Repository) AddComment(ctx context.Context, comment entities.Comment) error {
	row := commentModel{
		ID:        comment.CommentID,
		EntityID:  comment.EntityID,
		ActorID:   comment.ActorID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("ledger_repo_add_comment_failed", err,
			"entity_id", strings.TrimSpace(comment.EntityID),
		)
	}
	return nil
}

func (r *Repository) ListCommentsByEntity(ctx context.Context, entityID string) ([]entities.Comment, error) {
	var rows []commentModel
	if err := r.db.WithContext(ctx).
		Where("entity_id = ?", strings.TrimSpace(entityID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_comments_failed", err,
			"entity_id", strings.TrimSpace(entityID),
		)
	}
	items := make([]entities.Comment, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.Comment{
			CommentID: row.ID,
			EntityID:  row.EntityID,
			ActorID:   row.ActorID,
			Content:   row.Content,
			CreatedAt: row.CreatedAt,
		})
	}
	return items, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope events.Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	row := outboxModel{
		ID:           outboxID,
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    createdAt,
	}
	// Replays of the same event id are no-ops.
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("ledger_repo_append_outbox_failed", create.Error,
			"outbox_id", outboxID,
			"event_type", row.EventType,
		)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_outbox_failed", err)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.ID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	update := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if update.Error != nil {
		return r.logError("ledger_repo_mark_outbox_failed", update.Error, "outbox_id", outboxID)
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

// SystemClock satisfies the Clock port with wall time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator satisfies the IDGenerator port.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "civic-engagement/engagement-ledger",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("engagement ledger repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "agora/contexts/civic-engagement/engagement-ledger/application"
	"agora/contexts/civic-engagement/engagement-ledger/domain/entities"
	domainerrors "agora/contexts/civic-engagement/engagement-ledger/domain/errors"
	"agora/contexts/civic-engagement/engagement-ledger/ports"
)

type CreateEntityCommand struct {
	Kind        entities.EntityKind
	Title       string
	Description string
	AuthorID    string
	Goal        *int
	Tags        []string
}

type AddCommentCommand struct {
	EntityID string
	ActorID  string
	Content  string
}

// CatalogUseCase owns the minimum entity lifecycle the ledger needs: creation
// and comments. Status changes beyond the goal transition are out of scope.
type CatalogUseCase struct {
	Entities    ports.EntityRepository
	Comments    ports.CommentRepository
	Locks       *application.EntityLocks
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	LockTimeout time.Duration
	Logger      *slog.Logger
}

func (uc CatalogUseCase) CreateEntity(ctx context.Context, cmd CreateEntityCommand) (entities.Entity, error) {
	logger := application.ResolveLogger(uc.Logger)
	title := strings.TrimSpace(cmd.Title)
	if title == "" || strings.TrimSpace(cmd.Description) == "" || !entities.ValidKind(cmd.Kind) {
		return entities.Entity{}, domainerrors.ErrInvalidInput
	}
	if cmd.Kind == entities.EntityKindPetition {
		if cmd.Goal == nil || *cmd.Goal < 1 {
			return entities.Entity{}, domainerrors.ErrInvalidInput
		}
	} else if cmd.Goal != nil {
		return entities.Entity{}, domainerrors.ErrInvalidInput
	}

	entityID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Entity{}, err
	}
	now := uc.now()
	entity := entities.Entity{
		EntityID:    entityID,
		Kind:        cmd.Kind,
		Title:       title,
		Description: strings.TrimSpace(cmd.Description),
		AuthorID:    strings.TrimSpace(cmd.AuthorID),
		Tags:        normalizeTags(cmd.Tags),
		Status:      entities.DefaultStatus(cmd.Kind),
		Goal:        cmd.Goal,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.Entities.CreateEntity(ctx, entity); err != nil {
		return entities.Entity{}, err
	}
	logger.Info("entity created",
		"event", "ledger_entity_created",
		"module", "civic-engagement/engagement-ledger",
		"layer", "application",
		"entity_id", entity.EntityID,
		"kind", string(entity.Kind),
	)
	return entity, nil
}

func (uc CatalogUseCase) AddComment(ctx context.Context, cmd AddCommentCommand) (entities.Comment, error) {
	entityID := strings.TrimSpace(cmd.EntityID)
	actorID := strings.TrimSpace(cmd.ActorID)
	content := strings.TrimSpace(cmd.Content)
	if entityID == "" || actorID == "" || content == "" {
		return entities.Comment{}, domainerrors.ErrInvalidInput
	}

	// Comments ride the same per-entity mutation path as engagement writes,
	// with the same bounded wait under contention.
	if uc.Locks != nil {
		lockCtx, cancel := context.WithTimeout(ctx, uc.lockTimeout())
		release, err := uc.Locks.Acquire(lockCtx, entityID)
		cancel()
		if err != nil {
			return entities.Comment{}, err
		}
		defer release()
	}

	if _, err := uc.Entities.GetEntity(ctx, entityID); err != nil {
		return entities.Comment{}, err
	}
	commentID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Comment{}, err
	}
	comment := entities.Comment{
		CommentID: commentID,
		EntityID:  entityID,
		ActorID:   actorID,
		Content:   content,
		CreatedAt: uc.now(),
	}
	if err := uc.Comments.AddComment(ctx, comment); err != nil {
		return entities.Comment{}, err
	}
	return comment, nil
}

func (uc CatalogUseCase) lockTimeout() time.Duration {
	if uc.LockTimeout <= 0 {
		return 2 * time.Second
	}
	return uc.LockTimeout
}

func (uc CatalogUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

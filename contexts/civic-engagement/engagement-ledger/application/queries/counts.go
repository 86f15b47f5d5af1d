package queries

import (
	"context"
	"strings"

	"agora/contexts/civic-engagement/engagement-ledger/domain/entities"
	domainerrors "agora/contexts/civic-engagement/engagement-ledger/domain/errors"
	"agora/contexts/civic-engagement/engagement-ledger/ports"
)

// CountsUseCase serves the read side. Counts are always recomputed from the
// ledger; readers may run concurrently with writers and observe either the
// pre- or post-mutation snapshot, never a partially applied one.
type CountsUseCase struct {
	Entities ports.EntityRepository
	Ledger   ports.LedgerRepository
	Comments ports.CommentRepository
}

// EntityEngagement pairs an entity with its derived counts.
type EntityEngagement struct {
	Entity entities.Entity
	Counts entities.AggregateCounts
}

func (uc CountsUseCase) GetAggregateCounts(ctx context.Context, entityID string) (entities.AggregateCounts, error) {
	entityID = strings.TrimSpace(entityID)
	if entityID == "" {
		return entities.AggregateCounts{}, domainerrors.ErrInvalidInput
	}
	if _, err := uc.Entities.GetEntity(ctx, entityID); err != nil {
		return entities.AggregateCounts{}, err
	}
	return uc.Ledger.CountsByEntity(ctx, entityID)
}

func (uc CountsUseCase) GetEntity(ctx context.Context, entityID string) (EntityEngagement, error) {
	entityID = strings.TrimSpace(entityID)
	if entityID == "" {
		return EntityEngagement{}, domainerrors.ErrInvalidInput
	}
	entity, err := uc.Entities.GetEntity(ctx, entityID)
	if err != nil {
		return EntityEngagement{}, err
	}
	counts, err := uc.Ledger.CountsByEntity(ctx, entityID)
	if err != nil {
		return EntityEngagement{}, err
	}
	return EntityEngagement{Entity: entity, Counts: counts}, nil
}

// ListEntities returns entities of one kind, or all kinds when kind is empty.
func (uc CountsUseCase) ListEntities(ctx context.Context, kind entities.EntityKind) ([]EntityEngagement, error) {
	if kind != "" && !entities.ValidKind(kind) {
		return nil, domainerrors.ErrInvalidInput
	}
	items, err := uc.Entities.ListEntities(ctx, kind)
	if err != nil {
		return nil, err
	}
	out := make([]EntityEngagement, 0, len(items))
	for _, entity := range items {
		counts, err := uc.Ledger.CountsByEntity(ctx, entity.EntityID)
		if err != nil {
			return nil, err
		}
		out = append(out, EntityEngagement{Entity: entity, Counts: counts})
	}
	return out, nil
}

// GetActorEngagement reports which actions the actor currently holds on the
// entity, one per exclusion group.
func (uc CountsUseCase) GetActorEngagement(ctx context.Context, entityID string, actorID string) ([]entities.EngagementRecord, error) {
	entityID = strings.TrimSpace(entityID)
	actorID = strings.TrimSpace(actorID)
	if entityID == "" || actorID == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	if _, err := uc.Entities.GetEntity(ctx, entityID); err != nil {
		return nil, err
	}
	return uc.Ledger.ListRecordsByActor(ctx, entityID, actorID)
}

func (uc CountsUseCase) ListComments(ctx context.Context, entityID string) ([]entities.Comment, error) {
	entityID = strings.TrimSpace(entityID)
	if entityID == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	if _, err := uc.Entities.GetEntity(ctx, entityID); err != nil {
		return nil, err
	}
	return uc.Comments.ListCommentsByEntity(ctx, entityID)
}

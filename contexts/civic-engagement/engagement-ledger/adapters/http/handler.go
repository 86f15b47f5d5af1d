package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"agora/contexts/civic-engagement/engagement-ledger/application/commands"
	"agora/contexts/civic-engagement/engagement-ledger/application/queries"
	"agora/contexts/civic-engagement/engagement-ledger/domain/entities"
	httptransport "agora/contexts/civic-engagement/engagement-ledger/transport/http"
)

type Handler struct {
	Engagement commands.EngagementUseCase
	Catalog    commands.CatalogUseCase
	Counts     queries.CountsUseCase
	Logger     *slog.Logger
}

// CreateEntityHandler godoc
// @Summary Create a civic entity
// @Description Creates an issue, petition (with signature goal), or forum post.
// @Tags engagement-ledger
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Acting user id"
// @Param request body httptransport.CreateEntityRequest true "Entity payload"
// @Success 201 {object} httptransport.EntityResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Router /api/entities [post]
func (h Handler) CreateEntityHandler(
	ctx context.Context,
	actorID string,
	req httptransport.CreateEntityRequest,
) (httptransport.EntityResponse, error) {
	entity, err := h.Catalog.CreateEntity(ctx, commands.CreateEntityCommand{
		Kind:        entities.EntityKind(req.Kind),
		Title:       req.Title,
		Description: req.Description,
		AuthorID:    actorID,
		Goal:        req.Goal,
		Tags:        req.Tags,
	})
	if err != nil {
		return httptransport.EntityResponse{}, err
	}
	return mapEntity(entity, entities.AggregateCounts{}), nil
}

// GetEntityHandler godoc
// @Summary Get one entity
// @Description Returns the entity with aggregate counts derived from the ledger.
// @Tags engagement-ledger
// @Produce json
// @Param entity_id path string true "Entity id"
// @Success 200 {object} httptransport.EntityResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/entities/{entity_id} [get]
func (h Handler) GetEntityHandler(ctx context.Context, entityID string) (httptransport.EntityResponse, error) {
	engagement, err := h.Counts.GetEntity(ctx, entityID)
	if err != nil {
		return httptransport.EntityResponse{}, err
	}
	return mapEntity(engagement.Entity, engagement.Counts), nil
}

// ListEntitiesHandler godoc
// @Summary List entities
// @Description Lists entities, optionally filtered by kind.
// @Tags engagement-ledger
// @Produce json
// @Param kind query string false "Entity kind: issue, petition, forum_post"
// @Success 200 {object} httptransport.EntityListResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /api/entities [get]
func (h Handler) ListEntitiesHandler(ctx context.Context, kind string) (httptransport.EntityListResponse, error) {
	items, err := h.Counts.ListEntities(ctx, entities.EntityKind(kind))
	if err != nil {
		return httptransport.EntityListResponse{}, err
	}
	out := make([]httptransport.EntityResponse, 0, len(items))
	for _, item := range items {
		out = append(out, mapEntity(item.Entity, item.Counts))
	}
	return httptransport.EntityListResponse{Items: out}, nil
}

// RecordActionHandler godoc
// @Summary Record an engagement action
// @Description Applies one action for the acting user; opposite votes switch in place, repeats are rejected.
// @Tags engagement-ledger
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Acting user id"
// @Param entity_id path string true "Entity id"
// @Param request body httptransport.RecordActionRequest true "Action: upvote, downvote, sign, like"
// @Success 200 {object} httptransport.RecordActionResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /api/entities/{entity_id}/engagement [post]
func (h Handler) RecordActionHandler(
	ctx context.Context,
	entityID string,
	actorID string,
	action string,
) (httptransport.RecordActionResponse, error) {
	result, err := h.Engagement.RecordAction(ctx, commands.RecordActionCommand{
		EntityID: entityID,
		ActorID:  actorID,
		Action:   entities.Action(action),
	})
	if err != nil {
		return httptransport.RecordActionResponse{}, err
	}
	return httptransport.RecordActionResponse{
		Entity:           mapEntity(result.Entity, result.Counts),
		Counts:           mapCounts(result.Counts),
		Switched:         result.Switched,
		ThresholdCrossed: result.ThresholdCrossed,
	}, nil
}

// RetractActionHandler godoc
// @Summary Retract an engagement action
// @Description Removes the acting user's record for one exclusion group.
// @Tags engagement-ledger
// @Produce json
// @Param X-User-Id header string true "Acting user id"
// @Param entity_id path string true "Entity id"
// @Param group path string true "Exclusion group: vote, signature, like"
// @Success 200 {object} httptransport.RecordActionResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/entities/{entity_id}/engagement/{group} [delete]
func (h Handler) RetractActionHandler(
	ctx context.Context,
	entityID string,
	actorID string,
	group string,
) (httptransport.RecordActionResponse, error) {
	result, err := h.Engagement.RetractAction(ctx, commands.RetractActionCommand{
		EntityID: entityID,
		ActorID:  actorID,
		Group:    entities.ExclusionGroup(group),
	})
	if err != nil {
		return httptransport.RecordActionResponse{}, err
	}
	return httptransport.RecordActionResponse{
		Entity: mapEntity(result.Entity, result.Counts),
		Counts: mapCounts(result.Counts),
	}, nil
}

// CountsHandler godoc
// @Summary Get aggregate counts
// @Description Returns counts recomputed from the engagement ledger.
// @Tags engagement-ledger
// @Produce json
// @Param entity_id path string true "Entity id"
// @Success 200 {object} httptransport.CountsResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/entities/{entity_id}/counts [get]
func (h Handler) CountsHandler(ctx context.Context, entityID string) (httptransport.CountsResponse, error) {
	counts, err := h.Counts.GetAggregateCounts(ctx, entityID)
	if err != nil {
		return httptransport.CountsResponse{}, err
	}
	return mapCounts(counts), nil
}

// ActorEngagementHandler godoc
// @Summary List the acting user's engagement
// @Description Returns the records the acting user currently holds on the entity, one per exclusion group.
// @Tags engagement-ledger
// @Produce json
// @Param X-User-Id header string true "Acting user id"
// @Param entity_id path string true "Entity id"
// @Success 200 {object} httptransport.ActorEngagementResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/entities/{entity_id}/engagement [get]
func (h Handler) ActorEngagementHandler(
	ctx context.Context,
	entityID string,
	actorID string,
) (httptransport.ActorEngagementResponse, error) {
	records, err := h.Counts.GetActorEngagement(ctx, entityID, actorID)
	if err != nil {
		return httptransport.ActorEngagementResponse{}, err
	}
	items := make([]httptransport.ActorEngagementItem, 0, len(records))
	for _, record := range records {
		items = append(items, httptransport.ActorEngagementItem{
			Action:     string(record.Action),
			Group:      string(record.Group),
			RecordedAt: record.RecordedAt.Format(time.RFC3339),
		})
	}
	return httptransport.ActorEngagementResponse{
		EntityID: entityID,
		ActorID:  actorID,
		Items:    items,
	}, nil
}

// AddCommentHandler godoc
// @Summary Add a comment
// @Description Adds a comment to an existing entity.
// @Tags engagement-ledger
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Acting user id"
// @Param entity_id path string true "Entity id"
// @Param request body httptransport.AddCommentRequest true "Comment payload"
// @Success 201 {object} httptransport.CommentResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/entities/{entity_id}/comments [post]
func (h Handler) AddCommentHandler(
	ctx context.Context,
	entityID string,
	actorID string,
	req httptransport.AddCommentRequest,
) (httptransport.CommentResponse, error) {
	comment, err := h.Catalog.AddComment(ctx, commands.AddCommentCommand{
		EntityID: entityID,
		ActorID:  actorID,
		Content:  req.Content,
	})
	if err != nil {
		return httptransport.CommentResponse{}, err
	}
	return mapComment(comment), nil
}

// ListCommentsHandler godoc
// @Summary List comments
// @Description Returns the comments on an entity.
// @Tags engagement-ledger
// @Produce json
// @Param entity_id path string true "Entity id"
// @Success 200 {object} httptransport.CommentListResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/entities/{entity_id}/comments [get]
func (h Handler) ListCommentsHandler(ctx context.Context, entityID string) (httptransport.CommentListResponse, error) {
	comments, err := h.Counts.ListComments(ctx, entityID)
	if err != nil {
		return httptransport.CommentListResponse{}, err
	}
	items := make([]httptransport.CommentResponse, 0, len(comments))
	for _, comment := range comments {
		items = append(items, mapComment(comment))
	}
	return httptransport.CommentListResponse{Items: items}, nil
}

func mapEntity(entity entities.Entity, counts entities.AggregateCounts) httptransport.EntityResponse {
	return httptransport.EntityResponse{
		EntityID:    entity.EntityID,
		Kind:        string(entity.Kind),
		Title:       entity.Title,
		Description: entity.Description,
		AuthorID:    entity.AuthorID,
		Tags:        entity.Tags,
		Status:      string(entity.Status),
		Goal:        entity.Goal,
		Version:     entity.Version,
		Counts:      mapCounts(counts),
	}
}

func mapCounts(counts entities.AggregateCounts) httptransport.CountsResponse {
	return httptransport.CountsResponse{
		Upvotes:    counts.Upvotes,
		Downvotes:  counts.Downvotes,
		Signatures: counts.Signatures,
		Likes:      counts.Likes,
	}
}

func mapComment(comment entities.Comment) httptransport.CommentResponse {
	return httptransport.CommentResponse{
		CommentID: comment.CommentID,
		EntityID:  comment.EntityID,
		ActorID:   comment.ActorID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt.Format(time.RFC3339),
	}
}

package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "agora/contexts/civic-engagement/engagement-ledger/application"
	"agora/contexts/civic-engagement/engagement-ledger/domain/entities"
	domainerrors "agora/contexts/civic-engagement/engagement-ledger/domain/errors"
	"agora/contexts/civic-engagement/engagement-ledger/ports"
)

// RecordActionCommand is the write-model input for all engagement actions.
type RecordActionCommand struct {
	EntityID string
	ActorID  string
	Action   entities.Action
}

// RecordActionResult carries the post-mutation entity and the aggregate
// counts derived from the ledger in the same serialized unit.
type RecordActionResult struct {
	Entity           entities.Entity
	Counts           entities.AggregateCounts
	Switched         bool
	ThresholdCrossed bool
}

// RetractActionCommand removes the actor's record for one exclusion group.
type RetractActionCommand struct {
	EntityID string
	ActorID  string
	Group    entities.ExclusionGroup
}

// RetractActionResult mirrors RecordActionResult for the retract path.
type RetractActionResult struct {
	Entity entities.Entity
	Counts entities.AggregateCounts
}

// EngagementUseCase orchestrates the engagement ledger: per-actor cardinality
// and mutual-exclusion enforcement, ledger-derived aggregates, and the
// exactly-once goal transition. All mutations for one entity run under that
// entity's lock, so {ledger write, recompute, threshold check, status write}
// is indivisible relative to any other mutation on the same entity.
type EngagementUseCase struct {
	Entities        ports.EntityRepository
	Ledger          ports.LedgerRepository
	Outbox          ports.OutboxWriter
	Locks           *application.EntityLocks
	Clock           ports.Clock
	IDGen           ports.IDGenerator
	LockTimeout     time.Duration
	ConflictRetries int
	RetryBackoff    time.Duration
	Logger          *slog.Logger
}

// RecordAction applies one action for (entity, actor).
//
// Pairwise group (upvote/downvote): an opposite-action record is replaced in
// place; repeating the held action fails with ErrDuplicateAction. Singleton
// groups (sign, like) fail with ErrDuplicateAction on any repeat. A
// successful sign re-derives the signature count and fires the active ->
// achieved transition when the goal is reached.
func (uc EngagementUseCase) RecordAction(ctx context.Context, cmd RecordActionCommand) (RecordActionResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	entityID := strings.TrimSpace(cmd.EntityID)
	actorID := strings.TrimSpace(cmd.ActorID)
	if entityID == "" || actorID == "" || !entities.ValidAction(cmd.Action) {
		logger.Warn("record action validation failed",
			"event", "ledger_record_action_validation_failed",
			"module", "civic-engagement/engagement-ledger",
			"layer", "application",
			"entity_id", entityID,
			"actor_id", actorID,
			"action", string(cmd.Action),
		)
		return RecordActionResult{}, domainerrors.ErrInvalidInput
	}

	release, err := uc.acquire(ctx, entityID)
	if err != nil {
		logger.Warn("record action could not acquire entity lock",
			"event", "ledger_record_action_lock_timeout",
			"module", "civic-engagement/engagement-ledger",
			"layer", "application",
			"entity_id", entityID,
			"actor_id", actorID,
		)
		return RecordActionResult{}, err
	}
	defer release()

	// Once the mutation path is held the sequence must complete in full; a
	// caller abandoning the request must not strand the ledger ahead of the
	// threshold check.
	mutationCtx := context.WithoutCancel(ctx)

	entity, err := uc.Entities.GetEntity(mutationCtx, entityID)
	if err != nil {
		return RecordActionResult{}, err
	}
	if !cmd.Action.AllowedForKind(entity.Kind) {
		return RecordActionResult{}, domainerrors.ErrActionNotAllowed
	}

	now := uc.now()
	group := cmd.Action.Group()
	record, found, err := uc.Ledger.GetRecordByGroup(mutationCtx, entityID, actorID, group)
	if err != nil {
		return RecordActionResult{}, err
	}

	switched := false
	if found {
		if record.Action == cmd.Action {
			return RecordActionResult{}, domainerrors.ErrDuplicateAction
		}
		// Only the pairwise vote group has an alternative to switch to.
		if _, hasOpposite := cmd.Action.Opposite(); !hasOpposite {
			return RecordActionResult{}, domainerrors.ErrDuplicateAction
		}
		record.Action = cmd.Action
		record.UpdatedAt = now
		switched = true
	} else {
		recordID, idErr := uc.IDGen.NewID(mutationCtx)
		if idErr != nil {
			return RecordActionResult{}, idErr
		}
		record = entities.EngagementRecord{
			RecordID:   recordID,
			EntityID:   entityID,
			ActorID:    actorID,
			Action:     cmd.Action,
			Group:      group,
			RecordedAt: now,
			UpdatedAt:  now,
		}
	}
	if err := uc.Ledger.SaveRecord(mutationCtx, record); err != nil {
		return RecordActionResult{}, err
	}

	counts, err := uc.Ledger.CountsByEntity(mutationCtx, entityID)
	if err != nil {
		return RecordActionResult{}, err
	}

	entity, crossed, err := uc.applyThreshold(mutationCtx, entity, counts)
	if err != nil {
		return RecordActionResult{}, err
	}

	if err := uc.appendActionEvent(mutationCtx, "engagement.action_recorded", entity, record, counts, now, map[string]any{
		"switched": switched,
	}); err != nil {
		return RecordActionResult{}, err
	}
	if crossed {
		if err := uc.appendThresholdEvent(mutationCtx, entity, counts, now); err != nil {
			return RecordActionResult{}, err
		}
		logger.Info("threshold crossed",
			"event", "ledger_threshold_crossed",
			"module", "civic-engagement/engagement-ledger",
			"layer", "application",
			"entity_id", entity.EntityID,
			"kind", string(entity.Kind),
			"signatures", counts.Signatures,
		)
	}

	logger.Info("action recorded",
		"event", "ledger_action_recorded",
		"module", "civic-engagement/engagement-ledger",
		"layer", "application",
		"entity_id", entity.EntityID,
		"actor_id", actorID,
		"action", string(cmd.Action),
		"group", string(group),
		"switched", switched,
	)
	return RecordActionResult{
		Entity:           entity,
		Counts:           counts,
		Switched:         switched,
		ThresholdCrossed: crossed,
	}, nil
}

// RetractAction removes the actor's active record for the given group. The
// ledger keeps records through normal operation; retraction is the one
// explicit removal the product offers.
func (uc EngagementUseCase) RetractAction(ctx context.Context, cmd RetractActionCommand) (RetractActionResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	entityID := strings.TrimSpace(cmd.EntityID)
	actorID := strings.TrimSpace(cmd.ActorID)
	if entityID == "" || actorID == "" || !entities.ValidGroup(cmd.Group) {
		return RetractActionResult{}, domainerrors.ErrInvalidInput
	}

	release, err := uc.acquire(ctx, entityID)
	if err != nil {
		return RetractActionResult{}, err
	}
	defer release()

	mutationCtx := context.WithoutCancel(ctx)

	entity, err := uc.Entities.GetEntity(mutationCtx, entityID)
	if err != nil {
		return RetractActionResult{}, err
	}

	record, found, err := uc.Ledger.GetRecordByGroup(mutationCtx, entityID, actorID, cmd.Group)
	if err != nil {
		return RetractActionResult{}, err
	}
	if !found {
		return RetractActionResult{}, domainerrors.ErrRecordNotFound
	}
	if err := uc.Ledger.DeleteRecord(mutationCtx, entityID, actorID, cmd.Group); err != nil {
		return RetractActionResult{}, err
	}

	counts, err := uc.Ledger.CountsByEntity(mutationCtx, entityID)
	if err != nil {
		return RetractActionResult{}, err
	}

	now := uc.now()
	if err := uc.appendActionEvent(mutationCtx, "engagement.action_retracted", entity, record, counts, now, nil); err != nil {
		return RetractActionResult{}, err
	}

	logger.Info("action retracted",
		"event", "ledger_action_retracted",
		"module", "civic-engagement/engagement-ledger",
		"layer", "application",
		"entity_id", entityID,
		"actor_id", actorID,
		"group", string(cmd.Group),
	)
	return RetractActionResult{Entity: entity, Counts: counts}, nil
}

// applyThreshold runs the read-evaluate-write cycle for the status
// transition. The version-conditional write is defense-in-depth against
// out-of-band entity writers; under contention the cycle retries whole,
// up to the configured budget, before surfacing ErrConflict.
func (uc EngagementUseCase) applyThreshold(
	ctx context.Context,
	entity entities.Entity,
	counts entities.AggregateCounts,
) (entities.Entity, bool, error) {
	attempts := uc.retryBudget()
	for attempt := 1; ; attempt++ {
		updated, crossed := entities.EvaluateThreshold(entity, counts)
		if !crossed {
			return entity, false, nil
		}
		updated.UpdatedAt = uc.now()
		persisted, err := uc.Entities.UpdateEntity(ctx, updated, entity.Version)
		if err == nil {
			return persisted, true, nil
		}
		if !errors.Is(err, domainerrors.ErrConflict) {
			return entities.Entity{}, false, err
		}
		if attempt >= attempts {
			application.ResolveLogger(uc.Logger).Error("threshold write conflict budget exhausted",
				"event", "ledger_threshold_conflict_exhausted",
				"module", "civic-engagement/engagement-ledger",
				"layer", "application",
				"entity_id", entity.EntityID,
				"attempts", attempt,
			)
			return entities.Entity{}, false, domainerrors.ErrConflict
		}
		time.Sleep(uc.backoff() * time.Duration(attempt))
		entity, err = uc.Entities.GetEntity(ctx, entity.EntityID)
		if err != nil {
			return entities.Entity{}, false, err
		}
	}
}

func (uc EngagementUseCase) acquire(ctx context.Context, entityID string) (func(), error) {
	if uc.Locks == nil {
		return func() {}, nil
	}
	lockCtx, cancel := context.WithTimeout(ctx, uc.lockTimeout())
	defer cancel()
	return uc.Locks.Acquire(lockCtx, entityID)
}

func (uc EngagementUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}

func (uc EngagementUseCase) lockTimeout() time.Duration {
	if uc.LockTimeout <= 0 {
		return 2 * time.Second
	}
	return uc.LockTimeout
}

func (uc EngagementUseCase) retryBudget() int {
	if uc.ConflictRetries <= 0 {
		return 5
	}
	return uc.ConflictRetries
}

func (uc EngagementUseCase) backoff() time.Duration {
	if uc.RetryBackoff <= 0 {
		return 25 * time.Millisecond
	}
	return uc.RetryBackoff
}

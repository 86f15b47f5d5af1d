package entities

import "time"

type EntityKind string

const (
	EntityKindIssue     EntityKind = "issue"
	EntityKindPetition  EntityKind = "petition"
	EntityKindForumPost EntityKind = "forum_post"
)

type EntityStatus string

const (
	EntityStatusOpen       EntityStatus = "open"
	EntityStatusInProgress EntityStatus = "in_progress"
	EntityStatusResolved   EntityStatus = "resolved"
	EntityStatusClosed     EntityStatus = "closed"

	EntityStatusActive   EntityStatus = "active"
	EntityStatusAchieved EntityStatus = "achieved"

	EntityStatusPublished EntityStatus = "published"
)

// statusOrder fixes the forward-only transition table per kind. A status may
// only move to a status with a strictly greater rank; it never regresses.
var statusOrder = map[EntityKind][]EntityStatus{
	EntityKindIssue: {
		EntityStatusOpen,
		EntityStatusInProgress,
		EntityStatusResolved,
		EntityStatusClosed,
	},
	EntityKindPetition: {
		EntityStatusActive,
		EntityStatusAchieved,
	},
	EntityKindForumPost: {
		EntityStatusPublished,
	},
}

func ValidKind(kind EntityKind) bool {
	_, ok := statusOrder[kind]
	return ok
}

// DefaultStatus is the status a freshly created entity starts in.
func DefaultStatus(kind EntityKind) EntityStatus {
	order, ok := statusOrder[kind]
	if !ok || len(order) == 0 {
		return ""
	}
	return order[0]
}

func statusRank(kind EntityKind, status EntityStatus) int {
	for i, candidate := range statusOrder[kind] {
		if candidate == status {
			return i
		}
	}
	return -1
}

// CanTransition reports whether status may move forward from -> to for the
// given kind. Unknown statuses and regressions are rejected.
func CanTransition(kind EntityKind, from EntityStatus, to EntityStatus) bool {
	fromRank := statusRank(kind, from)
	toRank := statusRank(kind, to)
	if fromRank < 0 || toRank < 0 {
		return false
	}
	return toRank > fromRank
}

type Entity struct {
	EntityID    string
	Kind        EntityKind
	Title       string
	Description string
	AuthorID    string
	Tags        []string
	Status      EntityStatus
	Goal        *int
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Action string

const (
	ActionUpvote   Action = "upvote"
	ActionDownvote Action = "downvote"
	ActionSign     Action = "sign"
	ActionLike     Action = "like"
)

// ExclusionGroup names the set of actions an actor may hold at most one of
// per entity. Upvote/Downvote share the vote group; sign and like stand alone.
type ExclusionGroup string

const (
	GroupVote      ExclusionGroup = "vote"
	GroupSignature ExclusionGroup = "signature"
	GroupLike      ExclusionGroup = "like"
)

func ValidAction(action Action) bool {
	switch action {
	case ActionUpvote, ActionDownvote, ActionSign, ActionLike:
		return true
	default:
		return false
	}
}

func ValidGroup(group ExclusionGroup) bool {
	switch group {
	case GroupVote, GroupSignature, GroupLike:
		return true
	default:
		return false
	}
}

func (a Action) Group() ExclusionGroup {
	switch a {
	case ActionUpvote, ActionDownvote:
		return GroupVote
	case ActionSign:
		return GroupSignature
	case ActionLike:
		return GroupLike
	default:
		return ""
	}
}

// Opposite returns the action an actor switches away from inside a pairwise
// exclusion group. Singleton-group actions have no opposite.
func (a Action) Opposite() (Action, bool) {
	switch a {
	case ActionUpvote:
		return ActionDownvote, true
	case ActionDownvote:
		return ActionUpvote, true
	default:
		return "", false
	}
}

// AllowedForKind mirrors which engagement each entity kind accepts:
// issues take votes, petitions take signatures, forum posts take likes.
func (a Action) AllowedForKind(kind EntityKind) bool {
	switch kind {
	case EntityKindIssue:
		return a == ActionUpvote || a == ActionDownvote
	case EntityKindPetition:
		return a == ActionSign
	case EntityKindForumPost:
		return a == ActionLike
	default:
		return false
	}
}

type EngagementRecord struct {
	RecordID   string
	EntityID   string
	ActorID    string
	Action     Action
	Group      ExclusionGroup
	RecordedAt time.Time
	UpdatedAt  time.Time
}

// AggregateCounts is a read view derived from the ledger. It is never stored
// as an independently mutated counter.
type AggregateCounts struct {
	Upvotes    int
	Downvotes  int
	Signatures int
	Likes      int
}

func CountsFromRecords(records []EngagementRecord) AggregateCounts {
	var counts AggregateCounts
	for _, record := range records {
		switch record.Action {
		case ActionUpvote:
			counts.Upvotes++
		case ActionDownvote:
			counts.Downvotes++
		case ActionSign:
			counts.Signatures++
		case ActionLike:
			counts.Likes++
		}
	}
	return counts
}

// EvaluateThreshold applies the goal transition and reports whether it fired.
// The transition is active -> achieved only; once achieved, further
// signatures keep recording but no second transition occurs.
func EvaluateThreshold(entity Entity, counts AggregateCounts) (Entity, bool) {
	if entity.Goal == nil {
		return entity, false
	}
	if entity.Status != EntityStatusActive {
		return entity, false
	}
	if counts.Signatures < *entity.Goal {
		return entity, false
	}
	entity.Status = EntityStatusAchieved
	return entity, true
}

type Comment struct {
	CommentID string
	EntityID  string
	ActorID   string
	Content   string
	CreatedAt time.Time
}

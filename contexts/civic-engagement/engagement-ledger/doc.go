// Package engagementledger implements the engagement ledger and threshold
// transition engine inside the civic-engagement context.
//
// The module records votes, petition signatures, and forum-post likes as
// engagement records (one per actor and mutual-exclusion group), derives
// aggregate counts from those records, and drives the petition goal
// transition exactly once under concurrent load. Mutations for one entity
// are serialized by a per-entity lock; the entity status write is
// additionally guarded by an optimistic version check. Business rules live
// in application/domain layers; infrastructure stays behind ports/adapters.
package engagementledger

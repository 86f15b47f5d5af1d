package events

import (
	"encoding/json"
	"time"
)

// Envelope is the canonical event shape shared by every Agora module.
// Outbox rows persist the marshalled envelope; the bus delivers it as-is.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	SourceService string          `json:"source_service"`
	OccurredAt    time.Time       `json:"occurred_at"`
	TraceID       string          `json:"trace_id"`
	SchemaVersion int             `json:"schema_version"`
	PartitionKey  string          `json:"partition_key"`
	Data          json.RawMessage `json:"data"`
}

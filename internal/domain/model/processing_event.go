package model

import "time"

type EventKind string

const (
	EventIngestion        EventKind = "ingestion"
	EventAnalysisStart    EventKind = "analysis_start"
	EventAnalysisComplete EventKind = "analysis_complete"
	EventCacheHit         EventKind = "cache_hit"
	EventPrefilterSkip    EventKind = "prefilter_skip"
	EventError            EventKind = "error"
)

type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusError   EventStatus = "error"
	EventStatusSkipped EventStatus = "skipped"
)

// ProcessingEvent is one append-only audit record. Never mutated after
// creation. IDs are ULIDs so the audit trail sorts by creation time.
type ProcessingEvent struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation_id,omitempty"`
	Kind           EventKind   `json:"kind"`
	Status         EventStatus `json:"status"`
	Detail         string      `json:"detail,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

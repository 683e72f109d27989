package model

import "time"

// Conversation is a submitted text record. Immutable once created; the
// pipeline only reads it by ID.
type Conversation struct {
	ID         string         `json:"id"`
	ExternalID string         `json:"external_id,omitempty"`
	ThreadID   string         `json:"thread_id,omitempty"`
	Text       string         `json:"text"`
	Raw        map[string]any `json:"raw,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

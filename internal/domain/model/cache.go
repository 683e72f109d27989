package model

import "time"

// AnalysisCacheEntry maps a SHA-256 digest of exact conversation text to the
// insight produced for it. Entries are unique per hash and never overwritten;
// subsequent matches only bump HitCount.
type AnalysisCacheEntry struct {
	ID        string    `json:"id"`
	TextHash  string    `json:"text_hash"`
	InsightID string    `json:"insight_id"`
	HitCount  int64     `json:"hit_count"`
	CreatedAt time.Time `json:"created_at"`
}

package models

import "time"

// TimestampLayout matches JavaScript's Date.toISOString output.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FeedingEntry is one recorded feeding. Entries are never updated.
type FeedingEntry struct {
	ID        string `bson:"-" json:"id"`
	Timestamp string `bson:"timestamp" json:"timestamp"`
}

// NewFeedingEntry builds an entry stamped with t in UTC. The id is assigned by the store.
func NewFeedingEntry(t time.Time) FeedingEntry {
	return FeedingEntry{Timestamp: t.UTC().Format(TimestampLayout)}
}

// Snapshot is the full result set of the live feedings query.
type Snapshot struct {
	Version uint64         `json:"version"`
	TakenAt time.Time      `json:"taken_at"` // when the store answered the query
	Entries []FeedingEntry `json:"entries"`
}

package view

import (
	"time"

	"github.com/AnshRaj112/karmnik-backend/internal/models"
)

// Row is one feeding as displayed.
type Row struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Label     string `json:"label"`
}

// Page is the state of the feeder page.
type Page struct {
	Loading bool  `json:"loading"`
	Empty   bool  `json:"empty"`
	Last    *Row  `json:"last,omitempty"`
	History []Row `json:"history"`
}

// BuildPage derives the page from a snapshot. loaded is false until the first
// snapshot arrives.
func BuildPage(snap models.Snapshot, loaded bool, f Formatter) Page {
	if !loaded {
		return Page{Loading: true, History: []Row{}}
	}

	page := Page{History: make([]Row, 0, len(snap.Entries))}
	var last *models.FeedingEntry
	var lastAt time.Time
	for i := range snap.Entries {
		e := snap.Entries[i]
		page.History = append(page.History, Row{ID: e.ID, Timestamp: e.Timestamp, Label: f.Format(e.Timestamp)})

		at, err := time.Parse(time.RFC3339Nano, e.Timestamp)
		if err != nil {
			continue
		}
		if last == nil || at.After(lastAt) {
			last, lastAt = &snap.Entries[i], at
		}
	}

	if len(page.History) == 0 {
		page.Empty = true
		return page
	}
	if last == nil {
		// Nothing parsed; trust the query order.
		last = &snap.Entries[0]
	}
	page.Last = &Row{ID: last.ID, Timestamp: last.Timestamp, Label: f.Format(last.Timestamp)}
	return page
}

package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AnshRaj112/karmnik-backend/internal/logger"
	"github.com/AnshRaj112/karmnik-backend/internal/models"
	"github.com/AnshRaj112/karmnik-backend/internal/store"
)

const hubQueryTimeout = 5 * time.Second

// FeedingHub runs the live feedings query and pushes every result set to its subscribers.
type FeedingHub struct {
	store     store.Store
	refresh   chan struct{}
	refreshMu sync.Mutex // one query at a time, so an older result never overwrites a newer one

	mu       sync.RWMutex
	subs     map[string]*Subscription
	snapshot models.Snapshot
	loaded   bool
}

// Subscription receives full snapshots until Close is called.
type Subscription struct {
	ID string

	hub    *FeedingHub
	ch     chan models.Snapshot
	closed bool // guarded by hub.mu
}

func NewFeedingHub(s store.Store) *FeedingHub {
	return &FeedingHub{
		store:   s,
		refresh: make(chan struct{}, 1),
		subs:    make(map[string]*Subscription),
	}
}

// Run loads the first snapshot and then re-queries on every Invalidate until ctx is done.
func (h *FeedingHub) Run(ctx context.Context) {
	h.reload(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.refresh:
			h.reload(ctx)
		}
	}
}

// Invalidate asks for a refresh. Requests made while one is pending are merged.
func (h *FeedingHub) Invalidate() {
	select {
	case h.refresh <- struct{}{}:
	default:
	}
}

// Refresh queries the store synchronously and broadcasts the result.
func (h *FeedingHub) Refresh(ctx context.Context) error {
	h.refreshMu.Lock()
	defer h.refreshMu.Unlock()

	qctx, cancel := context.WithTimeout(ctx, hubQueryTimeout)
	defer cancel()

	entries, err := h.store.List(qctx)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.snapshot = models.Snapshot{
		Version: h.snapshot.Version + 1,
		TakenAt: time.Now().UTC(),
		Entries: entries,
	}
	h.loaded = true

	for _, sub := range h.subs {
		sub.offer(h.snapshot)
	}
	logger.Debug("feedings snapshot published", "module", "hub", "version", h.snapshot.Version,
		"entries", len(entries), "subscribers", len(h.subs))
	return nil
}

func (h *FeedingHub) reload(ctx context.Context) {
	if err := h.Refresh(ctx); err != nil && ctx.Err() == nil {
		// Viewers keep the previous snapshot.
		logger.Error("feedings query failed", "module", "hub", "error", err)
	}
}

// Current returns the latest snapshot and whether one has been loaded yet.
func (h *FeedingHub) Current() (models.Snapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snapshot, h.loaded
}

// Subscribe registers a listener. It receives the current snapshot right away when one exists.
func (h *FeedingHub) Subscribe() *Subscription {
	sub := &Subscription{
		ID:  uuid.New().String(),
		hub: h,
		ch:  make(chan models.Snapshot, 1),
	}

	h.mu.Lock()
	h.subs[sub.ID] = sub
	if h.loaded {
		sub.offer(h.snapshot)
	}
	count := len(h.subs)
	h.mu.Unlock()

	logger.Debug("feedings subscriber added", "module", "hub", "id", sub.ID, "subscribers", count)
	return sub
}

// Subscribers reports how many listeners are registered.
func (h *FeedingHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Events yields snapshots. The channel is closed by Close.
func (s *Subscription) Events() <-chan models.Snapshot {
	return s.ch
}

// Close releases the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	h := s.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	delete(h.subs, s.ID)
	close(s.ch)
}

// offer delivers snap, replacing an undelivered older one. Caller holds hub.mu.
func (s *Subscription) offer(snap models.Snapshot) {
	if s.closed {
		return
	}
	select {
	case s.ch <- snap:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- snap
}

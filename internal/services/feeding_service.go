package services

import (
	"context"
	"fmt"
	"time"

	"github.com/AnshRaj112/karmnik-backend/internal/logger"
	"github.com/AnshRaj112/karmnik-backend/internal/models"
	"github.com/AnshRaj112/karmnik-backend/internal/store"
)

// DeletePrompt is shown to the user before an entry is removed.
const DeletePrompt = "Czy na pewno chcesz usunąć ten wpis? Zniknie u wszystkich."

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// FeedingService implements the write side. It never touches the hub's
// snapshot; viewers learn about writes through the notifier.
type FeedingService struct {
	store    store.Store
	notifier Notifier
	fallback Invalidator
	now      func() time.Time
}

// NewFeedingService wires the write side. fallback is invalidated directly
// when the notifier fails; it may be nil.
func NewFeedingService(s store.Store, n Notifier, fallback Invalidator) *FeedingService {
	return &FeedingService{store: s, notifier: n, fallback: fallback, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (s *FeedingService) WithClock(now func() time.Time) *FeedingService {
	s.now = now
	return s
}

// Feed records a feeding at the current instant.
func (s *FeedingService) Feed(ctx context.Context) (models.FeedingEntry, error) {
	entry, err := s.store.Insert(ctx, models.NewFeedingEntry(s.now()))
	if err != nil {
		logger.Error("feeding insert failed", "module", "feedings", "action", "create", "error", err)
		return models.FeedingEntry{}, fmt.Errorf("record feeding: %w", err)
	}

	logger.Info("feeding recorded", "module", "feedings", "action", "create", "id", entry.ID, "timestamp", entry.Timestamp)
	s.changed(ctx)
	return entry, nil
}

// Delete removes id once c confirms. It reports whether the deletion was confirmed.
func (s *FeedingService) Delete(ctx context.Context, id string, c Confirmer) (bool, error) {
	if c == nil || !c.Confirm(DeletePrompt) {
		logger.Debug("feeding delete declined", "module", "feedings", "action", "delete", "id", id)
		return false, nil
	}

	if err := s.store.Delete(ctx, id); err != nil {
		logger.Error("feeding delete failed", "module", "feedings", "action", "delete", "id", id, "error", err)
		return true, fmt.Errorf("delete feeding: %w", err)
	}

	logger.Info("feeding deleted", "module", "feedings", "action", "delete", "id", id)
	s.changed(ctx)
	return true, nil
}

func (s *FeedingService) changed(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyChanged(ctx); err != nil {
		logger.Warn("change notification failed", "module", "feedings", "error", err)
		if s.fallback != nil {
			s.fallback.Invalidate()
		}
	}
}

package services

import (
	"context"
	"time"

	"github.com/AnshRaj112/karmnik-backend/internal/logger"
	"github.com/AnshRaj112/karmnik-backend/internal/store"
)

// StartStoreWatcher follows changes made to the collection outside this
// process and invalidates target on each one. The watch is restarted with
// backoff when it fails.
func StartStoreWatcher(ctx context.Context, w store.Watcher, target Invalidator) {
	go func() {
		backoff := time.Second
		for {
			started := time.Now()
			err := w.Watch(ctx, target.Invalidate)
			if ctx.Err() != nil {
				return
			}
			if time.Since(started) > time.Minute {
				backoff = time.Second
			}
			logger.Warn("store watcher stopped", "module", "watcher", "error", err, "retry_in", backoff.String())

			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			// Whatever happened while we were away.
			target.Invalidate()

			backoff *= 2
			if backoff > 30*time.Second {
				backoff = 30 * time.Second
			}
		}
	}()
}

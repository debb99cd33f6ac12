// Package store holds the document collection that backs the feedings list.
package store

import (
	"context"
	"errors"

	"github.com/AnshRaj112/karmnik-backend/internal/models"
)

//go:generate mockgen -destination=mock/mock_store.go -package=mock github.com/AnshRaj112/karmnik-backend/internal/store Store

// CollectionName is the name of the feedings collection (or table).
const CollectionName = "feedings"

var ErrInvalidID = errors.New("invalid feeding id")

// Store is the feedings collection. List is ordered by timestamp descending.
// Delete of an unknown id is not an error.
type Store interface {
	Insert(ctx context.Context, entry models.FeedingEntry) (models.FeedingEntry, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.FeedingEntry, error)
}

// Watcher is implemented by stores that can report changes made by other processes.
// Watch blocks until ctx is done or the underlying feed fails.
type Watcher interface {
	Watch(ctx context.Context, onChange func()) error
}

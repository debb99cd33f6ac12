package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/AnshRaj112/karmnik-backend/internal/database"
	"github.com/AnshRaj112/karmnik-backend/internal/logger"
	"github.com/AnshRaj112/karmnik-backend/internal/models"
)

// PostgresStore keeps feedings in the feedings table.
type PostgresStore struct {
	db  *sql.DB
	uri string // needed for the dedicated LISTEN connection
}

func NewPostgresStore(db *sql.DB, uri string) *PostgresStore {
	return &PostgresStore{db: db, uri: uri}
}

func (s *PostgresStore) Insert(ctx context.Context, entry models.FeedingEntry) (models.FeedingEntry, error) {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO feedings (timestamp) VALUES ($1) RETURNING id`,
		entry.Timestamp,
	).Scan(&entry.ID)
	if err != nil {
		return models.FeedingEntry{}, fmt.Errorf("insert feeding: %w", err)
	}
	return entry, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return ErrInvalidID
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM feedings WHERE id = $1`, parsed); err != nil {
		return fmt.Errorf("delete feeding %s: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.FeedingEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, timestamp FROM feedings ORDER BY timestamp DESC`)
	if err != nil {
		return nil, fmt.Errorf("list feedings: %w", err)
	}
	defer rows.Close()

	entries := make([]models.FeedingEntry, 0)
	for rows.Next() {
		var e models.FeedingEntry
		if err := rows.Scan(&e.ID, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan feeding: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list feedings: %w", err)
	}
	return entries, nil
}

// Watch listens on the feedings_changed channel filled by the table trigger.
func (s *PostgresStore) Watch(ctx context.Context, onChange func()) error {
	listener := pq.NewListener(s.uri, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("postgres listener event", "module", "store", "event", int(ev), "error", err)
		}
	})
	defer listener.Close()

	if err := listener.Listen(database.FeedingsChannel); err != nil {
		return fmt.Errorf("listen %s: %w", database.FeedingsChannel, err)
	}

	ticker := time.NewTicker(90 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-listener.Notify:
			// A nil notification follows a reconnect; changes may have been missed, so refresh anyway.
			onChange()
		case <-ticker.C:
			go listener.Ping()
		}
	}
}

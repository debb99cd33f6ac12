package store_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/karmnik-backend/internal/store"
)

// Malformed ids are rejected before any round trip, so no server is needed.

func TestMongoStore_DeleteInvalidID(t *testing.T) {
	ctx := context.Background()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI("mongodb://127.0.0.1:1"))
	require.NoError(t, err)
	defer client.Disconnect(ctx)

	s := store.NewMongoStore(client.Database("karmnik_test"))
	require.ErrorIs(t, s.Delete(ctx, ""), store.ErrInvalidID)
	require.ErrorIs(t, s.Delete(ctx, "  "), store.ErrInvalidID)
}

func TestPostgresStore_DeleteInvalidID(t *testing.T) {
	uri := "postgres://127.0.0.1:1/karmnik?sslmode=disable"
	db, err := sql.Open("postgres", uri)
	require.NoError(t, err)
	defer db.Close()

	s := store.NewPostgresStore(db, uri)
	require.ErrorIs(t, s.Delete(context.Background(), "123"), store.ErrInvalidID)
}

var (
	_ store.Store   = (*store.MongoStore)(nil)
	_ store.Watcher = (*store.MongoStore)(nil)
	_ store.Store   = (*store.PostgresStore)(nil)
	_ store.Watcher = (*store.PostgresStore)(nil)
	_ store.Store   = (*store.MemoryStore)(nil)
)

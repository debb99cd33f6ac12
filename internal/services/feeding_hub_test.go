package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/AnshRaj112/karmnik-backend/internal/models"
	"github.com/AnshRaj112/karmnik-backend/internal/services"
	"github.com/AnshRaj112/karmnik-backend/internal/store"
	"github.com/AnshRaj112/karmnik-backend/internal/store/mock"
)

// waitFor reads snapshots until ok accepts one.
func waitFor(t *testing.T, sub *services.Subscription, ok func(models.Snapshot) bool) models.Snapshot {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case snap, open := <-sub.Events():
			require.True(t, open, "subscription closed")
			if ok(snap) {
				return snap
			}
		case <-timeout:
			t.Fatal("timed out waiting for snapshot")
		}
	}
}

func startHub(t *testing.T, s store.Store) (*services.FeedingHub, *services.FeedingService) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := services.NewFeedingHub(s)
	go hub.Run(ctx)
	svc := services.NewFeedingService(s, services.NewLocalNotifier(hub), hub)
	return hub, svc
}

var yes = services.ConfirmFunc(func(string) bool { return true })
var no = services.ConfirmFunc(func(string) bool { return false })

func TestFeedingHub_FirstSnapshotMarksLoaded(t *testing.T) {
	hub := services.NewFeedingHub(store.NewMemoryStore())

	_, loaded := hub.Current()
	require.False(t, loaded)

	require.NoError(t, hub.Refresh(context.Background()))
	snap, loaded := hub.Current()
	require.True(t, loaded)
	require.Empty(t, snap.Entries)
	require.Equal(t, uint64(1), snap.Version)
}

func TestFeedingHub_SubscribeGetsCurrentSnapshot(t *testing.T) {
	s := store.NewMemoryStore()
	_, err := s.Insert(context.Background(), models.FeedingEntry{Timestamp: "2024-03-01T08:00:00.000Z"})
	require.NoError(t, err)

	hub := services.NewFeedingHub(s)
	require.NoError(t, hub.Refresh(context.Background()))

	sub := hub.Subscribe()
	defer sub.Close()

	snap := waitFor(t, sub, func(models.Snapshot) bool { return true })
	require.Len(t, snap.Entries, 1)
}

func TestFeedingHub_CreatedEntryAppearsOnTop(t *testing.T) {
	s := store.NewMemoryStore()
	_, err := s.Insert(context.Background(), models.FeedingEntry{Timestamp: "2020-01-01T00:00:00.000Z"})
	require.NoError(t, err)

	hub, svc := startHub(t, s)
	sub := hub.Subscribe()
	defer sub.Close()

	waitFor(t, sub, func(snap models.Snapshot) bool { return len(snap.Entries) == 1 })

	created, err := svc.Feed(context.Background())
	require.NoError(t, err)

	snap := waitFor(t, sub, func(snap models.Snapshot) bool { return len(snap.Entries) == 2 })
	require.Equal(t, created.ID, snap.Entries[0].ID)
}

func TestFeedingHub_ConfirmedDeleteDoesNotReappear(t *testing.T) {
	s := store.NewMemoryStore()
	hub, svc := startHub(t, s)
	sub := hub.Subscribe()
	defer sub.Close()

	first, err := svc.Feed(context.Background())
	require.NoError(t, err)
	second, err := svc.Feed(context.Background())
	require.NoError(t, err)
	waitFor(t, sub, func(snap models.Snapshot) bool { return len(snap.Entries) == 2 })

	confirmed, err := svc.Delete(context.Background(), first.ID, yes)
	require.NoError(t, err)
	require.True(t, confirmed)

	snap := waitFor(t, sub, func(snap models.Snapshot) bool { return len(snap.Entries) == 1 })
	require.Equal(t, second.ID, snap.Entries[0].ID)

	// A later, unrelated refresh must not bring it back.
	hub.Invalidate()
	require.NoError(t, hub.Refresh(context.Background()))
	current, _ := hub.Current()
	for _, e := range current.Entries {
		require.NotEqual(t, first.ID, e.ID)
	}
}

func TestFeedingHub_DeclinedDeleteLeavesListUnchanged(t *testing.T) {
	s := store.NewMemoryStore()
	hub, svc := startHub(t, s)

	entry, err := svc.Feed(context.Background())
	require.NoError(t, err)
	require.NoError(t, hub.Refresh(context.Background()))
	before, _ := hub.Current()

	confirmed, err := svc.Delete(context.Background(), entry.ID, no)
	require.NoError(t, err)
	require.False(t, confirmed)

	require.NoError(t, hub.Refresh(context.Background()))
	after, _ := hub.Current()
	require.Equal(t, before.Entries, after.Entries)
}

func TestFeedingHub_SlowSubscriberSeesNewest(t *testing.T) {
	s := store.NewMemoryStore()
	hub := services.NewFeedingHub(s)
	sub := hub.Subscribe()
	defer sub.Close()

	for i := 0; i < 3; i++ {
		_, err := s.Insert(context.Background(), models.NewFeedingEntry(time.Now().Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
		require.NoError(t, hub.Refresh(context.Background()))
	}

	snap := <-sub.Events()
	require.Equal(t, uint64(3), snap.Version)
	require.Len(t, snap.Entries, 3)
	require.Empty(t, sub.Events())
}

func TestFeedingHub_CloseReleasesSubscription(t *testing.T) {
	hub := services.NewFeedingHub(store.NewMemoryStore())
	sub := hub.Subscribe()
	require.Equal(t, 1, hub.Subscribers())

	sub.Close()
	sub.Close()
	require.Equal(t, 0, hub.Subscribers())

	_, open := <-sub.Events()
	require.False(t, open)

	// Broadcasting after close must not panic.
	require.NoError(t, hub.Refresh(context.Background()))
}

func TestFeedingHub_QueryFailureKeepsPreviousSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := mock.NewMockStore(ctrl)
	entries := []models.FeedingEntry{{ID: "a", Timestamp: "2024-03-01T08:00:00.000Z"}}
	gomock.InOrder(
		mockStore.EXPECT().List(gomock.Any()).Return(entries, nil),
		mockStore.EXPECT().List(gomock.Any()).Return(nil, errors.New("connection reset")),
	)

	hub := services.NewFeedingHub(mockStore)
	require.NoError(t, hub.Refresh(context.Background()))
	require.Error(t, hub.Refresh(context.Background()))

	snap, loaded := hub.Current()
	require.True(t, loaded)
	require.Equal(t, entries, snap.Entries)
	require.Equal(t, uint64(1), snap.Version)
}

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
	"github.com/AnshRaj112/karmnik-backend/internal/store/mock"
)

type countingNotifier struct {
	calls int
	err   error
}

func (n *countingNotifier) NotifyChanged(context.Context) error {
	n.calls++
	return n.err
}

type countingInvalidator struct{ calls int }

func (i *countingInvalidator) Invalidate() { i.calls++ }

var fixedNow = time.Date(2024, 10, 18, 12, 5, 9, 123456789, time.FixedZone("CEST", 2*60*60))

func TestFeedingService_Feed_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := mock.NewMockStore(ctrl)
	notifier := &countingNotifier{}
	svc := services.NewFeedingService(mockStore, notifier, nil).WithClock(func() time.Time { return fixedNow })
	ctx := context.Background()

	mockStore.EXPECT().
		Insert(ctx, models.FeedingEntry{Timestamp: "2024-10-18T10:05:09.123Z"}).
		Return(models.FeedingEntry{ID: "abc", Timestamp: "2024-10-18T10:05:09.123Z"}, nil)

	entry, err := svc.Feed(ctx)
	require.NoError(t, err)
	require.Equal(t, "abc", entry.ID)
	require.Equal(t, 1, notifier.calls)
}

func TestFeedingService_Feed_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := mock.NewMockStore(ctrl)
	notifier := &countingNotifier{}
	svc := services.NewFeedingService(mockStore, notifier, nil)
	storeErr := errors.New("write concern timeout")

	mockStore.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(models.FeedingEntry{}, storeErr)

	_, err := svc.Feed(context.Background())
	require.ErrorIs(t, err, storeErr)
	require.Zero(t, notifier.calls)
}

func TestFeedingService_Feed_NotifyFailureFallsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := mock.NewMockStore(ctrl)
	notifier := &countingNotifier{err: errors.New("redis down")}
	fallback := &countingInvalidator{}
	svc := services.NewFeedingService(mockStore, notifier, fallback)

	mockStore.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(models.FeedingEntry{ID: "x"}, nil)

	_, err := svc.Feed(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, fallback.calls)
}

func TestFeedingService_Delete_Declined(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := mock.NewMockStore(ctrl)
	notifier := &countingNotifier{}
	svc := services.NewFeedingService(mockStore, notifier, nil)

	var asked string
	confirmed, err := svc.Delete(context.Background(), "abc", services.ConfirmFunc(func(p string) bool {
		asked = p
		return false
	}))
	require.NoError(t, err)
	require.False(t, confirmed)
	require.Equal(t, services.DeletePrompt, asked)
	require.Zero(t, notifier.calls)
}

func TestFeedingService_Delete_NilConfirmerDeclines(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := services.NewFeedingService(mock.NewMockStore(ctrl), nil, nil)
	confirmed, err := svc.Delete(context.Background(), "abc", nil)
	require.NoError(t, err)
	require.False(t, confirmed)
}

func TestFeedingService_Delete_Confirmed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := mock.NewMockStore(ctrl)
	notifier := &countingNotifier{}
	svc := services.NewFeedingService(mockStore, notifier, nil)
	ctx := context.Background()

	mockStore.EXPECT().Delete(ctx, "abc").Return(nil)

	confirmed, err := svc.Delete(ctx, "abc", yes)
	require.NoError(t, err)
	require.True(t, confirmed)
	require.Equal(t, 1, notifier.calls)
}

func TestFeedingService_Delete_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := mock.NewMockStore(ctrl)
	notifier := &countingNotifier{}
	svc := services.NewFeedingService(mockStore, notifier, nil)
	storeErr := errors.New("not primary")

	mockStore.EXPECT().Delete(gomock.Any(), "abc").Return(storeErr)

	confirmed, err := svc.Delete(context.Background(), "abc", yes)
	require.True(t, confirmed)
	require.ErrorIs(t, err, storeErr)
	require.Zero(t, notifier.calls)
}

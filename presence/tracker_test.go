package presence

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"whisper-bridge/contract"
	"whisper-bridge/domain"
	"whisper-bridge/mocks"
	"whisper-bridge/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	return NewTracker(repositories.NewBadgerStore(db, log), log)
}

func TestTracker_Heartbeat_Then_Refresh(t *testing.T) {
	req := require.New(t)
	tracker := newTestTracker(t)
	ctx := context.Background()

	req.NoError(tracker.Heartbeat(ctx, "trip", "Alice", "en"))

	online, err := tracker.Refresh(ctx, "trip")
	req.NoError(err)
	req.Len(online, 1)
	req.Equal("Alice", online[0].UserName)
	req.Equal("en", online[0].Language)
	req.True(online[0].Online)
}

func TestTracker_Duplicate_Heartbeat_Keeps_One_Record(t *testing.T) {
	req := require.New(t)
	tracker := newTestTracker(t)
	ctx := context.Background()

	req.NoError(tracker.Heartbeat(ctx, "trip", "Alice", "en"))
	req.NoError(tracker.Heartbeat(ctx, "trip", "Alice", "fr"))

	online, err := tracker.Refresh(ctx, "trip")
	req.NoError(err)
	req.Len(online, 1)
	// Last write wins on duplicate join.
	req.Equal("fr", online[0].Language)
}

func TestTracker_Refresh_Expires_Stale_Records(t *testing.T) {
	req := require.New(t)
	tracker := newTestTracker(t)
	ctx := context.Background()

	base := time.Now().UTC()
	tracker.now = func() time.Time { return base }
	req.NoError(tracker.Heartbeat(ctx, "trip", "Alice", "en"))
	req.NoError(tracker.Heartbeat(ctx, "trip", "Bob", "es"))

	// Bob stays silent past the liveness window, Alice heartbeats again.
	tracker.now = func() time.Time { return base.Add(domain.LivenessWindow + time.Second) }
	req.NoError(tracker.Heartbeat(ctx, "trip", "Alice", "en"))

	online, err := tracker.Refresh(ctx, "trip")
	req.NoError(err)
	req.Len(online, 1)
	req.Equal("Alice", online[0].UserName)

	// Expiry is monotone: a second refresh still excludes Bob.
	online, err = tracker.Refresh(ctx, "trip")
	req.NoError(err)
	req.Len(online, 1)
	req.Equal("Alice", online[0].UserName)
}

func TestTracker_Expiry_Loses_To_Concurrent_Heartbeat(t *testing.T) {
	req := require.New(t)
	tracker := newTestTracker(t)
	ctx := context.Background()

	base := time.Now().UTC()
	tracker.now = func() time.Time { return base }
	req.NoError(tracker.Heartbeat(ctx, "trip", "Alice", "en"))

	// The record looks stale at refresh time, but a heartbeat lands before
	// the offline write: the re-read must see the fresh last_seen and keep
	// Alice online.
	refreshAt := base.Add(domain.LivenessWindow + time.Second)
	tracker.now = func() time.Time { return refreshAt }
	req.NoError(tracker.Heartbeat(ctx, "trip", "Alice", "en"))

	online, err := tracker.Refresh(ctx, "trip")
	req.NoError(err)
	req.Len(online, 1)
	req.Equal("Alice", online[0].UserName)
}

func TestTracker_Refresh_Unknown_Group(t *testing.T) {
	req := require.New(t)
	tracker := newTestTracker(t)

	online, err := tracker.Refresh(context.Background(), "nowhere")
	req.NoError(err)
	req.Empty(online)
}

func TestTracker_MarkOffline_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	tracker := newTestTracker(t)
	ctx := context.Background()

	req.NoError(tracker.Heartbeat(ctx, "trip", "Alice", "en"))
	req.NoError(tracker.MarkOffline(ctx, "trip", "Alice"))
	req.NoError(tracker.MarkOffline(ctx, "trip", "Alice"))
	// Unknown users are not an error either.
	req.NoError(tracker.MarkOffline(ctx, "trip", "Ghost"))

	online, err := tracker.Refresh(ctx, "trip")
	req.NoError(err)
	req.Empty(online)
}

func TestTracker_Refresh_Surfaces_Store_Errors(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockRecordStore(ctrl)
	store.EXPECT().
		Filter(gomock.Any(), contract.EntityPresence, gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("store down"))

	tracker := NewTracker(store, slog.Default())
	_, err := tracker.Refresh(context.Background(), "trip")
	req.Error(err)
	req.Contains(err.Error(), "store down")
}

func TestDistinctLanguages(t *testing.T) {
	req := require.New(t)
	users := []domain.Presence{
		{UserName: "Alice", Language: "en"},
		{UserName: "Bob", Language: "es"},
		{UserName: "Clara", Language: "es"},
		{UserName: "Dan", Language: ""},
	}
	req.ElementsMatch([]string{"es"}, DistinctLanguages(users, "en"))
	req.ElementsMatch([]string{"en", "es"}, DistinctLanguages(users, "fr"))
	req.Empty(DistinctLanguages(nil, "en"))
}

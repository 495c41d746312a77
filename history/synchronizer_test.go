package history

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"whisper-bridge/domain"
	"whisper-bridge/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func newTestSynchronizer(t *testing.T) *Synchronizer {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	log := slog.Default()
	return NewSynchronizer(repositories.NewBadgerStore(db, log), nil, log)
}

func testMessage(group, sender, text string, at time.Time) domain.Message {
	return domain.Message{
		GroupName:      group,
		SenderName:     sender,
		SenderLanguage: "en",
		OriginalText:   text,
		Translations:   map[string]string{"es": text + " (es)"},
		SentAt:         at,
	}
}

func Test_Append_Then_Refresh_RoundTrip(t *testing.T) {
	req := require.New(t)
	sync := newTestSynchronizer(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	first := testMessage("trip", "Alice", "first", base)
	second := testMessage("trip", "Bob", "second", base.Add(time.Minute))

	// Append out of chronological order; refresh must sort by timestamp.
	storedSecond, err := sync.Append(ctx, second)
	req.NoError(err)
	storedFirst, err := sync.Append(ctx, first)
	req.NoError(err)
	req.NotEmpty(storedFirst.ID)
	req.NotEqual(storedFirst.ID, storedSecond.ID)

	messages, err := sync.Refresh(ctx, "trip", 0)
	req.NoError(err)
	req.Len(messages, 2)

	got := messages[0]
	req.Equal(storedFirst.ID, got.ID)
	req.Equal(first.SenderName, got.SenderName)
	req.Equal(first.SenderLanguage, got.SenderLanguage)
	req.Equal(first.OriginalText, got.OriginalText)
	req.Equal(first.Translations, got.Translations)
	req.True(first.SentAt.Equal(got.SentAt))
	req.Equal("second", messages[1].OriginalText)
}

func Test_Refresh_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	sync := newTestSynchronizer(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	for i, text := range []string{"one", "two", "three"} {
		_, err := sync.Append(ctx, testMessage("trip", "Alice", text, base.Add(time.Duration(i)*time.Minute)))
		req.NoError(err)
	}

	first, err := sync.Refresh(ctx, "trip", 0)
	req.NoError(err)
	again, err := sync.Refresh(ctx, "trip", 0)
	req.NoError(err)
	req.Equal(first, again)
}

func Test_Refresh_Empty_Group(t *testing.T) {
	req := require.New(t)
	sync := newTestSynchronizer(t)

	messages, err := sync.Refresh(context.Background(), "nowhere", 0)
	req.NoError(err)
	req.Empty(messages)
}

func Test_Refresh_Window_Keeps_Most_Recent(t *testing.T) {
	req := require.New(t)
	sync := newTestSynchronizer(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	for i, text := range []string{"one", "two", "three", "four", "five"} {
		_, err := sync.Append(ctx, testMessage("trip", "Alice", text, base.Add(time.Duration(i)*time.Minute)))
		req.NoError(err)
	}

	messages, err := sync.Refresh(ctx, "trip", 3)
	req.NoError(err)
	req.Len(messages, 3)
	// The window holds the latest messages, oldest first.
	req.Equal("three", messages[0].OriginalText)
	req.Equal("five", messages[2].OriginalText)
}

func Test_Append_Without_Translations(t *testing.T) {
	req := require.New(t)
	sync := newTestSynchronizer(t)
	ctx := context.Background()

	msg := testMessage("trip", "Alice", "solo", time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC))
	msg.Translations = map[string]string{}

	stored, err := sync.Append(ctx, msg)
	req.NoError(err)
	req.NotEmpty(stored.ID)

	messages, err := sync.Refresh(ctx, "trip", 0)
	req.NoError(err)
	req.Len(messages, 1)
	req.Empty(messages[0].Translations)
}

package workers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"whisper-bridge/domain"
	"whisper-bridge/history"
	"whisper-bridge/mocks"
	"whisper-bridge/presence"
	"whisper-bridge/repositories"
	"whisper-bridge/session"
	"whisper-bridge/translate"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestReconcilerWorker_Picks_Up_Remote_Messages(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	store := repositories.NewBadgerStore(db, log)
	tracker := presence.NewTracker(store, log)
	synchronizer := history.NewSynchronizer(store, nil, log)
	dispatcher := translate.NewDispatcher(mocks.NewMockTranslator(ctrl), log)

	coordinator := session.NewCoordinator(log, tracker, synchronizer, dispatcher)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req.NoError(coordinator.Join(ctx, domain.JoinRequest{UserName: "Alice", GroupName: "trip", Language: "en"}))
	req.Empty(coordinator.Messages())

	worker := NewReconcilerWorker(coordinator, 10*time.Millisecond, log)
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	// Another participant writes straight to the store.
	_, err = synchronizer.Append(ctx, domain.Message{
		GroupName:      "trip",
		SenderName:     "Bob",
		SenderLanguage: "es",
		OriginalText:   "Hola",
		SentAt:         time.Now().UTC(),
	})
	req.NoError(err)

	req.Eventually(func() bool {
		return len(coordinator.Messages()) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		req.ErrorIs(err, context.Canceled)
	case <-time.After(time.Second):
		req.Fail("worker should stop on context cancellation")
	}
}

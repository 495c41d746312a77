// Package session owns the active session lifecycle and drives the
// periodic reconciliation of presence and message state.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"whisper-bridge/contract"
	"whisper-bridge/domain"
	"whisper-bridge/domain/event"
	"whisper-bridge/errors"
	"whisper-bridge/history"
	"whisper-bridge/moderation"
	"whisper-bridge/presence"
	"whisper-bridge/translate"
)

// Coordinator is the state machine over the session lifecycle:
// Disconnected -> Join -> Active -> Leave -> Disconnected.
//
// One coordinator serves one logical session. The reconciler worker and
// the application may call it concurrently, so cached state sits behind a
// mutex; the store itself is the source of truth for write serialization.
type Coordinator struct {
	log        *slog.Logger
	presence   *presence.Tracker
	history    *history.Synchronizer
	dispatcher *translate.Dispatcher
	censor     moderation.Moderator
	sinks      []contract.EventSink
	now        func() time.Time

	mu        sync.Mutex
	session   *domain.Session
	epoch     uint64
	messages  []domain.Message
	users     []domain.Presence
	connected bool
}

func NewCoordinator(log *slog.Logger, tracker *presence.Tracker,
	synchronizer *history.Synchronizer, dispatcher *translate.Dispatcher) *Coordinator {
	return &Coordinator{
		log:        log,
		presence:   tracker,
		history:    synchronizer,
		dispatcher: dispatcher,
		now:        time.Now,
		connected:  true,
	}
}

// WithCensor enables outbound word masking.
func (c *Coordinator) WithCensor(m moderation.Moderator) *Coordinator {
	c.censor = m
	return c
}

// AddSinks registers consumers of reconciliation events.
func (c *Coordinator) AddSinks(sinks ...contract.EventSink) *Coordinator {
	c.sinks = append(c.sinks, sinks...)
	return c
}

// Join validates the identity, announces presence and loads the initial
// view. A store failure surfaces synchronously: the coordinator never
// enters Active with an empty history it could not actually load.
// Joining while Active is an implicit Leave followed by Join.
func (c *Coordinator) Join(ctx context.Context, req domain.JoinRequest) error {
	sess, err := domain.ValidateJoin(req)
	if err != nil {
		return err
	}

	if _, active := c.Session(); active {
		if err := c.Leave(ctx); err != nil {
			c.log.Warn("Implicit leave before re-join failed", "err", err)
		}
	}

	if err := c.presence.Heartbeat(ctx, sess.GroupName, sess.UserName, sess.Language); err != nil {
		c.log.Warn("Initial heartbeat failed", "group", sess.GroupName, "err", err)
	}
	messages, err := c.history.Refresh(ctx, sess.GroupName, 0)
	if err != nil {
		return fmt.Errorf("joining %s: %w", sess.GroupName, err)
	}
	users, err := c.presence.Refresh(ctx, sess.GroupName)
	if err != nil {
		return fmt.Errorf("joining %s: %w", sess.GroupName, err)
	}

	c.mu.Lock()
	c.session = &sess
	c.epoch++
	c.messages = messages
	c.users = users
	c.connected = true
	c.mu.Unlock()

	c.log.Info("Joined group", "group", sess.GroupName, "user", sess.UserName, "language", sess.Language)
	c.emit(ctx,
		event.PresenceChanged{GroupName: sess.GroupName, Users: users},
		event.MessagesRefreshed{GroupName: sess.GroupName, Messages: messages},
	)
	return nil
}

// Reconcile runs one cycle: heartbeat, presence refresh, message refresh.
// The caller schedules it on a fixed period and must not overlap calls;
// the body is strictly sequential so a slow store stretches the tick
// instead of racing it. Results computed for a session that left while
// the cycle was in flight are discarded.
func (c *Coordinator) Reconcile(ctx context.Context) error {
	sess, epoch, active := c.snapshot()
	if !active {
		return nil
	}

	if err := c.presence.Heartbeat(ctx, sess.GroupName, sess.UserName, sess.Language); err != nil {
		// A single missed heartbeat is non-fatal; presence is best-effort.
		c.log.Warn("Heartbeat failed", "group", sess.GroupName, "err", err)
	}

	users, err := c.presence.Refresh(ctx, sess.GroupName)
	if err != nil {
		c.setConnected(ctx, false)
		return fmt.Errorf("reconciling %s: %w", sess.GroupName, err)
	}
	messages, err := c.history.Refresh(ctx, sess.GroupName, 0)
	if err != nil {
		c.setConnected(ctx, false)
		return fmt.Errorf("reconciling %s: %w", sess.GroupName, err)
	}

	c.mu.Lock()
	if c.session == nil || c.epoch != epoch {
		c.mu.Unlock()
		c.log.Debug("Discarding stale reconciliation results", "group", sess.GroupName)
		return nil
	}
	c.users = users
	c.messages = messages
	c.mu.Unlock()

	c.setConnected(ctx, true)
	c.emit(ctx,
		event.PresenceChanged{GroupName: sess.GroupName, Users: users},
		event.MessagesRefreshed{GroupName: sess.GroupName, Messages: messages},
	)
	return nil
}

// SendMessage translates the text for every distinct online language but
// the sender's own, persists the message and refreshes immediately so the
// sender sees it without waiting for the next tick. Sending is attempted
// even while the connectivity flag is down (optimistic); only the append
// failure itself reports non-delivery.
func (c *Coordinator) SendMessage(ctx context.Context, text string) (domain.Message, error) {
	sess, _, active := c.snapshot()
	if !active {
		return domain.Message{}, errors.ErrSessionClosed
	}
	text, err := domain.ValidateText(text)
	if err != nil {
		return domain.Message{}, err
	}

	text, masked := c.censor.Censor(text)
	if len(masked) > 0 {
		c.log.Info("Masked forbidden words in outbound message", "count", len(masked))
	}

	targets := c.targetLanguages(ctx, sess)
	translations := c.dispatcher.Dispatch(ctx, text, targets)

	message := domain.Message{
		GroupName:      sess.GroupName,
		SenderName:     sess.UserName,
		SenderLanguage: sess.Language,
		OriginalText:   text,
		Translations:   translations,
		SentAt:         c.now().UTC(),
	}
	stored, err := c.history.Append(ctx, message)
	if err != nil {
		c.setConnected(ctx, false)
		return domain.Message{}, fmt.Errorf("sending to %s: %w", sess.GroupName, err)
	}

	if detected := domain.DetectLanguage(text); detected != "" && detected != sess.Language {
		c.log.Debug("Declared and detected sender language differ",
			"declared", sess.Language, "detected", detected)
	}

	c.emit(ctx, event.MessagePosted{Message: stored})

	// Append happens before this refresh, so the sender's own message is
	// guaranteed visible in it.
	if err := c.Reconcile(ctx); err != nil {
		c.log.Warn("Post-send refresh failed", "group", sess.GroupName, "err", err)
	}
	return stored, nil
}

// Leave marks the participant offline (best-effort), cancels any pending
// reconciliation by bumping the epoch and discards local caches.
func (c *Coordinator) Leave(ctx context.Context) error {
	sess, _, active := c.snapshot()
	if !active {
		return nil
	}
	if err := c.presence.MarkOffline(ctx, sess.GroupName, sess.UserName); err != nil {
		c.log.Warn("Marking offline failed", "group", sess.GroupName, "err", err)
	}

	c.mu.Lock()
	c.session = nil
	c.epoch++
	c.messages = nil
	c.users = nil
	c.connected = true
	c.mu.Unlock()

	c.log.Info("Left group", "group", sess.GroupName, "user", sess.UserName)
	return nil
}

// targetLanguages re-reads the online set so a just-arrived participant
// still gets a translation; on store failure it falls back to the cached
// set rather than blocking the send.
func (c *Coordinator) targetLanguages(ctx context.Context, sess domain.Session) []string {
	users, err := c.presence.Refresh(ctx, sess.GroupName)
	if err != nil {
		c.log.Warn("Using cached online set for translation targets", "err", err)
		users = c.OnlineUsers()
	}
	return presence.DistinctLanguages(users, sess.Language)
}

// Session returns the active session, if any.
func (c *Coordinator) Session() (domain.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return domain.Session{}, false
	}
	return *c.session, true
}

// Messages returns a copy of the visible message history.
func (c *Coordinator) Messages() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// OnlineUsers returns a copy of the current online set.
func (c *Coordinator) OnlineUsers() []domain.Presence {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Presence, len(c.users))
	copy(out, c.users)
	return out
}

// Connected reports store reachability as observed by the last cycle.
func (c *Coordinator) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Coordinator) snapshot() (domain.Session, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return domain.Session{}, c.epoch, false
	}
	return *c.session, c.epoch, true
}

func (c *Coordinator) setConnected(ctx context.Context, connected bool) {
	c.mu.Lock()
	changed := c.connected != connected
	c.connected = connected
	c.mu.Unlock()
	if changed {
		c.emit(ctx, event.ConnectivityChanged{Connected: connected})
	}
}

// emit fans events out to every sink, best-effort.
func (c *Coordinator) emit(ctx context.Context, events ...event.DomainEvent) {
	for _, evt := range events {
		for _, sink := range c.sinks {
			if err := sink.Consume(ctx, evt); err != nil {
				c.log.Debug("Event sink rejected event", "err", err)
			}
		}
	}
}

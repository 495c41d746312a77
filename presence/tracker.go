// Package presence maintains liveness records per group and derives the
// online set at read time from last-seen age.
package presence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"whisper-bridge/contract"
	"whisper-bridge/domain"

	"github.com/samber/lo"
)

type Tracker struct {
	store contract.RecordStore
	log   *slog.Logger
	now   func() time.Time
}

func NewTracker(store contract.RecordStore, log *slog.Logger) *Tracker {
	return &Tracker{store: store, log: log, now: time.Now}
}

// Heartbeat upserts the liveness record for (group, user): one lookup
// plus one write. Uniqueness is by the composite key, last write wins.
func (t *Tracker) Heartbeat(ctx context.Context, group, user, language string) error {
	existing, err := t.store.Filter(ctx, contract.EntityPresence,
		map[string]any{
			contract.FieldGroupName: group,
			contract.FieldUserName:  user,
		},
		contract.SortSpec{Field: contract.FieldLastSeen, Descending: true}, 1)
	if err != nil {
		return fmt.Errorf("heartbeat lookup for %s/%s: %w", group, user, err)
	}

	fields := map[string]any{
		contract.FieldGroupName: group,
		contract.FieldUserName:  user,
		contract.FieldLanguage:  language,
		contract.FieldLastSeen:  t.now().UTC().Format(contract.TimeLayout),
		contract.FieldOnline:    true,
	}
	if len(existing) > 0 {
		if err := t.store.Update(ctx, contract.EntityPresence, existing[0].ID, fields); err != nil {
			return fmt.Errorf("heartbeat update for %s/%s: %w", group, user, err)
		}
		return nil
	}
	if _, err := t.store.Create(ctx, contract.EntityPresence, fields); err != nil {
		return fmt.Errorf("heartbeat create for %s/%s: %w", group, user, err)
	}
	return nil
}

// Refresh returns the live online set for a group.
//
// It runs the lazy-expiry sequence: fetch everything, persist is_online=false
// for records older than the liveness window, then re-fetch online records
// only. The extra round trip is deliberate: the returned set must never
// include an entry this call just marked offline. Before marking a record
// offline its last_seen is re-read, so a heartbeat racing with this call
// always wins over the staleness judgment.
func (t *Tracker) Refresh(ctx context.Context, group string) ([]domain.Presence, error) {
	all, err := t.store.Filter(ctx, contract.EntityPresence,
		map[string]any{contract.FieldGroupName: group},
		contract.SortSpec{Field: contract.FieldLastSeen, Descending: true}, 0)
	if err != nil {
		return nil, fmt.Errorf("fetching presence for %s: %w", group, err)
	}

	now := t.now()
	for _, record := range all {
		candidate := fromRecord(record)
		if !candidate.Online || !candidate.Stale(now) {
			continue
		}
		if err := t.expire(ctx, candidate, now); err != nil {
			return nil, err
		}
	}

	online, err := t.store.Filter(ctx, contract.EntityPresence,
		map[string]any{
			contract.FieldGroupName: group,
			contract.FieldOnline:    true,
		},
		contract.SortSpec{Field: contract.FieldLastSeen, Descending: true}, 0)
	if err != nil {
		return nil, fmt.Errorf("fetching online presence for %s: %w", group, err)
	}
	return lo.Map(online, func(r contract.Record, _ int) domain.Presence {
		return fromRecord(r)
	}), nil
}

// expire re-reads the record and only persists is_online=false when it is
// still stale against the fresh last_seen.
func (t *Tracker) expire(ctx context.Context, stale domain.Presence, now time.Time) error {
	fresh, err := t.store.Filter(ctx, contract.EntityPresence,
		map[string]any{
			contract.FieldGroupName: stale.GroupName,
			contract.FieldUserName:  stale.UserName,
		},
		contract.SortSpec{Field: contract.FieldLastSeen, Descending: true}, 1)
	if err != nil {
		return fmt.Errorf("re-reading presence for %s/%s: %w", stale.GroupName, stale.UserName, err)
	}
	if len(fresh) == 0 {
		return nil
	}
	current := fromRecord(fresh[0])
	if !current.Online || !current.Stale(now) {
		return nil
	}
	t.log.Debug("Expiring silent participant",
		"group", stale.GroupName, "user", stale.UserName, "lastSeen", current.LastSeen)
	err = t.store.Update(ctx, contract.EntityPresence, fresh[0].ID,
		map[string]any{contract.FieldOnline: false})
	if err != nil {
		return fmt.Errorf("expiring presence for %s/%s: %w", stale.GroupName, stale.UserName, err)
	}
	return nil
}

// MarkOffline flips the matching record offline. A missing record is not
// an error, leaving is idempotent.
func (t *Tracker) MarkOffline(ctx context.Context, group, user string) error {
	existing, err := t.store.Filter(ctx, contract.EntityPresence,
		map[string]any{
			contract.FieldGroupName: group,
			contract.FieldUserName:  user,
		},
		contract.SortSpec{Field: contract.FieldLastSeen, Descending: true}, 1)
	if err != nil {
		return fmt.Errorf("offline lookup for %s/%s: %w", group, user, err)
	}
	if len(existing) == 0 {
		return nil
	}
	err = t.store.Update(ctx, contract.EntityPresence, existing[0].ID,
		map[string]any{contract.FieldOnline: false})
	if err != nil {
		return fmt.Errorf("marking %s/%s offline: %w", group, user, err)
	}
	return nil
}

// DistinctLanguages lists the languages present in the online set,
// excluding the given one (a sender never needs its own tongue).
func DistinctLanguages(users []domain.Presence, exclude string) []string {
	languages := lo.Map(users, func(p domain.Presence, _ int) string {
		return p.Language
	})
	return lo.Filter(lo.Uniq(languages), func(lang string, _ int) bool {
		return lang != "" && lang != exclude
	})
}

func fromRecord(r contract.Record) domain.Presence {
	p := domain.Presence{ID: r.ID}
	if v, ok := r.Fields[contract.FieldGroupName].(string); ok {
		p.GroupName = v
	}
	if v, ok := r.Fields[contract.FieldUserName].(string); ok {
		p.UserName = v
	}
	if v, ok := r.Fields[contract.FieldLanguage].(string); ok {
		p.Language = v
	}
	if v, ok := r.Fields[contract.FieldLastSeen].(string); ok {
		if at, err := time.Parse(contract.TimeLayout, v); err == nil {
			p.LastSeen = at
		}
	}
	if v, ok := r.Fields[contract.FieldOnline].(bool); ok {
		p.Online = v
	}
	return p
}

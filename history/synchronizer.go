// Package history maintains the locally visible, ordered message window
// for a group by reconciling with the record store.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"whisper-bridge/contract"
	"whisper-bridge/domain"

	"github.com/samber/lo"
)

// DefaultWindow is the number of recent messages a refresh transfers.
const DefaultWindow = 100

type Synchronizer struct {
	store contract.RecordStore
	index *Index
	log   *slog.Logger
}

// NewSynchronizer builds a synchronizer. index may be nil when full-text
// search is disabled.
func NewSynchronizer(store contract.RecordStore, index *Index, log *slog.Logger) *Synchronizer {
	return &Synchronizer{store: store, index: index, log: log}
}

// Refresh fetches the most recent messages for a group and returns them
// in chronological order. The caller replaces its entire visible history
// with the result: full-replace avoids cursor tracking and out-of-order
// handling at the cost of re-transferring the window each cycle.
// Fewer than limit records means the history is complete, not partial.
func (s *Synchronizer) Refresh(ctx context.Context, group string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = DefaultWindow
	}
	records, err := s.store.Filter(ctx, contract.EntityMessages,
		map[string]any{contract.FieldGroupName: group},
		contract.SortSpec{Field: contract.FieldTimestamp, Descending: true}, limit)
	if err != nil {
		return nil, fmt.Errorf("refreshing messages for %s: %w", group, err)
	}
	messages := lo.Map(records, func(r contract.Record, _ int) domain.Message {
		return fromRecord(r)
	})
	return lo.Reverse(messages), nil
}

// Append persists a fully-formed message (translations already computed)
// and returns the stored copy with its assigned id. Indexing failures are
// logged, never fatal: delivery takes priority over searchability.
func (s *Synchronizer) Append(ctx context.Context, message domain.Message) (domain.Message, error) {
	record, err := s.store.Create(ctx, contract.EntityMessages, toFields(message))
	if err != nil {
		return domain.Message{}, fmt.Errorf("appending message to %s: %w", message.GroupName, err)
	}
	message.ID = record.ID

	if s.index != nil {
		if err := s.index.Index(message); err != nil {
			s.log.Warn("Message stored but not indexed", "id", message.ID, "err", err)
		}
	}
	return message, nil
}

func toFields(m domain.Message) map[string]any {
	translations := map[string]any{}
	for lang, text := range m.Translations {
		translations[lang] = text
	}
	return map[string]any{
		contract.FieldGroupName:      m.GroupName,
		contract.FieldSenderName:     m.SenderName,
		contract.FieldSenderLanguage: m.SenderLanguage,
		contract.FieldOriginalText:   m.OriginalText,
		contract.FieldTranslations:   translations,
		contract.FieldTimestamp:      m.SentAt.UTC().Format(contract.TimeLayout),
	}
}

func fromRecord(r contract.Record) domain.Message {
	m := domain.Message{ID: r.ID, Translations: map[string]string{}}
	if v, ok := r.Fields[contract.FieldGroupName].(string); ok {
		m.GroupName = v
	}
	if v, ok := r.Fields[contract.FieldSenderName].(string); ok {
		m.SenderName = v
	}
	if v, ok := r.Fields[contract.FieldSenderLanguage].(string); ok {
		m.SenderLanguage = v
	}
	if v, ok := r.Fields[contract.FieldOriginalText].(string); ok {
		m.OriginalText = v
	}
	if translations, ok := r.Fields[contract.FieldTranslations].(map[string]any); ok {
		for lang, text := range translations {
			if s, ok := text.(string); ok {
				m.Translations[lang] = s
			}
		}
	}
	if v, ok := r.Fields[contract.FieldTimestamp].(string); ok {
		if at, err := time.Parse(contract.TimeLayout, v); err == nil {
			m.SentAt = at
		}
	}
	return m
}

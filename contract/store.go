//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=../mocks/mock_store.go -package=mocks
package contract

import "context"

// Collections persisted by the core.
const (
	EntityMessages = "messages"
	EntityPresence = "presence"
)

// Field names shared by every RecordStore implementation.
const (
	FieldGroupName      = "group_name"
	FieldUserName       = "user_name"
	FieldLanguage       = "language"
	FieldLastSeen       = "last_seen"
	FieldOnline         = "is_online"
	FieldSenderName     = "sender_name"
	FieldSenderLanguage = "sender_language"
	FieldOriginalText   = "original_message"
	FieldTranslations   = "translations"
	FieldTimestamp      = "timestamp"
)

// TimeLayout is the wire format for timestamp fields. The fractional
// seconds are fixed-width so the strings sort lexicographically.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Record is one stored row: an opaque id plus a schema-less field map.
type Record struct {
	ID     string
	Fields map[string]any
}

// SortSpec orders Filter results by a named field.
type SortSpec struct {
	Field      string
	Descending bool
}

// RecordStore is the opaque persistence capability consumed by the core.
// Any concrete store (embedded, document, in-memory for tests) can
// satisfy it. No transactions are assumed across calls.
type RecordStore interface {
	Create(ctx context.Context, entity string, fields map[string]any) (Record, error)
	Update(ctx context.Context, entity string, id string, fields map[string]any) error
	Filter(ctx context.Context, entity string, match map[string]any, sort SortSpec, limit int) ([]Record, error)
}

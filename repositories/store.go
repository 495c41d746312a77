package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"time"

	"whisper-bridge/contract"
	"whisper-bridge/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// BadgerStore implements contract.RecordStore on top of BadgerDB.
//
// The primary key is formatted as "{entity}:{timestamp_padded}:{id}" to:
//  1. Ensure chronological iteration using 19-digit zero padding
//     (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two
//     records arrive at the same nanosecond.
//
// A secondary index "idx:{entity}:{id}" points back to the primary key so
// Update can address a record by its opaque id.
type BadgerStore struct {
	db  *badger.DB
	log *slog.Logger
	now func() time.Time
}

func NewBadgerStore(db *badger.DB, log *slog.Logger) *BadgerStore {
	return &BadgerStore{db: db, log: log, now: time.Now}
}

func primaryKey(entity string, at time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s:%019d:%s", entity, at.UnixNano(), id))
}

func indexKey(entity, id string) []byte {
	return []byte(fmt.Sprintf("idx:%s:%s", entity, id))
}

func (s *BadgerStore) Create(ctx context.Context, entity string, fields map[string]any) (contract.Record, error) {
	if err := ctx.Err(); err != nil {
		return contract.Record{}, err
	}
	id := uuid.New().String()
	value, err := json.Marshal(fields)
	if err != nil {
		return contract.Record{}, fmt.Errorf("encoding %s record: %w", entity, err)
	}

	key := primaryKey(entity, s.now().UTC(), id)
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, value); err != nil {
			return err
		}
		return txn.Set(indexKey(entity, id), key)
	})
	if err != nil {
		return contract.Record{}, fmt.Errorf("creating %s record: %w", entity, err)
	}
	return contract.Record{ID: id, Fields: normalizeFields(fields)}, nil
}

// Update merges the given fields into the stored record inside a single
// transaction (read-modify-write).
func (s *BadgerStore) Update(ctx context.Context, entity string, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		idxItem, err := txn.Get(indexKey(entity, id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return errors.ErrRecordNotFound
			}
			return err
		}
		var key []byte
		if key, err = idxItem.ValueCopy(nil); err != nil {
			return err
		}

		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		stored := map[string]any{}
		err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		})
		if err != nil {
			return err
		}

		for k, v := range fields {
			stored[k] = v
		}
		value, err := json.Marshal(stored)
		if err != nil {
			return err
		}
		return txn.Set(key, value)
	})
	if err != nil {
		if err == errors.ErrRecordNotFound {
			return err
		}
		return fmt.Errorf("updating %s record %s: %w", entity, id, err)
	}
	return nil
}

// Filter scans the entity prefix, keeps records matching every field in
// match, sorts on the requested field and truncates to limit (0 = unbounded).
// Thanks to the padded timestamp in the key, the scan itself yields
// records in creation order; the sort only reorders by the named field.
func (s *BadgerStore) Filter(ctx context.Context, entity string, match map[string]any, sortSpec contract.SortSpec, limit int) ([]contract.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var records []contract.Record
	prefix := []byte(entity + ":")

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			id := recordID(string(item.Key()))
			fields := map[string]any{}
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &fields)
			})
			if err != nil {
				return err
			}
			if !matches(fields, match) {
				continue
			}
			records = append(records, contract.Record{ID: id, Fields: fields})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("filtering %s records: %w", entity, err)
	}

	if sortSpec.Field != "" {
		sort.SliceStable(records, func(i, j int) bool {
			c := compareValues(records[i].Fields[sortSpec.Field], records[j].Fields[sortSpec.Field])
			if sortSpec.Descending {
				return c > 0
			}
			return c < 0
		})
	}
	if limit > 0 && len(records) > limit {
		s.log.Debug(fmt.Sprintf("Maximum of %d %s records reached", limit, entity))
		records = records[:limit]
	}
	return records, nil
}

// recordID extracts the trailing uuid segment of a primary key.
func recordID(key string) string {
	if i := strings.LastIndex(key, ":"); i >= 0 {
		return key[i+1:]
	}
	return key
}

func matches(fields, match map[string]any) bool {
	for k, want := range match {
		if !valueEqual(fields[k], want) {
			return false
		}
	}
	return true
}

// valueEqual compares a decoded JSON value with a caller-supplied one.
// JSON decoding turns every number into float64, so integers are widened
// before comparison.
func valueEqual(a, b any) bool {
	a, b = toComparable(a), toComparable(b)
	return reflect.DeepEqual(a, b)
}

func toComparable(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	}
	return v
}

func compareValues(a, b any) int {
	a, b = toComparable(a), toComparable(b)
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			default:
				return 0
			}
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	case nil:
		if b == nil {
			return 0
		}
		return -1
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// normalizeFields mirrors what a JSON round trip would return, so Create
// results look the same as later Filter results.
func normalizeFields(fields map[string]any) map[string]any {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fields
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fields
	}
	return out
}

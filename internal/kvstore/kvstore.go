// Package kvstore is a small string key/value store kept in the local
// database, for settings and session values that do not deserve a table.
package kvstore

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/kyleking/starterdb/internal/errors"
	"github.com/kyleking/starterdb/internal/logging"
	"github.com/kyleking/starterdb/internal/models"
	"github.com/kyleking/starterdb/internal/notify"
	"github.com/kyleking/starterdb/internal/storage"
)

const (
	keyColumn   = "entry_key"
	valueColumn = "entry_value"
)

const (
	msgSaveFailed     = "Something went wrong saving to storage."
	msgRetrieveFailed = "Something went wrong retrieving from storage."
	msgRemoveFailed   = "Something went wrong removing from storage."
)

var errNotStored = errors.New(errors.ErrTypeDatabase, "value was not stored")

// Store reads and writes kv_entries. Like models, it never returns engine
// errors: failures are reported to the sink and the call reports false.
type Store struct {
	conn   *storage.Conn
	sink   notify.Sink
	logger *logging.Logger
}

// New binds the store to conn.
func New(conn *storage.Conn, sink notify.Sink) (*Store, error) {
	if _, _, err := bind(conn); err != nil {
		return nil, err
	}

	if sink == nil {
		sink = notify.Discard
	}

	logger := logging.Discard()
	if conn.Logger() != nil {
		logger = conn.Logger()
	}

	return &Store{
		conn:   conn,
		sink:   sink,
		logger: logger.WithField("component", "kvstore"),
	}, nil
}

// Save stores value under key, replacing any previous value.
func (s *Store) Save(ctx context.Context, key, value string) bool {
	s.logger.WithField("key", key).Debug("Saving to storage")

	err := s.conn.Transaction(ctx, func(tx *storage.Tx) error {
		m, _, err := bind(tx)
		if err != nil {
			return err
		}

		if _, ok := m.Delete(ctx, storage.Where(keyColumn, key), nil); !ok {
			return errNotStored
		}

		if _, ok := m.Create(ctx, storage.NewValues(keyColumn, key, valueColumn, value)); !ok {
			return errNotStored
		}

		return nil
	})
	if err != nil {
		s.logger.WithField("key", key).ErrorWithErr("Error saving to storage", err)
		s.sink.Report(msgSaveFailed)

		return false
	}

	return true
}

// SaveObject stores v as JSON under key.
func (s *Store) SaveObject(ctx context.Context, key string, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.WithField("key", key).ErrorWithErr("Error encoding value", err)
		s.sink.Report(msgSaveFailed)

		return false
	}

	return s.Save(ctx, key, string(data))
}

// Get returns the value stored under key. found is false when the key is
// absent or the read failed.
func (s *Store) Get(ctx context.Context, key string) (value string, found bool) {
	s.logger.WithField("key", key).Debug("Retrieving from storage")

	m, failed, err := bind(s.conn)
	if err != nil {
		return "", false
	}

	rows := m.Get(ctx, storage.Where(keyColumn, key), &storage.Options{Limit: 1})
	if *failed {
		s.sink.Report(msgRetrieveFailed)
		return "", false
	}

	if len(rows) == 0 {
		return "", false
	}

	raw, _ := rows[0].Get(valueColumn)

	switch v := raw.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case nil:
		return "", true
	default:
		return fmt.Sprint(v), true
	}
}

// GetObject decodes the JSON stored under key into v.
func (s *Store) GetObject(ctx context.Context, key string, v any) bool {
	value, found := s.Get(ctx, key)
	if !found {
		return false
	}

	if err := json.Unmarshal([]byte(value), v); err != nil {
		s.logger.WithField("key", key).ErrorWithErr("Error decoding value", err)
		s.sink.Report(msgRetrieveFailed)

		return false
	}

	return true
}

// Remove deletes key. Removing an absent key succeeds.
func (s *Store) Remove(ctx context.Context, key string) bool {
	s.logger.WithField("key", key).Debug("Removing from storage")

	m, _, err := bind(s.conn)
	if err != nil {
		return false
	}

	if _, ok := m.Delete(ctx, storage.Where(keyColumn, key), nil); !ok {
		s.sink.Report(msgRemoveFailed)
		return false
	}

	return true
}

// Keys returns every stored key in insertion order.
func (s *Store) Keys(ctx context.Context) []string {
	m, failed, err := bind(s.conn)
	if err != nil {
		return nil
	}

	rows := m.Get(ctx, storage.Filter{}, &storage.Options{OrderBy: storage.IDColumnName, Order: "ASC"})
	if *failed {
		s.sink.Report(msgRetrieveFailed)
	}

	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		key, _ := row.Get(keyColumn)
		if k, ok := key.(string); ok {
			keys = append(keys, k)
		}
	}

	return keys
}

// bind returns a kv_entries model on exec. The returned flag is set when
// any call on the model fails.
func bind(exec storage.Executor) (*storage.Model, *bool, error) {
	failed := new(bool)

	m, err := storage.NewModel(exec, models.KVEntriesTable, notify.SinkFunc(func(string) { *failed = true }))
	if err != nil {
		return nil, nil, err
	}

	return m, failed, nil
}

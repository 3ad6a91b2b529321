// Package store persists runner task state in BadgerDB so a restarted
// runner knows when each task last ran.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/thomasrohde/schyntax/pkg/codec"
)

const taskPrefix = "task/"

// TaskState is the persisted record of one task.
type TaskState struct {
	Name      string    `cbor:"name"`
	Schedule  string    `cbor:"schedule"`
	LastRun   time.Time `cbor:"last_run"`
	LastRunID string    `cbor:"last_run_id,omitempty"`
	UpdatedAt time.Time `cbor:"updated_at"`
}

// Options configures Open.
type Options struct {
	// Dir is the database directory. Ignored when InMemory is set.
	Dir string
	// InMemory keeps everything in memory, for tests and dry runs.
	InMemory bool
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Store is a BadgerDB-backed task state store. It is safe for concurrent use.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open opens or creates the store.
func Open(opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Dir == "" {
			return nil, errors.New("store: no directory configured")
		}
		abs, err := filepath.Abs(opts.Dir)
		if err != nil {
			return nil, fmt.Errorf("store: resolve %s: %w", opts.Dir, err)
		}
		bopts = badger.DefaultOptions(abs)
	}
	bopts = bopts.WithLogger(nil)

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("store: open badger: %w", err)
	}
	logger.Debug("task store opened", "dir", bopts.Dir, "in_memory", opts.InMemory)
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveTask writes st, stamping UpdatedAt when it is zero.
func (s *Store) SaveTask(st TaskState) error {
	if st.Name == "" {
		return errors.New("store: task state has no name")
	}
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now().UTC()
	}
	data, err := codec.Marshal(st)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", st.Name, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(taskPrefix+st.Name), data)
	})
}

// LoadTask returns the state of name. The boolean is false when no state
// has been saved.
func (s *Store) LoadTask(name string) (TaskState, bool, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(taskPrefix + name))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return TaskState{}, false, nil
	}
	if err != nil {
		return TaskState{}, false, fmt.Errorf("store: load %s: %w", name, err)
	}

	var st TaskState
	if err := codec.Unmarshal(data, &st); err != nil {
		return TaskState{}, false, fmt.Errorf("store: decode %s: %w", name, err)
	}
	return st, true, nil
}

// DeleteTask removes the state of name. Deleting a missing task is not an error.
func (s *Store) DeleteTask(name string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(taskPrefix + name))
	})
}

// ListTasks returns every saved task ordered by name.
func (s *Store) ListTasks() ([]TaskState, error) {
	var out []TaskState
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(taskPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(val []byte) error {
				var st TaskState
				if err := codec.Unmarshal(val, &st); err != nil {
					return fmt.Errorf("decode %s: %w", strings.TrimPrefix(key, taskPrefix), err)
				}
				out = append(out, st)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: list tasks: %w", err)
	}
	return out, nil
}

// RunGC reclaims value log space. badger.ErrNoRewrite, meaning there was
// nothing to collect, is not reported.
func (s *Store) RunGC() error {
	err := s.db.RunValueLogGC(0.5)
	if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		s.logger.Warn("task store gc failed", "error", err)
		return err
	}
	return nil
}

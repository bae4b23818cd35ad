package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v3"
	"github.com/korjavin/mealwatch/pkg/logger"
)

// ErrNotFound is returned by Get when the key does not exist
var ErrNotFound = errors.New("key not found")

// PersistenceError wraps a failed read or write of a record
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Store represents a BadgerDB storage instance
type Store struct {
	db     *badger.DB
	logger *logger.Logger
}

// New opens the BadgerDB database in dataDir. Badger locks the directory, so a
// second concurrent run fails here instead of racing on the records.
func New(dataDir string) (*Store, error) {
	absPath, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	opts := badger.DefaultOptions(absPath)
	opts.Logger = nil // Disable Badger's internal logger

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	log := logger.New("storage")
	log.Debug("BadgerDB opened at %s", absPath)
	return &Store{db: db, logger: log}, nil
}

// Close closes the BadgerDB database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Set stores a value for a key
func (s *Store) Set(key string, value interface{}) error {
	return s.SetMany(map[string]interface{}{key: value})
}

// SetMany stores several values in one transaction; either all are written or none
func (s *Store) SetMany(values map[string]interface{}) error {
	encoded := make(map[string][]byte, len(values))
	for key, value := range values {
		data, err := json.Marshal(value)
		if err != nil {
			return &PersistenceError{Op: "encode", Key: key, Err: err}
		}
		encoded[key] = data
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		for key, data := range encoded {
			if err := txn.Set([]byte(key), data); err != nil {
				return &PersistenceError{Op: "write", Key: key, Err: err}
			}
		}
		return nil
	})
	if err != nil {
		var pe *PersistenceError
		if errors.As(err, &pe) {
			return err
		}
		return &PersistenceError{Op: "commit", Key: joinKeys(values), Err: err}
	}
	return nil
}

// Get retrieves a value for a key
func (s *Store) Get(key string, value interface{}) error {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...)
			return nil
		})
	})

	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return &PersistenceError{Op: "read", Key: key, Err: ErrNotFound}
		}
		return &PersistenceError{Op: "read", Key: key, Err: err}
	}

	if err := json.Unmarshal(data, value); err != nil {
		return &PersistenceError{Op: "decode", Key: key, Err: err}
	}
	return nil
}

// Version returns the commit version of a key. Keys written by one SetMany
// share a version.
func (s *Store) Version(key string) (uint64, error) {
	var version uint64
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		version = item.Version()
		return nil
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, &PersistenceError{Op: "read", Key: key, Err: ErrNotFound}
		}
		return 0, &PersistenceError{Op: "read", Key: key, Err: err}
	}
	return version, nil
}

// Delete removes a key from the database
func (s *Store) Delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// List returns all keys with a given prefix
func (s *Store) List(prefix string) ([]string, error) {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			keys = append(keys, string(it.Item().Key()))
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	return keys, nil
}

// RunGC runs one value-log garbage collection pass. Having nothing to
// rewrite is not an error.
func (s *Store) RunGC() error {
	err := s.db.RunValueLogGC(0.5)
	if errors.Is(err, badger.ErrNoRewrite) {
		s.logger.Debug("BadgerDB GC: nothing to rewrite")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run BadgerDB GC: %w", err)
	}
	return nil
}

func joinKeys(values map[string]interface{}) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

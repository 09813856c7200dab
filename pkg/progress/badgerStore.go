package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

const keyPrefix = "import:"

// BadgerStore is a JobStore backed by BadgerDB. Entries are written with a
// TTL and vanish on their own; expiry is how stale jobs disappear.
type BadgerStore struct {
	db  *badger.DB
	ttl time.Duration
}

// badgerLoggerAdapter routes badger's internal logging through the
// standard logger.
type badgerLoggerAdapter struct{}

var _ badger.Logger = badgerLoggerAdapter{}

func (badgerLoggerAdapter) Errorf(msg string, items ...any)   { log.Printf("badger: "+msg, items...) }
func (badgerLoggerAdapter) Warningf(msg string, items ...any) { log.Printf("badger: "+msg, items...) }
func (badgerLoggerAdapter) Infof(msg string, items ...any)    {}
func (badgerLoggerAdapter) Debugf(msg string, items ...any)   {}

// OpenBadgerStore opens (or creates) the progress database. With inMemory
// set, nothing touches disk; tests and stateless dev setups use that mode.
func OpenBadgerStore(filePath string, inMemory bool, ttl time.Duration) (*BadgerStore, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
			if err := os.MkdirAll(filePath, 0755); err != nil {
				return nil, err
			}
		} else if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	opts.Logger = badgerLoggerAdapter{}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &BadgerStore{db: db, ttl: ttl}, nil
}

func (s *BadgerStore) Put(ctx context.Context, entry Entry) error {
	value, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	key := []byte(keyPrefix + entry.JobID)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key, value).WithTTL(s.ttl))
	})
}

func (s *BadgerStore) Get(ctx context.Context, jobID string) (Entry, error) {
	var entry Entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + jobID))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &entry)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

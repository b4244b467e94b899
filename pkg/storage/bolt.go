package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"go.etcd.io/bbolt"

	"github.com/matzehuels/celltrack/pkg/errors"
)

var (
	entryBucket = []byte("entries")
	dataBucket  = []byte("data")
)

// BoltStore stores data files in a bbolt database. Entries and file
// contents live in separate buckets so that List does not read the data.
//
// bbolt locks the file: a second process opening the same path blocks
// until the first closes it.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens or creates the database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{entryBucket, dataBucket} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init store %s: %w", path, err)
	}
	return &BoltStore{db: db}, nil
}

// Put stores data under a new ID.
func (s *BoltStore) Put(ctx context.Context, name string, data []byte) (Entry, error) {
	entry, err := newEntry(name, data)
	if err != nil {
		return Entry{}, err
	}
	meta, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, err
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		key := []byte(entry.ID)
		if err := tx.Bucket(entryBucket).Put(key, meta); err != nil {
			return err
		}
		return tx.Bucket(dataBucket).Put(key, data)
	})
	if err != nil {
		return Entry{}, fmt.Errorf("put %s: %w", name, err)
	}
	return entry, nil
}

// Get returns a stored file.
func (s *BoltStore) Get(ctx context.Context, id string) (Entry, []byte, error) {
	if err := errors.ValidateID(id); err != nil {
		return Entry{}, nil, err
	}
	var entry Entry
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(entryBucket).Get([]byte(id))
		if meta == nil {
			return notFound(id)
		}
		if err := json.Unmarshal(meta, &entry); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "corrupt entry %s", id)
		}
		// Values are only valid inside the transaction.
		data = slices.Clone(tx.Bucket(dataBucket).Get([]byte(id)))
		return nil
	})
	if err != nil {
		return Entry{}, nil, err
	}
	return entry, data, nil
}

// List returns all entries, oldest first.
func (s *BoltStore) List(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(entryBucket).ForEach(func(k, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "corrupt entry %s", k)
			}
			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortEntries(entries)
	return entries, nil
}

// Delete removes a stored file.
func (s *BoltStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateID(id); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		key := []byte(id)
		entries := tx.Bucket(entryBucket)
		if entries.Get(key) == nil {
			return notFound(id)
		}
		if err := entries.Delete(key); err != nil {
			return err
		}
		return tx.Bucket(dataBucket).Delete(key)
	})
}

// Path returns the database file path.
func (s *BoltStore) Path() string { return s.db.Path() }

// Close closes the database.
func (s *BoltStore) Close() error { return s.db.Close() }

func sortEntries(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
}

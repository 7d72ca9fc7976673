package buffer

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/fastygo/datewheel/internal/infrastructure/boltdb"
)

// Store is a FIFO outbox kept in a Bolt bucket. Keys are a bucket sequence
// number, so items replay in the order they were enqueued. The database is
// shared with the document store and is not closed by Store.
type Store struct {
	db     *bolt.DB
	bucket []byte
	logger *zap.Logger
}

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(db *bolt.DB, bucket string, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if bucket == "" {
		bucket = "outbox"
	}
	if err := boltdb.EnsureBucket(db, bucket); err != nil {
		return nil, err
	}
	s := &Store{db: db, bucket: []byte(bucket), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Enqueue appends item at the tail.
func (s *Store) Enqueue(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	item.normalize(time.Now().UTC())

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		payload, err := json.Marshal(item)
		if err != nil {
			return err
		}
		return b.Put(sequenceKey(seq), payload)
	})
}

// Peek returns up to limit items from the head without removing them.
// Entries that no longer decode can never be delivered and are deleted.
func (s *Store) Peek(limit int) ([]Item, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var items []Item
	var corrupt [][]byte
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		c := b.Cursor()
		for k, v := c.First(); k != nil && len(items) < limit; k, v = c.Next() {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				corrupt = append(corrupt, append([]byte(nil), k...))
				continue
			}
			item.bucketKey = append([]byte(nil), k...)
			items = append(items, item)
		}
		for _, k := range corrupt {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(corrupt) > 0 {
		s.logger.Warn("undecodable outbox items discarded", zap.Int("count", len(corrupt)))
	}
	return items, nil
}

// Remove deletes an item previously returned by Peek.
func (s *Store) Remove(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if len(item.bucketKey) == 0 {
		return fmt.Errorf("buffer: item %s was not read from the store", item.ID)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete(item.bucketKey)
	})
}

// MarkFailed rewrites the item in place with one more retry and the last
// error, keeping its position at the head of the queue.
func (s *Store) MarkFailed(item Item, cause error) (Item, error) {
	if s == nil || s.db == nil {
		return item, bolt.ErrDatabaseNotOpen
	}
	if len(item.bucketKey) == 0 {
		return item, fmt.Errorf("buffer: item %s was not read from the store", item.ID)
	}
	item.Retries++
	if cause != nil {
		item.LastError = cause.Error()
	}
	payload, err := json.Marshal(item)
	if err != nil {
		return item, err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put(item.bucketKey, payload)
	})
	return item, err
}

// Size returns the number of queued items.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Cleanup removes items enqueued before olderThan and reports how many went.
func (s *Store) Cleanup(olderThan time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		var stale [][]byte
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var item Item
			if err := json.Unmarshal(v, &item); err == nil && !item.Timestamp.Before(olderThan) {
				continue
			}
			stale = append(stale, append([]byte(nil), k...))
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}

// Stats exposes Bolt statistics for monitoring endpoints.
func (s *Store) Stats() bolt.Stats {
	if s == nil || s.db == nil {
		return bolt.Stats{}
	}
	return s.db.Stats()
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

package bolt

import (
	"context"
	"encoding/json"

	bbolt "go.etcd.io/bbolt"

	"github.com/fastygo/datewheel/internal/infrastructure/boltdb"
	"github.com/fastygo/datewheel/repository"
)

// KVStore keeps one JSON document per key inside a single Bolt bucket.
type KVStore struct {
	db     *bbolt.DB
	bucket []byte
}

// NewKVStore ensures the bucket exists and returns a store bound to it.
func NewKVStore(db *bbolt.DB, bucket string) (*KVStore, error) {
	if db == nil {
		return nil, bbolt.ErrDatabaseNotOpen
	}
	if bucket == "" {
		bucket = "documents"
	}
	if err := boltdb.EnsureBucket(db, bucket); err != nil {
		return nil, err
	}
	return &KVStore{db: db, bucket: []byte(bucket)}, nil
}

func (s *KVStore) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var out json.RawMessage
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(key))
		if v != nil {
			// bolt values are only valid for the life of the transaction
			out = append(json.RawMessage(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

func (s *KVStore) Set(ctx context.Context, key string, value json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), value)
	})
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
}

// Size returns the number of stored documents.
func (s *KVStore) Size() (int, error) {
	var count int
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

var _ repository.KVStore = (*KVStore)(nil)

package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/fastygo/datewheel/repository"
)

// KVStore keeps documents in process memory. It backs tests and the
// STORAGE_DRIVER=memory mode.
type KVStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewKVStore() *KVStore {
	return &KVStore{docs: make(map[string][]byte)}
}

func (s *KVStore) Get(_ context.Context, key string) (json.RawMessage, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.docs[key]
	if !ok {
		return nil, false, nil
	}
	return append(json.RawMessage(nil), v...), true, nil
}

func (s *KVStore) Set(_ context.Context, key string, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = append([]byte(nil), value...)
	return nil
}

func (s *KVStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, key)
	return nil
}

var _ repository.KVStore = (*KVStore)(nil)

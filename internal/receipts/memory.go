package receipts

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps receipt images in memory. It exists for tests and for
// running without an object store configured.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string][]byte{}}
}

func (s *MemoryStore) StoreReceipt(_ context.Context, userKey, recordKey string, image []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := fmt.Sprintf("%s/%s", userKey, recordKey)
	s.objects[name] = append([]byte(nil), image...)

	return Scheme + name, nil
}

func (s *MemoryStore) DeleteReceipt(_ context.Context, reference string) error {
	name, err := objectName(reference)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[name]; !ok {
		return fmt.Errorf("no object stored for %q", reference)
	}

	delete(s.objects, name)
	return nil
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.objects)
}

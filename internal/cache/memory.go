package cache

import (
	"context"
	"sync"
	"time"
)

type memList struct {
	values    [][]byte
	expiresAt time.Time
}

// MemoryStore is an in-process ListStore. Expired lists are dropped lazily
// on access.
type MemoryStore struct {
	mu    sync.Mutex
	lists map[string]*memList
	now   func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		lists: make(map[string]*memList),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// live returns the list for key, deleting it when expired. Caller holds mu.
func (s *MemoryStore) live(key string) *memList {
	l, ok := s.lists[key]
	if !ok {
		return nil
	}
	if !l.expiresAt.IsZero() && !s.now().Before(l.expiresAt) {
		delete(s.lists, key)
		return nil
	}
	return l
}

func (s *MemoryStore) Range(ctx context.Context, key string) ([][]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.live(key)
	if l == nil {
		return nil, false, nil
	}
	out := make([][]byte, len(l.values))
	copy(out, l.values)
	return out, true, nil
}

func (s *MemoryStore) Replace(ctx context.Context, key string, values [][]byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(values) == 0 {
		delete(s.lists, key)
		return nil
	}
	l := &memList{values: make([][]byte, len(values))}
	for i, v := range values {
		l.values[i] = append([]byte(nil), v...)
	}
	if ttl > 0 {
		l.expiresAt = s.now().Add(ttl)
	}
	s.lists[key] = l
	return nil
}

func (s *MemoryStore) PushFrontIfExists(ctx context.Context, key string, value []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.live(key)
	if l == nil {
		return false, nil
	}
	l.values = append([][]byte{append([]byte(nil), value...)}, l.values...)
	return true, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.lists, key)
	s.mu.Unlock()
	return nil
}

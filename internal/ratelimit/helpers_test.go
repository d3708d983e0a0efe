package ratelimit_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/serroba/quotagate/internal/ratelimit"
)

var errStoreDown = errors.New("store unavailable")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// faultyStore wraps a Store and injects failures for keys containing a marker.
type faultyStore struct {
	ratelimit.Store

	mu sync.Mutex
	// conflicts is the number of upcoming CompareAndSet calls that report a conflict, per marker.
	conflicts map[string]int
	// getErr and casErr fail every matching call when set.
	getErr map[string]error
	casErr map[string]error

	gets int
	cas  int
	sets int
}

func newFaultyStore(inner ratelimit.Store) *faultyStore {
	return &faultyStore{
		Store:     inner,
		conflicts: make(map[string]int),
		getErr:    make(map[string]error),
		casErr:    make(map[string]error),
	}
}

func (s *faultyStore) Get(ctx context.Context, key string) ([]byte, ratelimit.Version, error) {
	s.mu.Lock()
	s.gets++

	for marker, err := range s.getErr {
		if strings.Contains(key, marker) {
			s.mu.Unlock()

			return nil, ratelimit.NoVersion, err
		}
	}
	s.mu.Unlock()

	return s.Store.Get(ctx, key)
}

func (s *faultyStore) CompareAndSet(ctx context.Context, key string, value []byte, expected ratelimit.Version) error {
	s.mu.Lock()
	s.cas++

	for marker, err := range s.casErr {
		if strings.Contains(key, marker) {
			s.mu.Unlock()

			return err
		}
	}

	for marker, n := range s.conflicts {
		if strings.Contains(key, marker) && n != 0 {
			if n > 0 {
				s.conflicts[marker] = n - 1
			}
			s.mu.Unlock()

			return ratelimit.ErrVersionConflict
		}
	}
	s.mu.Unlock()

	return s.Store.CompareAndSet(ctx, key, value, expected)
}

func (s *faultyStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	s.sets++
	s.mu.Unlock()

	return s.Store.Set(ctx, key, value)
}

func (s *faultyStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.gets + s.cas + s.sets
}

// alwaysConflict makes every matching CompareAndSet fail.
const alwaysConflict = -1

// Package storetest wraps a GraphStorage for tests: counting calls, failing
// selected methods and slowing reads down.
package storetest

import (
	"context"
	"sync"
	"time"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/alchemy-game-studios/game-planner/pkg/store"
)

// Storage decorates an inner GraphStorage.
type Storage struct {
	inner store.GraphStorage

	mu     sync.Mutex
	calls  map[string]int
	fail   map[string]error
	delay  time.Duration
	slowOn map[string]struct{}
}

var _ store.GraphStorage = (*Storage)(nil)

func Wrap(inner store.GraphStorage) *Storage {
	return &Storage{
		inner:  inner,
		calls:  make(map[string]int),
		fail:   make(map[string]error),
		slowOn: make(map[string]struct{}),
	}
}

// Fail makes method return err from now on.
func (s *Storage) Fail(method string, err error) *Storage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[method] = err
	return s
}

// Slow makes the listed methods block for d or until ctx ends.
func (s *Storage) Slow(d time.Duration, methods ...string) *Storage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
	for _, m := range methods {
		s.slowOn[m] = struct{}{}
	}
	return s
}

// Calls returns how often method was invoked.
func (s *Storage) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// Total returns the number of calls across all methods.
func (s *Storage) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// Reset zeroes the call counters.
func (s *Storage) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = make(map[string]int)
}

func (s *Storage) enter(ctx context.Context, method string) error {
	s.mu.Lock()
	s.calls[method]++
	err := s.fail[method]
	_, slow := s.slowOn[method]
	delay := s.delay
	s.mu.Unlock()

	if slow && delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

func (s *Storage) GetEntity(ctx context.Context, id string) (common.Entity, error) {
	if err := s.enter(ctx, "GetEntity"); err != nil {
		return common.Entity{}, err
	}
	return s.inner.GetEntity(ctx, id)
}

func (s *Storage) GetEntities(ctx context.Context, ids []string) ([]common.Entity, error) {
	if err := s.enter(ctx, "GetEntities"); err != nil {
		return nil, err
	}
	return s.inner.GetEntities(ctx, ids)
}

func (s *Storage) ContainmentPath(ctx context.Context, id string, maxDepth int) ([]common.Entity, error) {
	if err := s.enter(ctx, "ContainmentPath"); err != nil {
		return nil, err
	}
	return s.inner.ContainmentPath(ctx, id, maxDepth)
}

func (s *Storage) Children(ctx context.Context, id string) ([]common.Entity, error) {
	if err := s.enter(ctx, "Children"); err != nil {
		return nil, err
	}
	return s.inner.Children(ctx, id)
}

func (s *Storage) Parent(ctx context.Context, id string) (*common.Entity, error) {
	if err := s.enter(ctx, "Parent"); err != nil {
		return nil, err
	}
	return s.inner.Parent(ctx, id)
}

func (s *Storage) Siblings(ctx context.Context, id string) ([]common.Entity, error) {
	if err := s.enter(ctx, "Siblings"); err != nil {
		return nil, err
	}
	return s.inner.Siblings(ctx, id)
}

func (s *Storage) TagsOf(ctx context.Context, id string) ([]common.Entity, error) {
	if err := s.enter(ctx, "TagsOf"); err != nil {
		return nil, err
	}
	return s.inner.TagsOf(ctx, id)
}

func (s *Storage) TaggedWith(ctx context.Context, tagID string, limit int) ([]common.Entity, error) {
	if err := s.enter(ctx, "TaggedWith"); err != nil {
		return nil, err
	}
	return s.inner.TaggedWith(ctx, tagID, limit)
}

func (s *Storage) TagUsage(ctx context.Context, rootID string, limit int) ([]store.TagUsage, error) {
	if err := s.enter(ctx, "TagUsage"); err != nil {
		return nil, err
	}
	return s.inner.TagUsage(ctx, rootID, limit)
}

func (s *Storage) EventParticipants(ctx context.Context, eventID string) ([]common.Entity, error) {
	if err := s.enter(ctx, "EventParticipants"); err != nil {
		return nil, err
	}
	return s.inner.EventParticipants(ctx, eventID)
}

func (s *Storage) EventLocations(ctx context.Context, eventID string) ([]common.Entity, error) {
	if err := s.enter(ctx, "EventLocations"); err != nil {
		return nil, err
	}
	return s.inner.EventLocations(ctx, eventID)
}

func (s *Storage) EventsInvolving(ctx context.Context, id string) ([]common.Entity, error) {
	if err := s.enter(ctx, "EventsInvolving"); err != nil {
		return nil, err
	}
	return s.inner.EventsInvolving(ctx, id)
}

func (s *Storage) ProductAttributes(ctx context.Context, productID string) ([]common.Entity, error) {
	if err := s.enter(ctx, "ProductAttributes"); err != nil {
		return nil, err
	}
	return s.inner.ProductAttributes(ctx, productID)
}

func (s *Storage) ProductMechanics(ctx context.Context, productID string) ([]common.Entity, error) {
	if err := s.enter(ctx, "ProductMechanics"); err != nil {
		return nil, err
	}
	return s.inner.ProductMechanics(ctx, productID)
}

func (s *Storage) Adaptations(ctx context.Context, productID, entityID string) ([]common.Entity, error) {
	if err := s.enter(ctx, "Adaptations"); err != nil {
		return nil, err
	}
	return s.inner.Adaptations(ctx, productID, entityID)
}

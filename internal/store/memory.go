package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"flowcron/internal/flow"
)

// memoryStore keeps flows in a map. Used by tests and for ephemeral runs
// where persistence across restarts does not matter.
type memoryStore struct {
	mu     sync.RWMutex
	flows  map[string]flow.Flow
	closed bool
}

func newMemory() *memoryStore {
	return &memoryStore{flows: make(map[string]flow.Flow)}
}

func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *memoryStore) Create(_ context.Context, f flow.Flow) (flow.Flow, error) {
	f, err := prepareCreate(f, time.Now())
	if err != nil {
		return flow.Flow{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return flow.Flow{}, ErrClosed
	}
	if _, exists := s.flows[f.ID]; exists {
		return flow.Flow{}, fmt.Errorf("flow %s already exists", f.ID)
	}
	s.flows[f.ID] = cloneFlow(f)
	return f, nil
}

func (s *memoryStore) Update(_ context.Context, f flow.Flow) (flow.Flow, error) {
	if err := validateFlow(f); err != nil {
		return flow.Flow{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return flow.Flow{}, ErrClosed
	}
	cur, ok := s.flows[f.ID]
	if !ok {
		return flow.Flow{}, ErrNotFound
	}
	f.CreatedAt = cur.CreatedAt
	f.Schedule = cur.Schedule
	f.UpdatedAt = time.Now()
	s.flows[f.ID] = cloneFlow(f)
	return cloneFlow(f), nil
}

func (s *memoryStore) Get(_ context.Context, id string) (flow.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return flow.Flow{}, ErrClosed
	}
	f, ok := s.flows[id]
	if !ok {
		return flow.Flow{}, ErrNotFound
	}
	return cloneFlow(f), nil
}

func (s *memoryStore) List(_ context.Context, filter flow.Filter) ([]flow.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	var out []flow.Flow
	for _, f := range s.flows {
		if filter.Match(f) {
			out = append(out, cloneFlow(f))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *memoryStore) SetStatus(_ context.Context, id string, status flow.Status) error {
	switch status {
	case flow.StatusActive, flow.StatusPaused:
	default:
		return fmt.Errorf("unknown status %q", status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	f, ok := s.flows[id]
	if !ok {
		return ErrNotFound
	}
	f.Status = status
	f.UpdatedAt = time.Now()
	s.flows[id] = f
	return nil
}

func (s *memoryStore) SetScheduleState(_ context.Context, id string, st flow.ScheduleState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	f, ok := s.flows[id]
	if !ok {
		return ErrNotFound
	}
	cp := st
	f.Schedule = &cp
	f.UpdatedAt = time.Now()
	s.flows[id] = f
	return nil
}

func (s *memoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.flows[id]; !ok {
		return ErrNotFound
	}
	delete(s.flows, id)
	return nil
}

func cloneFlow(f flow.Flow) flow.Flow {
	cp := f
	cp.Params = cloneMap(f.Params)
	cp.Metadata = cloneMap(f.Metadata)
	if f.Schedule != nil {
		st := *f.Schedule
		cp.Schedule = &st
	}
	return cp
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/platinummonkey/aiwu-analytics/pkg/telemetry"
)

// Fixture is the JSON document accepted by LoadFixture.
type Fixture struct {
	Events  []telemetry.Event  `json:"events"`
	Details []telemetry.Detail `json:"details"`
}

// MemoryStore serves a fixed snapshot of the telemetry tables.
type MemoryStore struct {
	mu      sync.RWMutex
	events  []telemetry.Event
	details []telemetry.Detail
	closed  bool
}

// NewMemoryStore returns a store over copies of the given rows.
func NewMemoryStore(events []telemetry.Event, details []telemetry.Detail) *MemoryStore {
	s := &MemoryStore{
		events:  append([]telemetry.Event(nil), events...),
		details: append([]telemetry.Detail(nil), details...),
	}
	sort.SliceStable(s.events, func(i, j int) bool {
		a, b := s.events[i], s.events[j]
		if a.Email != b.Email {
			return a.Email < b.Email
		}
		if !a.Created.Equal(b.Created) {
			return a.Created.Before(b.Created)
		}
		return a.ID < b.ID
	})
	return s
}

// LoadFixture reads a JSON fixture file into a MemoryStore.
func LoadFixture(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode fixture %s: %w", path, err)
	}
	for _, ev := range f.Events {
		if !ev.Mode.Valid() {
			return nil, fmt.Errorf("fixture event %d has unknown mode %d", ev.ID, ev.Mode)
		}
	}
	return NewMemoryStore(f.Events, f.Details), nil
}

// ListEvents implements EventReader.
func (s *MemoryStore) ListEvents(ctx context.Context) ([]telemetry.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return append([]telemetry.Event(nil), s.events...), nil
}

// ListDetails implements EventReader.
func (s *MemoryStore) ListDetails(ctx context.Context) ([]telemetry.Detail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	known := make(map[int64]struct{}, len(s.events))
	for _, ev := range s.events {
		known[ev.ID] = struct{}{}
	}
	out := make([]telemetry.Detail, 0, len(s.details))
	for _, d := range s.details {
		if _, ok := known[d.EventID]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

// Ping implements HealthChecker.
func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return ctx.Err()
}

// Close marks the store unusable.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

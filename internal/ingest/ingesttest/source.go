// Package ingesttest provides an in-memory message source for tests.
package ingesttest

import (
	"context"
	"sync"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
)

// Source replays queued batches, one per Fetch call.
type Source struct {
	name string

	mu      sync.Mutex
	batches [][]domain.Message
	err     error
	calls   int
}

// New creates a source that returns the given batches in order.
func New(name string, batches ...[]domain.Message) *Source {
	return &Source{name: name, batches: batches}
}

// Name implements ingest.Source.
func (s *Source) Name() string {
	return s.name
}

// Push queues another batch.
func (s *Source) Push(batch ...domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batches = append(s.batches, batch)
}

// FailWith makes every following Fetch return err. A nil err clears it.
func (s *Source) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.err = err
}

// Calls returns how many times Fetch ran.
func (s *Source) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls
}

// Fetch implements ingest.Source.
func (s *Source) Fetch(ctx context.Context) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++

	if s.err != nil {
		return nil, s.err
	}

	if len(s.batches) == 0 {
		return nil, nil
	}

	batch := s.batches[0]
	s.batches = s.batches[1:]

	return batch, nil
}

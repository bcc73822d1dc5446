package store

import (
	"context"
	"errors"
	"sync"
)

// MemorySink keeps runs in memory. It backs the server's run history and
// the tests.
type MemorySink struct {
	mu   sync.RWMutex
	runs []Run
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Save appends run.
func (m *MemorySink) Save(_ context.Context, run Run) error {
	if err := check(run); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

// Runs returns the saved runs, oldest first.
func (m *MemorySink) Runs() []Run {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Run(nil), m.runs...)
}

// Len returns the number of saved runs.
func (m *MemorySink) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs)
}

// Close is a no-op.
func (m *MemorySink) Close() error { return nil }

// MultiSink fans a run out to several sinks. Every sink is tried; the
// errors of those that fail are joined.
type MultiSink []Sink

// Save saves run to every sink.
func (ms MultiSink) Save(ctx context.Context, run Run) error {
	var errList []error
	for _, s := range ms {
		if err := s.Save(ctx, run); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}

// Close closes every sink.
func (ms MultiSink) Close() error {
	var errList []error
	for _, s := range ms {
		if err := s.Close(); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}

package persistence

import (
	"context"
	"sync"

	"github.com/hupe1980/recallmesh/core"
)

// InMemoryLog is a volatile Log implementation holding the turn sequence in
// a process local slice. It is safe for concurrent access and best suited for
// tests or ephemeral demo sessions. Loads and saves copy the slice to prevent
// external mutation of internal state.
type InMemoryLog struct {
	mu    sync.RWMutex
	turns []core.Turn
}

// NewInMemoryLog constructs an empty in-memory log.
func NewInMemoryLog() *InMemoryLog {
	return &InMemoryLog{}
}

// Load implements Log.
func (l *InMemoryLog) Load(_ context.Context) ([]core.Turn, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	turns := make([]core.Turn, len(l.turns))
	copy(turns, l.turns)
	return turns, nil
}

// Save implements Log.
func (l *InMemoryLog) Save(_ context.Context, turns []core.Turn) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.turns = make([]core.Turn, len(turns))
	copy(l.turns, turns)
	return nil
}

// Close implements Log.
func (l *InMemoryLog) Close() error { return nil }

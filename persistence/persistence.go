package persistence

import (
	"context"
	"strings"

	"github.com/hupe1980/recallmesh/core"
)

// Log persists the full ordered turn sequence of one session. Implementations
// must treat an absent store (missing file, empty table) as an empty log, not
// an error.
type Log interface {
	// Load reads the complete persisted turn sequence.
	Load(ctx context.Context) ([]core.Turn, error)

	// Save rewrites the complete persisted turn sequence. On error the
	// previously persisted state must remain readable.
	Save(ctx context.Context, turns []core.Turn) error

	// Close releases any held resources.
	Close() error
}

// New selects a backend from the configured location: a postgres:// (or
// postgresql://) URL yields a PostgresLog, a non-empty path a FileLog and an
// empty location a volatile InMemoryLog.
func New(ctx context.Context, location, sessionID string) (Log, error) {
	switch {
	case location == "":
		return NewInMemoryLog(), nil
	case strings.HasPrefix(location, "postgres://") || strings.HasPrefix(location, "postgresql://"):
		return NewPostgresLog(ctx, location, sessionID)
	default:
		return NewFileLog(location), nil
	}
}

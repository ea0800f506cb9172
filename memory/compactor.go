package memory

import (
	"context"

	"github.com/hupe1980/recallmesh/core"
	"github.com/hupe1980/recallmesh/logging"
)

// Summarizer condenses a sequence of turns into free text. Implementations
// are treated as a black box capability; see the summarize package for a
// model-backed one.
type Summarizer interface {
	Summarize(ctx context.Context, turns []core.Turn) (string, error)
}

// SummarizerFunc adapts a plain function to the Summarizer interface.
type SummarizerFunc func(ctx context.Context, turns []core.Turn) (string, error)

// Summarize implements Summarizer.
func (f SummarizerFunc) Summarize(ctx context.Context, turns []core.Turn) (string, error) {
	return f(ctx, turns)
}

// CompactionMode identifies how a compaction reduced the log.
type CompactionMode string

const (
	// CompactionNone means the log was left untouched.
	CompactionNone CompactionMode = "none"
	// CompactionSummary means a prefix was replaced by a summary turn.
	CompactionSummary CompactionMode = "summary"
	// CompactionTruncate means the oldest turns were dropped without a
	// summary (degraded mode when no summarizer is available or it fails).
	CompactionTruncate CompactionMode = "truncate"
)

// Compactor reduces the memory log while preserving the earliest possible
// recoverable signal. It splits at the midpoint rather than peeling off the
// oldest turns: this bounds the worst case summarization input while each
// compaction strictly halves the log, so repeated overflow cannot loop.
type Compactor struct {
	summarizer  Summarizer
	maxMessages int
	logger      logging.Logger
}

// NewCompactor builds a compactor. A nil summarizer puts the compactor
// permanently in truncation fallback.
func NewCompactor(summarizer Summarizer, maxMessages int, logger logging.Logger) *Compactor {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Compactor{summarizer: summarizer, maxMessages: maxMessages, logger: logger}
}

// Compact returns the reduced log and the mode applied. The input slice is
// never mutated; a failed summarization leaves the caller's log intact and
// falls back to truncation. Compact never returns a log longer than the
// input.
func (c *Compactor) Compact(ctx context.Context, turns []core.Turn) ([]core.Turn, CompactionMode) {
	split := len(turns) / 2
	if split == 0 {
		return turns, CompactionNone
	}

	if c.summarizer == nil {
		c.logger.Warn("memory.compact.no_summarizer", "len", len(turns))
		return c.truncate(turns)
	}

	text, err := c.summarizer.Summarize(ctx, turns[:split])
	if err != nil {
		c.logger.Warn("memory.compact.summarize_failed", "error", err.Error(), "len", len(turns))
		return c.truncate(turns)
	}

	result := make([]core.Turn, 0, len(turns)-split+1)
	result = append(result, core.NewSummaryTurn(text))
	result = append(result, turns[split:]...)

	c.logger.Info("memory.compact.summarized", "before", len(turns), "after", len(result))

	return result, CompactionSummary
}

// truncate keeps only the most recent maxMessages turns.
func (c *Compactor) truncate(turns []core.Turn) ([]core.Turn, CompactionMode) {
	if c.maxMessages <= 0 || len(turns) <= c.maxMessages {
		return turns, CompactionNone
	}
	result := make([]core.Turn, c.maxMessages)
	copy(result, turns[len(turns)-c.maxMessages:])
	return result, CompactionTruncate
}

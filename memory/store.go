package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/recallmesh/core"
	"github.com/hupe1980/recallmesh/logging"
	"github.com/hupe1980/recallmesh/observe"
	"github.com/hupe1980/recallmesh/persistence"
)

// StoreOptions configures a Store instance.
type StoreOptions struct {
	// MaxMessages bounds the log length; any mutation leaving the log longer
	// triggers compaction before it returns.
	MaxMessages int
	// Summarizer powers compaction. Nil selects the truncation fallback.
	Summarizer Summarizer
	// Logger defaults to a NoOp logger if nil.
	Logger logging.Logger
	// Metrics is optional; nil disables instrumentation.
	Metrics *observe.Metrics
}

// Store is the bounded ordered log of conversation turns for a single
// session. It owns the invariants the inference service depends on:
//
//   - the leading turn is always system role once EnsureSystemPrompt ran
//   - the log never exceeds MaxMessages after a mutation returns
//   - every successful mutation is written through to the backend before
//     the call returns; a failed write rolls the mutation back
//
// The store is constructed explicitly and injected into the dispatch loop;
// one store serves one persisted session.
type Store struct {
	mu        sync.Mutex
	turns     []core.Turn
	nextSeq   int
	backend   persistence.Log
	compactor *Compactor
	max       int
	logger    logging.Logger
	metrics   *observe.Metrics
}

// NewStore creates a memory store over the given backend. Call Load before
// first use to pick up persisted state.
func NewStore(backend persistence.Log, optFns ...func(o *StoreOptions)) *Store {
	opts := StoreOptions{
		MaxMessages: 50,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Store{
		backend:   backend,
		compactor: NewCompactor(opts.Summarizer, opts.MaxMessages, opts.Logger),
		max:       opts.MaxMessages,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
}

// Load replaces the in-memory log with the persisted state. The next append
// ordinal resumes after the highest persisted one.
func (s *Store) Load(ctx context.Context) error {
	turns, err := s.backend.Load(ctx)
	if err != nil {
		return fmt.Errorf("load memory log: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = turns
	s.nextSeq = 0
	for _, t := range turns {
		if t.Seq >= s.nextSeq {
			s.nextSeq = t.Seq + 1
		}
	}
	s.metrics.ObserveStoreSize(len(s.turns))

	s.logger.Info("memory.load", "turns", len(turns), "next_seq", s.nextSeq)

	return nil
}

// Append inserts a new turn at the end of the log, compacting first if the
// insertion overflows the bound. It fails with *core.InvalidRoleError for a
// role outside the closed set and with *PersistenceError when the
// write-through fails (in which case the log is unchanged).
func (s *Store) Append(ctx context.Context, role core.Role, content string) error {
	return s.append(ctx, role, content, false)
}

// AppendNote inserts a private assistant note. Notes are rendered distinctly
// in the transcript and never surface as a normal reply.
func (s *Store) AppendNote(ctx context.Context, content string) error {
	return s.append(ctx, core.RoleAssistant, content, true)
}

func (s *Store) append(ctx context.Context, role core.Role, content string, note bool) error {
	if !role.Valid() {
		return &core.InvalidRoleError{Role: string(role)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, prevSeq := s.snapshotLocked()

	s.turns = append(s.turns, core.Turn{Role: role, Content: content, Seq: s.nextSeq, Note: note})
	s.nextSeq++

	mode := CompactionNone
	if len(s.turns) > s.max {
		s.turns, mode = s.compactor.Compact(ctx, s.turns)
	}

	if err := s.backend.Save(ctx, s.turns); err != nil {
		s.restoreLocked(prev, prevSeq)
		return &PersistenceError{Op: "append", Err: err}
	}

	s.metrics.ObserveAppend(string(role), len(s.turns))
	if mode != CompactionNone {
		s.metrics.ObserveCompaction(string(mode), len(s.turns))
	}

	return nil
}

// Turns returns a defensive copy of the current log snapshot.
func (s *Store) Turns() []core.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := make([]core.Turn, len(s.turns))
	copy(turns, s.turns)
	return turns
}

// Len returns the current log length.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// MaxMessages returns the configured length bound.
func (s *Store) MaxMessages() int { return s.max }

// EnsureSystemPrompt enforces the anchor invariant: the leading turn carries
// the current system prompt. It is idempotent and is called at session start
// and whenever the prompt template changes. A summary turn at position zero
// (the log was compacted before the last shutdown) is preserved by inserting
// the anchor in front of it rather than overwriting it.
func (s *Store) EnsureSystemPrompt(ctx context.Context, prompt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, prevSeq := s.snapshotLocked()

	anchor := core.Turn{Role: core.RoleSystem, Content: prompt, Seq: core.SyntheticSeq}
	switch {
	case len(s.turns) == 0:
		s.turns = []core.Turn{anchor}
	case s.turns[0].Role == core.RoleSystem && !s.turns[0].IsSummary():
		if s.turns[0].Content == prompt {
			return nil
		}
		s.turns[0].Content = prompt
	default:
		s.turns = append([]core.Turn{anchor}, s.turns...)
	}

	mode := CompactionNone
	if len(s.turns) > s.max {
		s.turns, mode = s.compactor.Compact(ctx, s.turns)
	}

	if err := s.backend.Save(ctx, s.turns); err != nil {
		s.restoreLocked(prev, prevSeq)
		return &PersistenceError{Op: "ensure system prompt", Err: err}
	}

	s.metrics.ObserveStoreSize(len(s.turns))
	if mode != CompactionNone {
		s.metrics.ObserveCompaction(string(mode), len(s.turns))
	}

	return nil
}

// ReviseAssistant overwrites the content of the assistant turn addressed by
// its append ordinal and returns a confirmation string. Ordinals stay stable
// across compactions: revising a turn that a compaction folded into a summary
// fails with *TurnCompactedError instead of silently hitting the wrong turn.
func (s *Store) ReviseAssistant(ctx context.Context, logicalIndex int, newContent string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if logicalIndex < 0 || logicalIndex >= s.nextSeq {
		return "", &IndexOutOfRangeError{Index: logicalIndex}
	}

	pos := -1
	for i, t := range s.turns {
		if !t.IsSynthetic() && t.Seq == logicalIndex {
			pos = i
			break
		}
	}
	if pos < 0 {
		return "", &TurnCompactedError{Index: logicalIndex}
	}
	if s.turns[pos].Role != core.RoleAssistant {
		return "", &WrongRoleError{Index: logicalIndex, Role: s.turns[pos].Role}
	}

	previous := s.turns[pos].Content
	s.turns[pos].Content = newContent

	if err := s.backend.Save(ctx, s.turns); err != nil {
		s.turns[pos].Content = previous
		return "", &PersistenceError{Op: "revise", Err: err}
	}

	s.logger.Info("memory.revise", "index", logicalIndex)

	return fmt.Sprintf("Assistant message at index %d revised.", logicalIndex), nil
}

// Clear empties the log and persists the empty state. Append ordinals start
// over from zero.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, prevSeq := s.snapshotLocked()

	s.turns = nil
	s.nextSeq = 0

	if err := s.backend.Save(ctx, s.turns); err != nil {
		s.restoreLocked(prev, prevSeq)
		return &PersistenceError{Op: "clear", Err: err}
	}

	s.metrics.ObserveStoreSize(0)
	s.logger.Info("memory.clear")

	return nil
}

// Compact runs the compaction engine directly, outside the length trigger
// (the summarize_memory tool path). It reports whether a summary was
// produced. A summarizer failure degrades to truncation, never to an error;
// only a failed write-through surfaces.
func (s *Store) Compact(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, prevSeq := s.snapshotLocked()

	var mode CompactionMode
	s.turns, mode = s.compactor.Compact(ctx, s.turns)
	if mode == CompactionNone {
		return false, nil
	}

	if err := s.backend.Save(ctx, s.turns); err != nil {
		s.restoreLocked(prev, prevSeq)
		return false, &PersistenceError{Op: "compact", Err: err}
	}

	s.metrics.ObserveCompaction(string(mode), len(s.turns))

	return mode == CompactionSummary, nil
}

// LatestSummary returns the content of the most recent summary turn, if any.
func (s *Store) LatestSummary() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.turns) - 1; i >= 0; i-- {
		if s.turns[i].IsSummary() {
			return s.turns[i].Content, true
		}
	}
	return "", false
}

// snapshotLocked captures the state needed to roll back a mutation whose
// write-through fails. Caller must hold the lock.
func (s *Store) snapshotLocked() ([]core.Turn, int) {
	prev := make([]core.Turn, len(s.turns))
	copy(prev, s.turns)
	return prev, s.nextSeq
}

func (s *Store) restoreLocked(turns []core.Turn, nextSeq int) {
	s.turns = turns
	s.nextSeq = nextSeq
}

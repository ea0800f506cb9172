package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/recallmesh/core"
	"github.com/hupe1980/recallmesh/persistence"
)

// staticSummarizer returns a fixed summary text for every call.
func staticSummarizer(text string) Summarizer {
	return SummarizerFunc(func(context.Context, []core.Turn) (string, error) {
		return text, nil
	})
}

// failingSummarizer fails on every call.
var failingSummarizer = SummarizerFunc(func(context.Context, []core.Turn) (string, error) {
	return "", errors.New("summarizer unavailable")
})

// flakyLog wraps an InMemoryLog and fails saves on demand.
type flakyLog struct {
	*persistence.InMemoryLog
	failSave bool
}

func (f *flakyLog) Save(ctx context.Context, turns []core.Turn) error {
	if f.failSave {
		return errors.New("disk full")
	}
	return f.InMemoryLog.Save(ctx, turns)
}

func newTestStore(t *testing.T, max int, summarizer Summarizer) (*Store, *persistence.InMemoryLog) {
	t.Helper()
	backend := persistence.NewInMemoryLog()
	store := NewStore(backend, func(o *StoreOptions) {
		o.MaxMessages = max
		o.Summarizer = summarizer
	})
	require.NoError(t, store.Load(context.Background()))
	return store, backend
}

func TestAppendRejectsInvalidRole(t *testing.T) {
	store, _ := newTestStore(t, 10, nil)

	err := store.Append(context.Background(), core.Role("moderator"), "hi")
	assert.Error(t, err)
	var invErr *core.InvalidRoleError
	assert.ErrorAs(t, err, &invErr)
	assert.Equal(t, 0, store.Len())
}

func TestAppendPersistsWriteThrough(t *testing.T) {
	store, backend := newTestStore(t, 10, nil)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, core.RoleUser, "hi"))
	require.NoError(t, store.Append(ctx, core.RoleAssistant, "hello"))

	persisted, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.Turns(), persisted)
	assert.Equal(t, 0, persisted[0].Seq)
	assert.Equal(t, 1, persisted[1].Seq)
}

func TestEnsureSystemPromptAnchorInvariant(t *testing.T) {
	store, _ := newTestStore(t, 10, nil)
	ctx := context.Background()

	// Empty log: anchor inserted.
	require.NoError(t, store.EnsureSystemPrompt(ctx, "prompt v1"))
	turns := store.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, core.RoleSystem, turns[0].Role)
	assert.Equal(t, "prompt v1", turns[0].Content)

	// Idempotent.
	require.NoError(t, store.EnsureSystemPrompt(ctx, "prompt v1"))
	assert.Equal(t, 1, store.Len())

	// Prompt change overwrites the anchor in place.
	require.NoError(t, store.Append(ctx, core.RoleUser, "hi"))
	require.NoError(t, store.EnsureSystemPrompt(ctx, "prompt v2"))
	turns = store.Turns()
	assert.Equal(t, "prompt v2", turns[0].Content)
	assert.Equal(t, 2, store.Len())
}

func TestEnsureSystemPromptInsertsBeforeLeadingSummary(t *testing.T) {
	backend := persistence.NewInMemoryLog()
	ctx := context.Background()
	require.NoError(t, backend.Save(ctx, []core.Turn{
		core.NewSummaryTurn("old context"),
		{Role: core.RoleUser, Content: "bye", Seq: 7},
	}))

	store := NewStore(backend, func(o *StoreOptions) { o.MaxMessages = 10 })
	require.NoError(t, store.Load(ctx))
	require.NoError(t, store.EnsureSystemPrompt(ctx, "prompt"))

	turns := store.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, "prompt", turns[0].Content)
	assert.True(t, turns[1].IsSummary())
}

func TestEnsureSystemPromptRestoresAnchorAfterNonSystemHead(t *testing.T) {
	backend := persistence.NewInMemoryLog()
	ctx := context.Background()
	require.NoError(t, backend.Save(ctx, []core.Turn{
		{Role: core.RoleUser, Content: "orphaned", Seq: 0},
	}))

	store := NewStore(backend, func(o *StoreOptions) { o.MaxMessages = 10 })
	require.NoError(t, store.Load(ctx))
	require.NoError(t, store.EnsureSystemPrompt(ctx, "prompt"))

	turns := store.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, core.RoleSystem, turns[0].Role)
	assert.Equal(t, core.RoleUser, turns[1].Role)
}

func TestAppendTriggersCompactionAtBound(t *testing.T) {
	store, _ := newTestStore(t, 4, staticSummarizer("the early conversation"))
	ctx := context.Background()

	require.NoError(t, store.EnsureSystemPrompt(ctx, "prompt"))
	require.NoError(t, store.Append(ctx, core.RoleUser, "hi"))
	require.NoError(t, store.Append(ctx, core.RoleAssistant, "hello"))
	require.NoError(t, store.Append(ctx, core.RoleUser, "bye"))
	// Length would be 5 > 4: split at floor(5/2)=2 summarizes
	// [anchor, user("hi")] leaving [summary, assistant, user].
	require.NoError(t, store.Append(ctx, core.RoleAssistant, "ok"))

	turns := store.Turns()
	require.Len(t, turns, 4)
	assert.True(t, turns[0].IsSummary())
	assert.Equal(t, core.SummaryPrefix+"the early conversation", turns[0].Content)
	assert.Equal(t, "hello", turns[1].Content)
	assert.Equal(t, "bye", turns[2].Content)
	assert.Equal(t, "ok", turns[3].Content)
	assert.LessOrEqual(t, store.Len(), store.MaxMessages())
}

func TestSizeBoundHoldsUnderSustainedAppends(t *testing.T) {
	store, _ := newTestStore(t, 6, staticSummarizer("s"))
	ctx := context.Background()
	require.NoError(t, store.EnsureSystemPrompt(ctx, "prompt"))

	for i := 0; i < 40; i++ {
		role := core.RoleUser
		if i%2 == 1 {
			role = core.RoleAssistant
		}
		require.NoError(t, store.Append(ctx, role, "turn"))
		assert.LessOrEqual(t, store.Len(), 6)
	}
}

func TestCompactionFallbackTruncatesWithoutSummarizer(t *testing.T) {
	store, _ := newTestStore(t, 3, nil)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, core.RoleUser, "a"))
	require.NoError(t, store.Append(ctx, core.RoleAssistant, "b"))
	require.NoError(t, store.Append(ctx, core.RoleUser, "c"))
	require.NoError(t, store.Append(ctx, core.RoleAssistant, "d"))

	turns := store.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, "b", turns[0].Content)
	assert.Equal(t, "d", turns[2].Content)
	for _, tr := range turns {
		assert.False(t, tr.IsSummary())
	}
}

func TestCompactionFallbackOnSummarizerError(t *testing.T) {
	store, _ := newTestStore(t, 3, failingSummarizer)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, core.RoleUser, "a"))
	require.NoError(t, store.Append(ctx, core.RoleAssistant, "b"))
	require.NoError(t, store.Append(ctx, core.RoleUser, "c"))
	// Summarizer fails on the overflowing append; degrade to truncation
	// without surfacing an error.
	require.NoError(t, store.Append(ctx, core.RoleAssistant, "d"))

	turns := store.Turns()
	require.Len(t, turns, 3)
	for _, tr := range turns {
		assert.False(t, tr.IsSummary())
	}
}

func TestReviseAssistant(t *testing.T) {
	store, backend := newTestStore(t, 10, nil)
	ctx := context.Background()

	require.NoError(t, store.EnsureSystemPrompt(ctx, "prompt"))
	require.NoError(t, store.Append(ctx, core.RoleUser, "q"))
	require.NoError(t, store.Append(ctx, core.RoleAssistant, "a"))

	// Ordinal 1 is the assistant turn (physical position 2).
	confirmation, err := store.ReviseAssistant(ctx, 1, "corrected")
	require.NoError(t, err)
	assert.Contains(t, confirmation, "index 1")

	turns := store.Turns()
	assert.Equal(t, "corrected", turns[2].Content)
	assert.Equal(t, core.RoleAssistant, turns[2].Role)

	persisted, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "corrected", persisted[2].Content)
}

func TestReviseAssistantWrongRole(t *testing.T) {
	store, _ := newTestStore(t, 10, nil)
	ctx := context.Background()

	require.NoError(t, store.EnsureSystemPrompt(ctx, "prompt"))
	require.NoError(t, store.Append(ctx, core.RoleUser, "q"))

	_, err := store.ReviseAssistant(ctx, 0, "x")
	var wrongRole *WrongRoleError
	require.ErrorAs(t, err, &wrongRole)
	assert.Equal(t, core.RoleUser, wrongRole.Role)
	assert.Equal(t, "q", store.Turns()[1].Content)
}

func TestReviseAssistantOutOfRange(t *testing.T) {
	store, _ := newTestStore(t, 10, nil)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, core.RoleUser, "q"))

	_, err := store.ReviseAssistant(ctx, 5, "x")
	var oor *IndexOutOfRangeError
	assert.ErrorAs(t, err, &oor)

	_, err = store.ReviseAssistant(ctx, -1, "x")
	assert.ErrorAs(t, err, &oor)
}

func TestReviseAssistantCompactedOrdinal(t *testing.T) {
	store, _ := newTestStore(t, 4, staticSummarizer("s"))
	ctx := context.Background()

	require.NoError(t, store.EnsureSystemPrompt(ctx, "prompt"))
	require.NoError(t, store.Append(ctx, core.RoleUser, "hi"))
	require.NoError(t, store.Append(ctx, core.RoleAssistant, "hello"))
	require.NoError(t, store.Append(ctx, core.RoleUser, "bye"))
	require.NoError(t, store.Append(ctx, core.RoleAssistant, "ok"))

	// Ordinal 0 (user "hi") was folded into the summary.
	_, err := store.ReviseAssistant(ctx, 0, "x")
	var compacted *TurnCompactedError
	assert.ErrorAs(t, err, &compacted)

	// Ordinal 1 (assistant "hello") survived the compaction and is still
	// addressable even though its physical position changed.
	confirmation, err := store.ReviseAssistant(ctx, 1, "hello there")
	require.NoError(t, err)
	assert.Contains(t, confirmation, "index 1")
	assert.Equal(t, "hello there", store.Turns()[1].Content)
}

func TestMutationsRollBackOnPersistFailure(t *testing.T) {
	backend := &flakyLog{InMemoryLog: persistence.NewInMemoryLog()}
	store := NewStore(backend, func(o *StoreOptions) { o.MaxMessages = 10 })
	ctx := context.Background()
	require.NoError(t, store.Load(ctx))

	require.NoError(t, store.Append(ctx, core.RoleUser, "q"))
	require.NoError(t, store.Append(ctx, core.RoleAssistant, "a"))

	backend.failSave = true

	var persistErr *PersistenceError

	err := store.Append(ctx, core.RoleUser, "lost")
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, 2, store.Len())

	_, err = store.ReviseAssistant(ctx, 1, "lost")
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, "a", store.Turns()[1].Content)

	err = store.Clear(ctx)
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, 2, store.Len())

	// Ordinal assignment resumes as if the failed append never happened.
	backend.failSave = false
	require.NoError(t, store.Append(ctx, core.RoleUser, "next"))
	turns := store.Turns()
	assert.Equal(t, 2, turns[2].Seq)
}

func TestClear(t *testing.T) {
	store, backend := newTestStore(t, 10, nil)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, core.RoleUser, "hi"))
	require.NoError(t, store.Clear(ctx))

	assert.Equal(t, 0, store.Len())
	persisted, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, persisted)

	// Ordinals restart after a clear.
	require.NoError(t, store.Append(ctx, core.RoleUser, "again"))
	assert.Equal(t, 0, store.Turns()[0].Seq)
}

func TestDirectCompactAndLatestSummary(t *testing.T) {
	store, _ := newTestStore(t, 10, staticSummarizer("early facts"))
	ctx := context.Background()

	require.NoError(t, store.EnsureSystemPrompt(ctx, "prompt"))
	require.NoError(t, store.Append(ctx, core.RoleUser, "hi"))
	require.NoError(t, store.Append(ctx, core.RoleAssistant, "hello"))
	require.NoError(t, store.Append(ctx, core.RoleUser, "bye"))

	_, ok := store.LatestSummary()
	assert.False(t, ok)

	summarized, err := store.Compact(ctx)
	require.NoError(t, err)
	assert.True(t, summarized)

	summary, ok := store.LatestSummary()
	assert.True(t, ok)
	assert.Equal(t, core.SummaryPrefix+"early facts", summary)
}

func TestLoadResumesOrdinals(t *testing.T) {
	backend := persistence.NewInMemoryLog()
	ctx := context.Background()

	store := NewStore(backend, func(o *StoreOptions) { o.MaxMessages = 10 })
	require.NoError(t, store.Load(ctx))
	require.NoError(t, store.EnsureSystemPrompt(ctx, "prompt"))
	require.NoError(t, store.Append(ctx, core.RoleUser, "hi"))
	require.NoError(t, store.Append(ctx, core.RoleAssistant, "hello"))

	// Simulate a restart over the same backend.
	reloaded := NewStore(backend, func(o *StoreOptions) { o.MaxMessages = 10 })
	require.NoError(t, reloaded.Load(ctx))
	require.NoError(t, reloaded.Append(ctx, core.RoleUser, "back"))

	turns := reloaded.Turns()
	assert.Equal(t, 2, turns[len(turns)-1].Seq)
}

func TestAppendNote(t *testing.T) {
	store, _ := newTestStore(t, 10, nil)
	ctx := context.Background()

	require.NoError(t, store.AppendNote(ctx, "user's cat is named Miso"))

	turns := store.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, core.RoleAssistant, turns[0].Role)
	assert.True(t, turns[0].Note)
}

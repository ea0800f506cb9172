package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/recallmesh/core"
	"github.com/hupe1980/recallmesh/internal/testutil"
)

func TestCompactorSummarizesFirstHalf(t *testing.T) {
	var got []core.Turn
	summarizer := SummarizerFunc(func(_ context.Context, turns []core.Turn) (string, error) {
		got = turns
		return "condensed", nil
	})
	c := NewCompactor(summarizer, 10, nil)

	log := testutil.Conversation("prompt", "q1", "a1", "q2", "a2", "q3", "a3")
	result, mode := c.Compact(context.Background(), log)

	assert.Equal(t, CompactionSummary, mode)
	// len 7, split 3: [anchor, q1, a1] summarized.
	require.Len(t, got, 3)
	assert.Equal(t, "q1", got[1].Content)

	require.Len(t, result, 5)
	assert.True(t, result[0].IsSummary())
	assert.Equal(t, "q2", result[1].Content)
	assert.Equal(t, "a3", result[4].Content)
}

func TestCompactionProgressBound(t *testing.T) {
	c := NewCompactor(staticSummarizer("s"), 100, nil)

	for length := 2; length <= 21; length++ {
		contents := make([]string, length-1)
		for i := range contents {
			contents[i] = "t"
		}
		log := testutil.Conversation("prompt", contents...)
		require.Len(t, log, length)

		result, mode := c.Compact(context.Background(), log)
		assert.Equal(t, CompactionSummary, mode)
		assert.LessOrEqual(t, len(result), length-length/2+1, "length %d", length)
	}
}

func TestCompactorLeavesTinyLogsAlone(t *testing.T) {
	c := NewCompactor(staticSummarizer("s"), 10, nil)

	result, mode := c.Compact(context.Background(), nil)
	assert.Equal(t, CompactionNone, mode)
	assert.Empty(t, result)

	single := []core.Turn{testutil.Anchor("prompt")}
	result, mode = c.Compact(context.Background(), single)
	assert.Equal(t, CompactionNone, mode)
	assert.Equal(t, single, result)
}

func TestCompactorFailureKeepsInputIntact(t *testing.T) {
	c := NewCompactor(failingSummarizer, 4, nil)

	log := testutil.Conversation("prompt", "q1", "a1", "q2", "a2", "q3")
	before := make([]core.Turn, len(log))
	copy(before, log)

	result, mode := c.Compact(context.Background(), log)

	assert.Equal(t, CompactionTruncate, mode)
	assert.Equal(t, before, log, "input slice must not be mutated")
	require.Len(t, result, 4)
	assert.Equal(t, "a1", result[0].Content)
	for _, tr := range result {
		assert.False(t, tr.IsSummary())
	}
}

func TestCompactorTruncateNoOpUnderBound(t *testing.T) {
	c := NewCompactor(nil, 10, nil)

	log := testutil.Conversation("prompt", "q1", "a1")
	result, mode := c.Compact(context.Background(), log)
	assert.Equal(t, CompactionNone, mode)
	assert.Equal(t, log, result)
}

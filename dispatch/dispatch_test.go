package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/recallmesh/core"
	"github.com/hupe1980/recallmesh/memory"
	"github.com/hupe1980/recallmesh/model"
	"github.com/hupe1980/recallmesh/persistence"
)

// errModel fails every generation with a fixed error.
type errModel struct {
	err error
}

func (m errModel) Generate(context.Context, model.Request) (*model.Response, error) {
	return nil, m.err
}

func (m errModel) Info() model.Info {
	return model.Info{Name: "err", Provider: "test"}
}

func newTestStore(t *testing.T, optFns ...func(o *memory.StoreOptions)) *memory.Store {
	t.Helper()
	return memory.NewStore(persistence.NewInMemoryLog(), optFns...)
}

func roleContents(turns []core.Turn, role core.Role) []string {
	var out []string
	for _, turn := range turns {
		if turn.Role == role {
			out = append(out, turn.Content)
		}
	}
	return out
}

func TestRunPlainResponse(t *testing.T) {
	store := newTestStore(t)
	mock := model.NewMockModel("test")
	mock.EnqueueText("Hello there!")

	loop := NewLoop(store, mock)
	out, err := loop.Run(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello there!", out)

	turns := store.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, core.RoleUser, turns[0].Role)
	assert.Equal(t, core.RoleAssistant, turns[1].Role)

	require.Len(t, mock.Requests, 1)
	assert.NotEmpty(t, mock.Requests[0].Tools, "tool schema must accompany every round")
}

func TestRunSaveNoteIsNeverTheFinalReply(t *testing.T) {
	store := newTestStore(t)
	mock := model.NewMockModel("test")
	mock.EnqueueToolCall("save_note", map[string]any{"note": "user's cat is Miso"})
	mock.EnqueueText("Got it, I'll remember that.")

	loop := NewLoop(store, mock)
	out, err := loop.Run(context.Background(), "my cat is named Miso")
	require.NoError(t, err)
	assert.Equal(t, "Got it, I'll remember that.", out)
	assert.NotEqual(t, "Note saved to memory.", out)

	var noteTurn *core.Turn
	turns := store.Turns()
	for i := range turns {
		if turns[i].Note {
			noteTurn = &turns[i]
		}
	}
	require.NotNil(t, noteTurn, "note turn must be stored")
	assert.Equal(t, core.RoleAssistant, noteTurn.Role)
	assert.Equal(t, "user's cat is Miso", noteTurn.Content)

	assert.Contains(t, roleContents(store.Turns(), core.RoleTool), "Note saved to memory.")
	assert.Len(t, mock.Requests, 2, "the loop must re-invoke after tool execution")
}

func TestRunReadFullMemoryReinvokes(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Append(context.Background(), core.RoleUser, "my cat is named Miso"))
	require.NoError(t, store.Append(context.Background(), core.RoleAssistant, "Cute name!"))

	mock := model.NewMockModel("test")
	mock.EnqueueToolCall("read_full_memory", nil)
	mock.EnqueueText("You told me your cat is named Miso.")

	loop := NewLoop(store, mock)
	out, err := loop.Run(context.Background(), "what is my cat's name?")
	require.NoError(t, err)
	assert.Equal(t, "You told me your cat is named Miso.", out)

	require.Len(t, mock.Requests, 2)
	secondRound := mock.Requests[1].Turns
	results := roleContents(secondRound, core.RoleTool)
	require.Len(t, results, 1)
	assert.Contains(t, results[0], "my cat is named Miso", "transcript must reach the model before any final output")
}

func TestRunSummarizeMemoryTool(t *testing.T) {
	store := newTestStore(t, func(o *memory.StoreOptions) {
		o.Summarizer = memory.SummarizerFunc(func(context.Context, []core.Turn) (string, error) {
			return "User's cat is named Miso.", nil
		})
	})
	require.NoError(t, store.Append(context.Background(), core.RoleUser, "my cat is named Miso"))
	require.NoError(t, store.Append(context.Background(), core.RoleAssistant, "Cute name!"))

	mock := model.NewMockModel("test")
	mock.EnqueueToolCall("summarize_memory", nil)
	mock.EnqueueText("I refreshed my memory.")

	loop := NewLoop(store, mock)
	out, err := loop.Run(context.Background(), "please summarize")
	require.NoError(t, err)
	assert.Equal(t, "I refreshed my memory.", out)

	results := roleContents(store.Turns(), core.RoleTool)
	require.Len(t, results, 1)
	assert.Contains(t, results[0], "I've reviewed the conversation history")
	assert.Contains(t, results[0], "User's cat is named Miso.")
}

func TestRunReviseMessageErrorsBecomeToolResults(t *testing.T) {
	store := newTestStore(t)
	mock := model.NewMockModel("test")
	mock.EnqueueToolCall("revise_message", map[string]any{"message_index": 99, "new_content": "fixed"})
	mock.EnqueueText("Sorry, I couldn't revise that.")

	loop := NewLoop(store, mock)
	out, err := loop.Run(context.Background(), "fix your last answer")
	require.NoError(t, err, "tool-level failures must not fail the loop")
	assert.Equal(t, "Sorry, I couldn't revise that.", out)

	assert.Contains(t, roleContents(store.Turns(), core.RoleTool), "Error: Invalid message index.")
}

func TestRunInvalidArgumentsBecomeToolResults(t *testing.T) {
	store := newTestStore(t)
	mock := model.NewMockModel("test")
	mock.EnqueueToolCall("save_note", nil)
	mock.EnqueueText("Let me try that again.")

	loop := NewLoop(store, mock)
	_, err := loop.Run(context.Background(), "remember this")
	require.NoError(t, err)

	results := roleContents(store.Turns(), core.RoleTool)
	require.Len(t, results, 1)
	assert.Contains(t, results[0], "invalid arguments for save_note")
}

func TestRunUnknownTool(t *testing.T) {
	store := newTestStore(t)
	mock := model.NewMockModel("test")
	mock.EnqueueToolCall("delete_everything", nil)
	mock.EnqueueText("I can't do that.")

	loop := NewLoop(store, mock)
	_, err := loop.Run(context.Background(), "wipe the disk")
	require.NoError(t, err)

	assert.Contains(t, roleContents(store.Turns(), core.RoleTool), "Unknown tool called: delete_everything")
}

func TestRunTimeoutClassification(t *testing.T) {
	store := newTestStore(t)

	loop := NewLoop(store, errModel{err: context.DeadlineExceeded})
	_, err := loop.Run(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrInferenceTimeout)

	loop = NewLoop(store, errModel{err: errors.New("connection refused")})
	_, err = loop.Run(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrInferenceTransport)
}

func TestRunToolRoundBound(t *testing.T) {
	store := newTestStore(t)
	mock := model.NewMockModel("test")
	mock.EnqueueToolCall("read_full_memory", nil)
	mock.EnqueueToolCall("read_full_memory", nil)
	mock.EnqueueToolCall("read_full_memory", nil)

	loop := NewLoop(store, mock, func(o *Options) { o.MaxRounds = 2 })
	_, err := loop.Run(context.Background(), "loop forever")
	assert.ErrorIs(t, err, ErrTooManyToolRounds)
}

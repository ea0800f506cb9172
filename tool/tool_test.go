package tool

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/recallmesh/model"
)

func call(name string, args string) model.ToolCall {
	return model.ToolCall{ID: "call-1", Name: name, Arguments: json.RawMessage(args)}
}

func TestDefinitions(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, 4)

	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	assert.Equal(t, []string{NameSummarizeMemory, NameSaveNote, NameReviseMessage, NameReadFullMemory}, names)

	for _, d := range defs {
		assert.NotEmpty(t, d.Description)
		assert.Equal(t, "object", d.Parameters["type"])
	}
}

func TestDecodeNoArgTools(t *testing.T) {
	assert.Equal(t, SummarizeMemory{}, Decode(call(NameSummarizeMemory, "")))
	assert.Equal(t, SummarizeMemory{}, Decode(call(NameSummarizeMemory, "{}")))
	assert.Equal(t, ReadFullMemory{}, Decode(call(NameReadFullMemory, "{}")))
}

func TestDecodeSaveNote(t *testing.T) {
	req := Decode(call(NameSaveNote, `{"note":"cat is Miso"}`))
	assert.Equal(t, SaveNote{Note: "cat is Miso"}, req)
}

func TestDecodeSaveNoteMissingArg(t *testing.T) {
	req := Decode(call(NameSaveNote, `{}`))
	inv, ok := req.(Invalid)
	require.True(t, ok, "missing required argument must decode to Invalid, got %T", req)
	assert.Equal(t, NameSaveNote, inv.Name)
	assert.Contains(t, inv.Reason, "note")
}

func TestDecodeReviseMessage(t *testing.T) {
	req := Decode(call(NameReviseMessage, `{"message_index":2,"new_content":"fixed"}`))
	assert.Equal(t, ReviseMessage{Index: 2, NewContent: "fixed"}, req)
}

func TestDecodeReviseMessageBadIndex(t *testing.T) {
	req := Decode(call(NameReviseMessage, `{"message_index":"two","new_content":"fixed"}`))
	inv, ok := req.(Invalid)
	require.True(t, ok, "non-integer index must decode to Invalid, got %T", req)
	assert.Contains(t, inv.Reason, "message_index")
}

func TestDecodeMalformedJSON(t *testing.T) {
	req := Decode(call(NameSaveNote, `{"note":`))
	inv, ok := req.(Invalid)
	require.True(t, ok)
	assert.Contains(t, inv.Reason, "malformed arguments")
}

func TestDecodeUnknownTool(t *testing.T) {
	req := Decode(call("delete_everything", `{}`))
	assert.Equal(t, Unknown{Name: "delete_everything"}, req)
}

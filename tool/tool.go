package tool

import (
	"encoding/json"
	"fmt"

	"github.com/hupe1980/recallmesh/internal/util"
	"github.com/hupe1980/recallmesh/model"
)

// Tool names as exposed to the model.
const (
	NameSummarizeMemory = "summarize_memory"
	NameSaveNote        = "save_note"
	NameReviseMessage   = "revise_message"
	NameReadFullMemory  = "read_full_memory"
)

// Request is a decoded tool invocation. The set of implementations is closed;
// dispatch switches over the concrete types, so adding a tool means adding a
// variant here and a case there.
type Request interface {
	isRequest()
}

// SummarizeMemory requests an immediate compaction of the memory log.
type SummarizeMemory struct{}

// SaveNote stores a private assistant note in memory.
type SaveNote struct {
	Note string
}

// ReviseMessage rewrites a previous assistant turn addressed by its logical
// index.
type ReviseMessage struct {
	Index      int
	NewContent string
}

// ReadFullMemory requests a transcript rendering of the full log.
type ReadFullMemory struct{}

// Unknown is a call to a tool name outside the registered surface.
type Unknown struct {
	Name string
}

// Invalid is a call whose arguments failed to decode or validate.
type Invalid struct {
	Name   string
	Reason string
}

func (SummarizeMemory) isRequest() {}
func (SaveNote) isRequest()        {}
func (ReviseMessage) isRequest()   {}
func (ReadFullMemory) isRequest()  {}
func (Unknown) isRequest()         {}
func (Invalid) isRequest()         {}

type saveNoteArgs struct {
	Note string `json:"note" description:"The note content to save"`
}

type reviseMessageArgs struct {
	MessageIndex int    `json:"message_index" description:"Index of the assistant message to revise"`
	NewContent   string `json:"new_content" description:"The corrected message content"`
}

// Definitions returns the tool schema surface advertised to the model.
func Definitions() []model.ToolDefinition {
	return []model.ToolDefinition{
		{
			Name: NameSummarizeMemory,
			Description: "Summarizes the current chat memory and reads it back to understand context. " +
				"Use this when you need to refresh your understanding of the conversation history " +
				"or check for specific details from earlier.",
			Parameters: map[string]any{"type": "object", "properties": map[string]any{}},
		},
		{
			Name: NameSaveNote,
			Description: "Save a personal note, correction, or important thought directly into " +
				"memory without the user being notified.",
			Parameters: util.CreateSchema(saveNoteArgs{}),
		},
		{
			Name: NameReviseMessage,
			Description: "Rewrites one of your previous messages to correct a factual error. " +
				"Provide the message index and the corrected content.",
			Parameters: util.CreateSchema(reviseMessageArgs{}),
		},
		{
			Name: NameReadFullMemory,
			Description: "Reads back the full conversation memory. Use this when asked about " +
				"previous information or stored details.",
			Parameters: map[string]any{"type": "object", "properties": map[string]any{}},
		},
	}
}

// Decode turns a raw model tool call into a typed Request. Malformed or
// invalid calls decode to Invalid and unregistered names to Unknown; Decode
// itself never fails.
func Decode(call model.ToolCall) Request {
	switch call.Name {
	case NameSummarizeMemory:
		return SummarizeMemory{}
	case NameReadFullMemory:
		return ReadFullMemory{}
	case NameSaveNote:
		args, err := decodeArgs(call.Arguments, util.CreateSchema(saveNoteArgs{}))
		if err != nil {
			return Invalid{Name: call.Name, Reason: err.Error()}
		}
		note, _ := args["note"].(string)
		return SaveNote{Note: note}
	case NameReviseMessage:
		args, err := decodeArgs(call.Arguments, util.CreateSchema(reviseMessageArgs{}))
		if err != nil {
			return Invalid{Name: call.Name, Reason: err.Error()}
		}
		index, ok := args["message_index"].(float64)
		if !ok {
			return Invalid{Name: call.Name, Reason: "message_index must be an integer"}
		}
		content, _ := args["new_content"].(string)
		return ReviseMessage{Index: int(index), NewContent: content}
	default:
		return Unknown{Name: call.Name}
	}
}

func decodeArgs(raw json.RawMessage, schema map[string]any) (map[string]any, error) {
	args := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("malformed arguments: %w", err)
		}
	}
	if err := util.ValidateParameters(args, schema); err != nil {
		return nil, err
	}
	return args, nil
}

package core

import (
	"strings"

	"github.com/google/uuid"
)

// Role tags a turn with its conversational origin. The set is closed; every
// mutation of the memory log validates against it.
type Role string

const (
	// RoleSystem marks the anchor prompt, synthetic summaries and reminders.
	RoleSystem Role = "system"
	// RoleUser marks input originating from the human caller.
	RoleUser Role = "user"
	// RoleAssistant marks model output and agent-saved notes.
	RoleAssistant Role = "assistant"
	// RoleTool marks the recorded result of a tool invocation.
	RoleTool Role = "tool"
)

// Valid reports whether r is one of the four enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// ParseRole converts a raw string into a Role, failing with
// *InvalidRoleError for anything outside the closed set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", &InvalidRoleError{Role: s}
	}
	return r, nil
}

// SummaryPrefix is prepended to the content of every synthetic summary turn
// so it can be told apart from the anchor system prompt and from ephemeral
// system reminders sharing the same role.
const SummaryPrefix = "Summary of previous conversation: "

// SyntheticSeq is the ordinal carried by turns the store manufactures itself
// (the anchor prompt and compaction summaries). Such turns are not
// addressable by revision.
const SyntheticSeq = -1

// Turn is the atomic unit of conversational memory. Turns are immutable once
// appended except that an assistant turn's content may be overwritten by an
// explicit revision.
//
// Seq is the append ordinal: the logical index agents use to address the turn
// regardless of later compactions. It stays stable for the lifetime of the
// turn; compaction can only remove it, never renumber it.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Seq     int    `json:"seq"`
	Note    bool   `json:"note,omitempty"`
}

// NewSummaryTurn wraps summarizer output in a system turn carrying the
// summary marker.
func NewSummaryTurn(text string) Turn {
	return Turn{Role: RoleSystem, Content: SummaryPrefix + text, Seq: SyntheticSeq}
}

// IsSummary reports whether the turn is a synthetic compaction summary.
func (t Turn) IsSummary() bool {
	return t.Role == RoleSystem && strings.HasPrefix(t.Content, SummaryPrefix)
}

// IsSynthetic reports whether the turn was manufactured by the store rather
// than appended through the conversation flow.
func (t Turn) IsSynthetic() bool { return t.Seq == SyntheticSeq }

// NewID returns a fresh UUID string used to correlate tool calls with their
// recorded results.
func NewID() string { return uuid.NewString() }

package testutil

import "github.com/hupe1980/recallmesh/core"

// Anchor builds a leading system prompt turn.
func Anchor(prompt string) core.Turn {
	return core.Turn{Role: core.RoleSystem, Content: prompt, Seq: core.SyntheticSeq}
}

// Turn builds a conversation turn with an explicit append ordinal.
func Turn(role core.Role, content string, seq int) core.Turn {
	return core.Turn{Role: role, Content: content, Seq: seq}
}

// Conversation builds a log starting with the anchor followed by the given
// contents alternating user/assistant, with ordinals assigned in order.
func Conversation(prompt string, contents ...string) []core.Turn {
	turns := []core.Turn{Anchor(prompt)}
	for i, c := range contents {
		role := core.RoleUser
		if i%2 == 1 {
			role = core.RoleAssistant
		}
		turns = append(turns, core.Turn{Role: role, Content: c, Seq: i})
	}
	return turns
}

package memory

import (
	"fmt"
	"strings"

	"github.com/hupe1980/recallmesh/core"
)

// FormatTranscript renders the log for the read_full_memory tool. The anchor
// system prompt is excluded; synthetic summaries, saved notes and tool
// results are tagged so the model can tell them apart from the dialogue.
func FormatTranscript(turns []core.Turn) string {
	var lines []string
	for _, t := range turns {
		switch {
		case t.IsSummary():
			lines = append(lines, fmt.Sprintf("[summary] %s", strings.TrimPrefix(t.Content, core.SummaryPrefix)))
		case t.Role == core.RoleSystem:
			// Anchor prompt and reminders carry no conversational signal.
		case t.Note:
			lines = append(lines, fmt.Sprintf("[note %d] %s", t.Seq, t.Content))
		case t.Role == core.RoleUser:
			lines = append(lines, fmt.Sprintf("[user %d] %s", t.Seq, t.Content))
		case t.Role == core.RoleAssistant:
			lines = append(lines, fmt.Sprintf("[assistant %d] %s", t.Seq, t.Content))
		case t.Role == core.RoleTool:
			lines = append(lines, fmt.Sprintf("[tool %d] %s", t.Seq, t.Content))
		}
	}
	if len(lines) == 0 {
		return "Memory is empty."
	}
	return strings.Join(lines, "\n\n")
}

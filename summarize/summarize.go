// Package summarize produces conversation summaries via a language model.
// ModelSummarizer implements memory.Summarizer, so a single model can serve
// both chat inference and compaction.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/recallmesh/core"
	"github.com/hupe1980/recallmesh/model"
)

const promptTemplate = "Summarize this conversation while preserving key facts, " +
	"pay attention to messages by me the user and any information I gave you " +
	"like my personal information:\n\n%s"

// Options configure a ModelSummarizer.
type Options struct {
	// MaxChars truncates the transcript fed to the model. Zero disables
	// truncation.
	MaxChars int
}

// ModelSummarizer condenses a batch of turns into a single summary string. It
// feeds user turns plus prior non-summary system context to the model, since
// those carry the facts worth keeping.
type ModelSummarizer struct {
	llm  model.Model
	opts Options
}

// NewModelSummarizer creates a summarizer backed by the given model.
func NewModelSummarizer(llm model.Model, optFns ...func(o *Options)) *ModelSummarizer {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ModelSummarizer{llm: llm, opts: opts}
}

// Summarize implements memory.Summarizer.
func (s *ModelSummarizer) Summarize(ctx context.Context, turns []core.Turn) (string, error) {
	transcript := buildTranscript(turns)
	if s.opts.MaxChars > 0 && len(transcript) > s.opts.MaxChars {
		transcript = transcript[:s.opts.MaxChars]
	}

	resp, err := s.llm.Generate(ctx, model.Request{
		Turns: []core.Turn{{
			Role:    core.RoleUser,
			Content: fmt.Sprintf(promptTemplate, transcript),
			Seq:     core.SyntheticSeq,
		}},
	})
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}

// buildTranscript keeps non-summary system turns verbatim and prefixes user
// turns. Assistant and tool chatter is dropped; the facts live in what the
// user said and in prior system context.
func buildTranscript(turns []core.Turn) string {
	var lines []string
	for _, t := range turns {
		if t.Role == core.RoleSystem && !t.IsSummary() {
			lines = append(lines, t.Content)
		}
	}
	for _, t := range turns {
		if t.Role == core.RoleUser {
			lines = append(lines, fmt.Sprintf("User: %s", t.Content))
		}
	}
	return strings.Join(lines, "\n")
}

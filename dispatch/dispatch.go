// Package dispatch drives the conversation: it appends the user's turn,
// invokes the model with the tool schema, executes any requested memory tools
// and feeds their results back, and returns the model's final text. Tool-level
// failures become tool-result turns the model can react to; only transport
// problems and exhausted rounds fail the loop itself.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/recallmesh/core"
	"github.com/hupe1980/recallmesh/logging"
	"github.com/hupe1980/recallmesh/memory"
	"github.com/hupe1980/recallmesh/model"
	"github.com/hupe1980/recallmesh/observe"
	"github.com/hupe1980/recallmesh/tool"
)

var (
	// ErrInferenceTimeout indicates the per-round inference deadline expired.
	ErrInferenceTimeout = errors.New("inference deadline exceeded")

	// ErrInferenceTransport indicates the inference service failed for a
	// reason other than a deadline.
	ErrInferenceTransport = errors.New("inference transport failure")

	// ErrTooManyToolRounds indicates the model kept requesting tools past the
	// round bound without producing a final answer.
	ErrTooManyToolRounds = errors.New("tool call rounds exceeded")
)

// Options configure a dispatch Loop.
type Options struct {
	Logger logging.Logger
	// Metrics may be nil.
	Metrics *observe.Metrics
	// Timeout bounds each inference round. Zero disables the deadline.
	Timeout time.Duration
	// MaxRounds bounds consecutive tool rounds within one Run call.
	MaxRounds int
}

// Loop is the synchronous tool dispatch loop over a memory store and a model.
type Loop struct {
	store     *memory.Store
	llm       model.Model
	logger    logging.Logger
	metrics   *observe.Metrics
	timeout   time.Duration
	maxRounds int
	defs      []model.ToolDefinition
}

// NewLoop creates a dispatch loop bound to the given store and model.
func NewLoop(store *memory.Store, llm model.Model, optFns ...func(o *Options)) *Loop {
	opts := Options{
		Logger:    logging.NoOpLogger{},
		Timeout:   60 * time.Second,
		MaxRounds: 8,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Loop{
		store:     store,
		llm:       llm,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		timeout:   opts.Timeout,
		maxRounds: opts.MaxRounds,
		defs:      tool.Definitions(),
	}
}

// Run processes one user input to completion. It appends the user turn,
// alternates inference and tool execution until the model answers with plain
// text, appends that answer, and returns it. The store is left at its last
// persisted state when an inference round fails.
func (l *Loop) Run(ctx context.Context, userInput string) (string, error) {
	if err := l.store.Append(ctx, core.RoleUser, userInput); err != nil {
		return "", err
	}

	for round := 0; round < l.maxRounds; round++ {
		resp, err := l.generate(ctx)
		if err != nil {
			return "", err
		}

		if len(resp.ToolCalls) == 0 {
			if err := l.store.Append(ctx, core.RoleAssistant, resp.Content); err != nil {
				return "", err
			}
			return resp.Content, nil
		}

		l.logger.Debug("executing tool batch", "round", round, "calls", len(resp.ToolCalls))

		for _, call := range resp.ToolCalls {
			result := l.execute(ctx, call)
			if result == "" {
				continue
			}
			if err := l.store.Append(ctx, core.RoleTool, result); err != nil {
				return "", err
			}
		}
	}

	return "", fmt.Errorf("%w after %d rounds", ErrTooManyToolRounds, l.maxRounds)
}

// generate runs one inference round under the configured deadline and
// classifies failures.
func (l *Loop) generate(ctx context.Context) (*model.Response, error) {
	roundCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		roundCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := l.llm.Generate(roundCtx, model.Request{
		Turns: l.store.Turns(),
		Tools: l.defs,
	})
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			l.metrics.ObserveInference(elapsed, "timeout")
			l.logger.Warn("inference timed out", "elapsed", elapsed)
			return nil, fmt.Errorf("%w: %v", ErrInferenceTimeout, err)
		}
		l.metrics.ObserveInference(elapsed, "transport")
		l.logger.Error("inference failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInferenceTransport, err)
	}

	l.metrics.ObserveInference(elapsed, "")
	return resp, nil
}

// execute runs a single decoded tool call and returns its result text.
func (l *Loop) execute(ctx context.Context, call model.ToolCall) string {
	switch req := tool.Decode(call).(type) {
	case tool.SummarizeMemory:
		l.logger.Info("tool requested memory summarization")
		if _, err := l.store.Compact(ctx); err != nil {
			l.metrics.ObserveToolCall(call.Name, "error")
			return fmt.Sprintf("Error: failed to summarize memory: %v", err)
		}
		l.metrics.ObserveToolCall(call.Name, "ok")
		if summary, ok := l.store.LatestSummary(); ok {
			return fmt.Sprintf("I've reviewed the conversation history. Here's what I found:\n%s\n\n"+
				"I'll keep these points in mind as we continue our discussion.", summary)
		}
		return "Memory has been summarized, but no significant previous context was found."

	case tool.SaveNote:
		l.logger.Info("tool saved a note to memory")
		if err := l.store.AppendNote(ctx, req.Note); err != nil {
			l.metrics.ObserveToolCall(call.Name, "error")
			return fmt.Sprintf("Error: failed to save note: %v", err)
		}
		l.metrics.ObserveToolCall(call.Name, "ok")
		return "Note saved to memory."

	case tool.ReviseMessage:
		l.logger.Info("tool requested a message revision", "index", req.Index)
		confirmation, err := l.store.ReviseAssistant(ctx, req.Index, req.NewContent)
		if err != nil {
			l.metrics.ObserveToolCall(call.Name, "error")
			return reviseErrorResult(err)
		}
		l.metrics.ObserveToolCall(call.Name, "ok")
		return confirmation

	case tool.ReadFullMemory:
		l.logger.Info("tool read full memory")
		l.metrics.ObserveToolCall(call.Name, "ok")
		return memory.FormatTranscript(l.store.Turns())

	case tool.Invalid:
		l.logger.Warn("invalid tool arguments", "tool", req.Name, "reason", req.Reason)
		l.metrics.ObserveToolCall(req.Name, "invalid")
		return fmt.Sprintf("Error: invalid arguments for %s: %s", req.Name, req.Reason)

	case tool.Unknown:
		l.logger.Warn("unknown tool called", "tool", req.Name)
		l.metrics.ObserveToolCall(req.Name, "unknown")
		return fmt.Sprintf("Unknown tool called: %s", req.Name)
	}

	return ""
}

// reviseErrorResult maps revision failures to the result strings the model
// sees.
func reviseErrorResult(err error) string {
	var wrongRole *memory.WrongRoleError
	var outOfRange *memory.IndexOutOfRangeError
	var compacted *memory.TurnCompactedError

	switch {
	case errors.As(err, &wrongRole):
		return "Error: That message is not from the assistant."
	case errors.As(err, &outOfRange):
		return "Error: Invalid message index."
	case errors.As(err, &compacted):
		return fmt.Sprintf("Error: Message at index %d was compacted into a summary and can no longer be revised.", compacted.Index)
	default:
		return fmt.Sprintf("Error: failed to revise message: %v", err)
	}
}

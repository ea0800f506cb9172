// Package recallmesh provides a high-level façade over the memory store,
// compaction engine and tool dispatch loop. Most applications interact with
// this package by:
//  1. Creating an Agent via New() (optionally overriding the backend, model
//     and prompt)
//  2. Calling Chat() once per user input
//  3. Calling Close() on shutdown
//
// The façade wires a persistence backend, a bounded memory store with a
// model-backed summarizer, and the dispatch loop. All defaults are safe for
// local development: in-memory persistence, the mock model and a no-op logger.
package recallmesh

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/recallmesh/core"
	"github.com/hupe1980/recallmesh/dispatch"
	"github.com/hupe1980/recallmesh/logging"
	"github.com/hupe1980/recallmesh/memory"
	"github.com/hupe1980/recallmesh/model"
	"github.com/hupe1980/recallmesh/observe"
	"github.com/hupe1980/recallmesh/persistence"
	"github.com/hupe1980/recallmesh/prompt"
	"github.com/hupe1980/recallmesh/summarize"
)

// Options configures the Agent.
type Options struct {
	// Backend persists the memory log (defaults to in-memory).
	Backend persistence.Log

	// Model serves both chat inference and summarization (defaults to the
	// mock model).
	Model model.Model

	// SystemPrompt is asserted as the leading turn on startup. Empty selects
	// the built-in prompt.
	SystemPrompt string

	// MaxMessages bounds the memory log length.
	MaxMessages int

	// ReminderInterval injects a tool reminder system turn every N user
	// messages. 0 disables the reminder.
	ReminderInterval int

	// InferenceTimeout bounds each inference round. Zero disables the
	// deadline.
	InferenceTimeout time.Duration

	// MaxToolRounds bounds consecutive tool rounds per Chat call.
	MaxToolRounds int

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// Metrics may be nil to disable instrumentation.
	Metrics *observe.Metrics
}

// Agent is the high-level façade aggregating the store, summarizer and
// dispatch loop for one conversation session.
type Agent struct {
	opts      Options
	store     *memory.Store
	loop      *dispatch.Loop
	backend   persistence.Log
	userTurns int
}

// New creates an Agent with optional overrides and loads any persisted
// memory. The system prompt is asserted as the leading turn before the first
// Chat call.
func New(ctx context.Context, optFns ...func(o *Options)) (*Agent, error) {
	opts := Options{
		Backend:          persistence.NewInMemoryLog(),
		Model:            model.NewMockModel("mock"),
		SystemPrompt:     prompt.Default,
		MaxMessages:      50,
		ReminderInterval: 10,
		InferenceTimeout: 60 * time.Second,
		MaxToolRounds:    8,
		Logger:           logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = prompt.Default
	}

	store := memory.NewStore(opts.Backend, func(o *memory.StoreOptions) {
		o.MaxMessages = opts.MaxMessages
		o.Summarizer = summarize.NewModelSummarizer(opts.Model)
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics
	})

	if err := store.Load(ctx); err != nil {
		return nil, fmt.Errorf("load memory: %w", err)
	}
	if err := store.EnsureSystemPrompt(ctx, opts.SystemPrompt); err != nil {
		return nil, fmt.Errorf("ensure system prompt: %w", err)
	}

	loop := dispatch.NewLoop(store, opts.Model, func(o *dispatch.Options) {
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics
		o.Timeout = opts.InferenceTimeout
		o.MaxRounds = opts.MaxToolRounds
	})

	return &Agent{
		opts:    opts,
		store:   store,
		loop:    loop,
		backend: opts.Backend,
	}, nil
}

// Chat processes one user input and returns the assistant's reply.
func (a *Agent) Chat(ctx context.Context, text string) (string, error) {
	a.userTurns++
	if a.opts.ReminderInterval > 0 && a.userTurns%a.opts.ReminderInterval == 0 {
		if err := a.store.Append(ctx, core.RoleSystem, prompt.Reminder); err != nil {
			return "", err
		}
	}
	return a.loop.Run(ctx, text)
}

// SetSystemPrompt replaces the leading system turn, e.g. after a prompt file
// reload.
func (a *Agent) SetSystemPrompt(ctx context.Context, text string) error {
	return a.store.EnsureSystemPrompt(ctx, text)
}

// Memory returns the underlying store for inspection and maintenance.
func (a *Agent) Memory() *memory.Store { return a.store }

// Reset clears the persisted memory and re-asserts the system prompt.
func (a *Agent) Reset(ctx context.Context) error {
	if err := a.store.Clear(ctx); err != nil {
		return err
	}
	a.userTurns = 0
	return a.store.EnsureSystemPrompt(ctx, a.opts.SystemPrompt)
}

// Close releases the persistence backend.
func (a *Agent) Close() error {
	return a.backend.Close()
}

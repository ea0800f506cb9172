package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/recallmesh"
	"github.com/hupe1980/recallmesh/config"
	"github.com/hupe1980/recallmesh/logging"
	"github.com/hupe1980/recallmesh/model"
	"github.com/hupe1980/recallmesh/model/anthropic"
	"github.com/hupe1980/recallmesh/model/openai"
	"github.com/hupe1980/recallmesh/observe"
	"github.com/hupe1980/recallmesh/persistence"
	"github.com/hupe1980/recallmesh/prompt"
)

func loadConfig() (config.Config, error) {
	return config.Load(configFile)
}

func buildLogger(cfg config.Config) logging.Logger {
	return logging.NewSlogLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, os.Stderr)
}

func buildModel(cfg config.Config) (model.Model, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Model)
			}
		}), nil
	case "mock":
		return model.NewMockModel("mock"), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// buildAgent wires the persistence backend, model and façade from cfg. The
// returned agent owns the backend; callers must Close it.
func buildAgent(ctx context.Context, cfg config.Config, logger logging.Logger, metrics *observe.Metrics) (*recallmesh.Agent, error) {
	llm, err := buildModel(cfg)
	if err != nil {
		return nil, err
	}

	location := cfg.DatabaseURL
	if location == "" {
		location = cfg.MemoryPath
	}
	backend, err := persistence.New(ctx, location, cfg.SessionID)
	if err != nil {
		return nil, fmt.Errorf("open persistence backend: %w", err)
	}

	systemPrompt, err := prompt.LoadFile(cfg.PromptFile)
	if err != nil {
		backend.Close()
		return nil, err
	}

	agent, err := recallmesh.New(ctx, func(o *recallmesh.Options) {
		o.Backend = backend
		o.Model = llm
		o.SystemPrompt = systemPrompt
		o.MaxMessages = cfg.MaxMessages
		o.ReminderInterval = cfg.ReminderInterval
		o.InferenceTimeout = cfg.InferenceTimeout
		o.MaxToolRounds = cfg.MaxToolRounds
		o.Logger = logger
		o.Metrics = metrics
	})
	if err != nil {
		backend.Close()
		return nil, err
	}
	return agent, nil
}

// startMetrics serves the Prometheus endpoint when addr is non-empty.
func startMetrics(addr string, logger logging.Logger) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", observe.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("metrics listener started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics listener failed", "error", err)
		}
	}()
}

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/recallmesh/dispatch"
	"github.com/hupe1980/recallmesh/observe"
	"github.com/hupe1980/recallmesh/prompt"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long:  "Line-oriented REPL over the persisted memory log. Type 'exit' or 'quit' to leave.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := buildLogger(cfg)

			var metrics *observe.Metrics
			if cfg.MetricsAddr != "" {
				metrics = observe.NewMetrics("recallmesh")
				startMetrics(cfg.MetricsAddr, logger)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			agent, err := buildAgent(ctx, cfg, logger, metrics)
			if err != nil {
				return err
			}
			defer agent.Close()

			if cfg.PromptFile != "" {
				watcher, err := prompt.WatchFile(cfg.PromptFile, func(text string) {
					if err := agent.SetSystemPrompt(ctx, text); err != nil {
						logger.Error("failed to apply reloaded prompt", "error", err)
					}
				}, logger)
				if err != nil {
					return err
				}
				defer watcher.Close()
			}

			fmt.Printf("Chat session started with %s. Type 'exit' to quit.\n\n", cfg.Provider)

			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("You: ")
				if !scanner.Scan() {
					break
				}
				input := strings.TrimSpace(scanner.Text())
				if input == "" {
					continue
				}
				if lower := strings.ToLower(input); lower == "exit" || lower == "quit" {
					fmt.Println("Chat exited!")
					return nil
				}

				reply, err := agent.Chat(ctx, input)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					if errors.Is(err, dispatch.ErrInferenceTimeout) || errors.Is(err, dispatch.ErrInferenceTransport) {
						fmt.Fprintf(os.Stderr, "Inference failed: %v\n", err)
						continue
					}
					return err
				}
				fmt.Printf("\nAssistant: %s\n\n", reply)
			}
			return scanner.Err()
		},
	}
}

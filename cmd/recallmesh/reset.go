package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the stored conversation memory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cfg.Provider = "mock"

			ctx := context.Background()
			agent, err := buildAgent(ctx, cfg, buildLogger(cfg), nil)
			if err != nil {
				return err
			}
			defer agent.Close()

			if err := agent.Reset(ctx); err != nil {
				return err
			}
			fmt.Println("Memory cleared.")
			return nil
		},
	}
}

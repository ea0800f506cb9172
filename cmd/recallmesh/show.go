package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/recallmesh/memory"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored conversation memory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			// The mock provider avoids touching real credentials for a
			// read-only command.
			cfg.Provider = "mock"

			ctx := context.Background()
			agent, err := buildAgent(ctx, cfg, buildLogger(cfg), nil)
			if err != nil {
				return err
			}
			defer agent.Close()

			fmt.Println(memory.FormatTranscript(agent.Memory().Turns()))
			return nil
		},
	}
}

// Package main is the entry point for the recallmesh CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var version = "0.1.0"

// Global flags.
var configFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "recallmesh",
		Short: "Chat agent with bounded, self-managed conversational memory",
		Long: `RecallMesh runs a tool-calling chat agent over a bounded memory log.
The log persists across sessions, compacts itself via summarization when it
overflows, and is editable by the agent through memory tools.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "Path to YAML config file")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newChatCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newResetCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("recallmesh %s\n", version)
		},
	}
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

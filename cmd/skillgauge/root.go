package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skillgauge",
		Short: "skillgauge - evaluate skill documents for structure and answer quality",
		Long: `skillgauge evaluates skill documents.

The check command validates a skill file's structure deterministically. The
run command executes a dataset-driven suite: structural suites validate each
referenced skill file, quality suites generate candidate answers and grade
them with LLM judges.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newCheckCommand())
	cmd.AddCommand(newRunCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/gdaskalakis/troy/internal/utils"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "troy",
		Short: "Troy - sales call transcript grading pipeline",
		Long: `Troy grades sales call transcripts with a panel of skill agents and
emails the consolidated report to the rep's manager.

The pipeline runs in three stages: scan discovers new transcripts and
publishes one task per unseen file, process grades a task and publishes the
grading payload, and notify renders the payload into an email. Every stage
is idempotent, so redelivered events never grade or email twice.`,
		Version:      version,
		SilenceUsage: true,
	}

	verbose := cmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")
	cmd.PersistentFlags().String("config", "", "Path to the config file (default .troy.yaml)")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		utils.SetupLogging(*verbose)
	}

	// Add subcommands
	cmd.AddCommand(newScanCommand())
	cmd.AddCommand(newProcessCommand())
	cmd.AddCommand(newNotifyCommand())
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newGradeCommand())
	cmd.AddCommand(newReplayCommand())
	cmd.AddCommand(newClearFlagCommand())
	cmd.AddCommand(newInitCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}

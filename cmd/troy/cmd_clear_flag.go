package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gdaskalakis/troy/internal/state"
)

func newClearFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear-flag <file-id> <flag>",
		Short: "Clear a processing flag on a transcript",
		Long: `Clear one of the idempotency flags on a transcript so the pipeline will
pick it up again. Valid flags:

  inflight     a scan claimed the transcript but processing never finished
  processed    force the transcript to be regraded on the next scan
  email_sent   allow the notification to be sent again

This is a maintenance tool; clearing processed on a healthy transcript
costs a full regrade.`,
		Args: cobra.ExactArgs(2),
		RunE: runClearFlag,
	}
	return cmd
}

func runClearFlag(cmd *cobra.Command, args []string) error {
	fileID, flag := args[0], strings.ToLower(args[1])
	switch flag {
	case state.KeyInflight, state.KeyProcessed, state.KeyEmailSent:
	default:
		return fmt.Errorf("unknown flag %q: expected %s, %s or %s",
			flag, state.KeyInflight, state.KeyProcessed, state.KeyEmailSent)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := newBlobStore(cfg)
	if err != nil {
		return err
	}

	if err := store.ClearFlag(cmd.Context(), fileID, flag); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "cleared %s on %s\n", flag, fileID) //nolint:errcheck
	return nil
}

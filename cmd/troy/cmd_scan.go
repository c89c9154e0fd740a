package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gdaskalakis/troy/internal/pipeline"
	"github.com/gdaskalakis/troy/internal/queue"
)

func newScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Discover new transcripts and emit one task per unseen file",
		Long: `Scan every configured source location for transcripts that have not been
processed yet. Each unseen transcript is claimed by marking it inflight and
emitted as a task event, one JSON object per line, on stdout.

Tasks can be piped straight into the process stage:

  troy scan | troy process -`,
		Args: cobra.NoArgs,
		RunE: runScan,
	}
	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := newBlobStore(cfg)
	if err != nil {
		return err
	}

	q := queue.NewMemory()
	scanner := pipeline.NewScanner(store, store, q, cfg.Topics.Tasks, cfg.Sources)

	summary, err := scanner.Scan(cmd.Context())
	if err != nil {
		return err
	}

	for {
		msg, ok := q.Pop(cfg.Topics.Tasks)
		if !ok {
			break
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(msg)) //nolint:errcheck
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "scanned %d, published %d, skipped %d, errors %d\n", //nolint:errcheck
		summary.Scanned, summary.Published, summary.Skipped, summary.Errors)

	if summary.Errors > 0 {
		return &StageFailureError{Message: fmt.Sprintf("scan finished with %d errors", summary.Errors)}
	}
	return nil
}

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gdaskalakis/troy/internal/archive"
	"github.com/gdaskalakis/troy/internal/models"
	"github.com/gdaskalakis/troy/internal/pipeline"
)

func newReplayCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay [archive-file...]",
		Short: "Re-send notifications from archived grading payloads",
		Long: `Feed archived grading payloads back through the notification stage. With
no arguments every payload in the archive directory is replayed, oldest
first.

Replay is safe to run blindly: payloads whose email was already sent are
skipped by the email_sent flag, so only genuinely lost notifications go
out. This covers the gap where a transcript was graded and archived but
the payload never reached the notifier.`,
		Args: cobra.ArbitraryArgs,
		RunE: runReplay,
	}
	return cmd
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := newBlobStore(cfg)
	if err != nil {
		return err
	}
	mailer, err := newMailer(cfg)
	if err != nil {
		return err
	}

	arch := archive.New(cfg.Scan.ArchiveDir)
	notifier := pipeline.NewNotifier(store, mailer, cfg.Email.Sender, cfg.Email.Recipient)

	paths := args
	if len(paths) == 0 {
		paths, err = arch.List()
		if err != nil {
			return err
		}
	}
	if len(paths) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing to replay") //nolint:errcheck
		return nil
	}

	var sent, skipped, failed int
	for _, path := range paths {
		payload, err := arch.Read(path)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "unreadable archive %s: %v\n", path, err) //nolint:errcheck
			failed++
			continue
		}

		event, err := json.Marshal(payload)
		if err != nil {
			failed++
			continue
		}

		result, err := notifier.Handle(cmd.Context(), event)
		if err != nil {
			failed++
			continue
		}
		switch result.Status {
		case models.StatusSuccess:
			sent++
		case models.StatusSkipped:
			skipped++
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "replayed %d archive(s): sent %d, skipped %d, failed %d\n", //nolint:errcheck
		len(paths), sent, skipped, failed)

	if failed > 0 {
		return &StageFailureError{Message: fmt.Sprintf("%d replay(s) failed", failed)}
	}
	return nil
}

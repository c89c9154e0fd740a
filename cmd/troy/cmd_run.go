package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gdaskalakis/troy/internal/archive"
	"github.com/gdaskalakis/troy/internal/models"
	"github.com/gdaskalakis/troy/internal/pipeline"
	"github.com/gdaskalakis/troy/internal/queue"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline end to end",
		Long: `Run scan, process, and notify in sequence over an in-process queue: every
unseen transcript in the configured sources is graded and its report
emailed in a single invocation.

This is the single-machine equivalent of the queue-triggered deployment;
the same idempotency flags protect both, so run can be executed repeatedly
without regrading or re-emailing anything.`,
		Args: cobra.NoArgs,
		RunE: runPipeline,
	}
	return cmd
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := newBlobStore(cfg)
	if err != nil {
		return err
	}
	grader, err := newGrader(cfg)
	if err != nil {
		return err
	}
	mailer, err := newMailer(cfg)
	if err != nil {
		return err
	}

	q := queue.NewMemory()
	scanner := pipeline.NewScanner(store, store, q, cfg.Topics.Tasks, cfg.Sources)
	processor := pipeline.NewProcessor(store, store, grader, q, cfg.Topics.Results, cfg.Email.Recipient,
		pipeline.WithArchiver(archive.New(cfg.Scan.ArchiveDir)),
		pipeline.WithTranscriptPolicy(transcriptPolicy(cfg)))
	notifier := pipeline.NewNotifier(store, mailer, cfg.Email.Sender, cfg.Email.Recipient)

	summary, err := scanner.Scan(cmd.Context())
	if err != nil {
		return err
	}

	var graded, emailed, skipped, failed int
	for {
		event, ok := q.Pop(cfg.Topics.Tasks)
		if !ok {
			break
		}
		result, err := processor.Handle(cmd.Context(), event)
		if err != nil {
			failed++
			continue
		}
		switch result.Status {
		case models.StatusSuccess:
			graded++
		case models.StatusSkipped:
			skipped++
		}
	}

	for {
		event, ok := q.Pop(cfg.Topics.Results)
		if !ok {
			break
		}
		result, err := notifier.Handle(cmd.Context(), event)
		if err != nil {
			failed++
			continue
		}
		switch result.Status {
		case models.StatusSuccess:
			emailed++
		case models.StatusSkipped:
			skipped++
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "scanned %d, graded %d, emailed %d, skipped %d, failed %d\n", //nolint:errcheck
		summary.Scanned, graded, emailed, skipped, failed)

	if failed > 0 || summary.Errors > 0 {
		return &StageFailureError{Message: fmt.Sprintf("pipeline finished with %d failure(s)", failed+summary.Errors)}
	}
	return nil
}

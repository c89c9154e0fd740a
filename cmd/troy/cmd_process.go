package main

import (
	"bufio"
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gdaskalakis/troy/internal/archive"
	"github.com/gdaskalakis/troy/internal/models"
	"github.com/gdaskalakis/troy/internal/pipeline"
	"github.com/gdaskalakis/troy/internal/queue"
)

func newProcessCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process [event-file | -]",
		Short: "Grade transcript tasks and emit grading payloads",
		Long: `Read task events (one JSON object per line) from a file or stdin, grade
each transcript, and emit the resulting grading payloads on stdout, one per
line. Every payload is also archived locally so a lost notification can be
replayed later.

A task whose transcript was already processed is skipped without calling
the model. Payloads can be piped straight into the notify stage:

  troy scan | troy process - | troy notify -`,
		Args: cobra.MaximumNArgs(1),
		RunE: runProcess,
	}
	return cmd
}

func runProcess(cmd *cobra.Command, args []string) error {
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

	q := queue.NewMemory()
	processor := pipeline.NewProcessor(store, store, grader, q, cfg.Topics.Results, cfg.Email.Recipient,
		pipeline.WithArchiver(archive.New(cfg.Scan.ArchiveDir)),
		pipeline.WithTranscriptPolicy(transcriptPolicy(cfg)))

	input, err := readEvent(cmd, args)
	if err != nil {
		return err
	}

	failed := 0
	scanner := bufio.NewScanner(bytes.NewReader(input))
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		event := bytes.TrimSpace(scanner.Bytes())
		if len(event) == 0 {
			continue
		}

		result, err := processor.Handle(cmd.Context(), event)
		if err != nil {
			failed++
			continue
		}
		if result.Status == models.StatusSkipped {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipped: %s\n", result.Reason) //nolint:errcheck
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading task events: %w", err)
	}

	for {
		msg, ok := q.Pop(cfg.Topics.Results)
		if !ok {
			break
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(msg)) //nolint:errcheck
	}

	if failed > 0 {
		return &StageFailureError{Message: fmt.Sprintf("%d task(s) failed", failed)}
	}
	return nil
}

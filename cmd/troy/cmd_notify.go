package main

import (
	"bufio"
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gdaskalakis/troy/internal/models"
	"github.com/gdaskalakis/troy/internal/pipeline"
)

func newNotifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify [event-file | -]",
		Short: "Send report emails for grading payloads",
		Long: `Read grading payload events (one JSON object per line) from a file or
stdin, render each into the HTML report, and email it to the configured
recipient with the transcript attached.

A payload whose email was already sent is skipped, so replaying or
redelivering payloads never produces duplicate emails.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runNotify,
	}
	return cmd
}

func runNotify(cmd *cobra.Command, args []string) error {
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

	notifier := pipeline.NewNotifier(store, mailer, cfg.Email.Sender, cfg.Email.Recipient)

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

		result, err := notifier.Handle(cmd.Context(), event)
		if err != nil {
			failed++
			continue
		}
		if result.Status == models.StatusSkipped {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipped: %s\n", result.Reason) //nolint:errcheck
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading payload events: %w", err)
	}

	if failed > 0 {
		return &StageFailureError{Message: fmt.Sprintf("%d notification(s) failed", failed)}
	}
	return nil
}

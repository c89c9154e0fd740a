package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gdaskalakis/troy/internal/agent"
	"github.com/gdaskalakis/troy/internal/config"
	"github.com/gdaskalakis/troy/internal/grading"
	"github.com/gdaskalakis/troy/internal/llm"
	"github.com/gdaskalakis/troy/internal/notify"
	"github.com/gdaskalakis/troy/internal/pipeline"
	"github.com/gdaskalakis/troy/internal/storage/blobstore"
)

// loadConfig resolves the --config flag and loads the project config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

// newBlobStore builds the transcript store from the storage section.
func newBlobStore(cfg *config.Config) (*blobstore.Store, error) {
	return blobstore.New(blobstore.Options{
		AccountURL:       cfg.Storage.AccountURL,
		Container:        cfg.Storage.Container,
		QuarantinePrefix: cfg.Storage.QuarantinePrefix,
	})
}

// newGrader builds the grading orchestrator backed by the configured model.
func newGrader(cfg *config.Config) (pipeline.Grader, error) {
	client, err := llm.NewCopilotClient(cfg.Model.Model)
	if err != nil {
		return nil, fmt.Errorf("creating model client: %w", err)
	}
	return grading.NewOrchestrator(client, retryPolicy(cfg), grading.WithWorkers(cfg.Model.Workers)), nil
}

func retryPolicy(cfg *config.Config) agent.RetryPolicy {
	policy := agent.DefaultRetryPolicy()
	if cfg.Model.MaxRetries > 0 {
		policy.MaxAttempts = cfg.Model.MaxRetries
	}
	return policy
}

// newMailer builds the SMTP mailer from the email section.
func newMailer(cfg *config.Config) (notify.Mailer, error) {
	return notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.Email.SMTPHost,
		Port:     cfg.Email.SMTPPort,
		Username: cfg.Email.SMTPUser,
		Password: cfg.Email.SMTPPassword,
	})
}

// transcriptPolicy builds the validity gate from the scan section.
func transcriptPolicy(cfg *config.Config) pipeline.TranscriptPolicy {
	policy := pipeline.DefaultTranscriptPolicy()
	if cfg.Scan.MinTranscriptChars > 0 {
		policy.MinChars = cfg.Scan.MinTranscriptChars
	}
	if len(cfg.Scan.PlaceholderPatterns) > 0 {
		policy.PlaceholderPatterns = cfg.Scan.PlaceholderPatterns
	}
	return policy
}

// readEvent reads one event from the file named in args, or from stdin when
// no argument is given.
func readEvent(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) > 0 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("reading event file: %w", err)
		}
		return data, nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("reading event from stdin: %w", err)
	}
	return data, nil
}

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gdaskalakis/troy/internal/models"
	"github.com/gdaskalakis/troy/internal/queue"
	"github.com/gdaskalakis/troy/internal/state"
)

// Grader produces the full grading results for one transcript. It must be
// total: failures resolve to fallback reports, never errors.
type Grader interface {
	GradeAll(ctx context.Context, transcript string) models.GradingResults
}

// PayloadArchiver persists grading payloads for later replay. Optional;
// archive failures never fail the pipeline.
type PayloadArchiver interface {
	Write(payload models.GradingPayload) (string, error)
}

// Processor consumes scanner tasks, grades transcripts, and forwards the
// grading payload to the notifier stage.
type Processor struct {
	flags  state.StateStore
	docs   state.DocumentStore
	grader Grader
	pub    queue.Publisher
	topic  string
	policy TranscriptPolicy

	managerEmail string
	archiver     PayloadArchiver

	now func() time.Time
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithArchiver persists every grading payload before publishing it.
func WithArchiver(a PayloadArchiver) ProcessorOption {
	return func(p *Processor) {
		p.archiver = a
	}
}

// WithTranscriptPolicy overrides the validity gate.
func WithTranscriptPolicy(policy TranscriptPolicy) ProcessorOption {
	return func(p *Processor) {
		p.policy = policy
	}
}

// NewProcessor creates the grading stage handler. Payloads are published to
// topic; managerEmail is the default notification recipient recorded on the
// payload.
func NewProcessor(flags state.StateStore, docs state.DocumentStore, grader Grader, pub queue.Publisher, topic string, managerEmail string, opts ...ProcessorOption) *Processor {
	p := &Processor{
		flags:        flags,
		docs:         docs,
		grader:       grader,
		pub:          pub,
		topic:        topic,
		policy:       DefaultTranscriptPolicy(),
		managerEmail: managerEmail,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle processes one task event. The processed flag is re-checked on
// receipt so a duplicate delivery (or a second scanner claiming the same
// transcript) short-circuits before any model call is made.
func (p *Processor) Handle(ctx context.Context, event []byte) (*models.HandlerResult, error) {
	task, err := queue.DecodeTask(event)
	if err != nil {
		return models.Failed(fmt.Sprintf("invalid task event: %v", err)), err
	}

	slog.InfoContext(ctx, "received transcript task", "fileId", task.FileID, "fileName", task.FileName, "rep", task.Rep)

	flags, err := p.flags.Flags(ctx, task.FileID)
	if err != nil {
		slog.WarnContext(ctx, "failed to read flags, proceeding", "fileId", task.FileID, "error", err)
	} else if flags.Processed {
		slog.InfoContext(ctx, "transcript already processed, skipping", "fileId", task.FileID)
		return models.Skipped(models.ReasonAlreadyProcessed), nil
	}

	transcript, err := p.docs.Fetch(ctx, task.FileID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch transcript", "fileId", task.FileID, "error", err)
		return p.quarantine(ctx, task, fmt.Sprintf("fetch failed: %v", err))
	}
	if reason := p.policy.Check(transcript); reason != "" {
		slog.WarnContext(ctx, "transcript rejected", "fileId", task.FileID, "reason", reason)
		return p.quarantine(ctx, task, reason)
	}

	results := p.grader.GradeAll(ctx, transcript)

	// Mark processed before forwarding: a redelivered task must not grade
	// twice. If the publish below fails, the archived payload plus the
	// replay command recover the notification.
	if err := p.flags.SetProcessed(ctx, task.FileID); err != nil {
		slog.ErrorContext(ctx, "failed to set processed flag", "fileId", task.FileID, "error", err)
	}

	now := p.now().UTC()
	payload := models.GradingPayload{
		FileID:         task.FileID,
		FileName:       task.FileName,
		Rep:            task.Rep,
		ManagerEmail:   p.managerEmail,
		Timestamp:      now,
		Transcript:     transcript,
		GradingResults: results,
		Metadata: models.PayloadMetadata{
			ProcessedAt:      now,
			ExecutionID:      fmt.Sprintf("%s-%d", task.FileID, now.UnixNano()),
			ProcessingStatus: string(models.StatusSuccess),
		},
	}

	if p.archiver != nil {
		if path, err := p.archiver.Write(payload); err != nil {
			slog.WarnContext(ctx, "failed to archive payload", "fileId", task.FileID, "error", err)
		} else {
			slog.DebugContext(ctx, "archived payload", "fileId", task.FileID, "path", path)
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return models.Failed(fmt.Sprintf("marshaling payload: %v", err)), err
	}
	if err := p.pub.Publish(ctx, p.topic, data); err != nil {
		// Surfaced as failed so the hosting runtime can redeliver; the
		// notifier's own email_sent check makes the retry safe.
		return models.Failed(fmt.Sprintf("publishing payload: %v", err)), err
	}

	slog.InfoContext(ctx, "finished grading", "fileId", task.FileID,
		"grade", results.FinalSynthesis.FinalGrade)
	return models.Success(), nil
}

// quarantine moves a terminally invalid transcript out of the scan set so
// it does not sit inflight forever.
func (p *Processor) quarantine(ctx context.Context, task models.Task, reason string) (*models.HandlerResult, error) {
	if err := p.docs.Quarantine(ctx, task.FileID); err != nil {
		slog.ErrorContext(ctx, "failed to quarantine transcript", "fileId", task.FileID, "error", err)
	}
	result := models.Skipped(models.ReasonInvalidTranscript)
	result.Details = map[string]any{"cause": reason}
	return result, nil
}

package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gdaskalakis/troy/internal/models"
	"github.com/gdaskalakis/troy/internal/notify"
	"github.com/gdaskalakis/troy/internal/queue"
	"github.com/gdaskalakis/troy/internal/report"
	"github.com/gdaskalakis/troy/internal/state"
)

// Notifier consumes grading payloads and dispatches the report email
// exactly once per transcript.
type Notifier struct {
	flags  state.StateStore
	mailer notify.Mailer

	sender    string
	recipient string
}

// NewNotifier creates the notification stage handler. recipient is the
// fixed report destination; payload manager emails are advisory only.
func NewNotifier(flags state.StateStore, mailer notify.Mailer, sender string, recipient string) *Notifier {
	return &Notifier{
		flags:     flags,
		mailer:    mailer,
		sender:    sender,
		recipient: recipient,
	}
}

// Handle processes one grading payload event. The email_sent flag is
// re-checked on receipt and set only after a confirmed send, so a
// redelivered payload (or a manual replay) never produces a second email,
// and a failed send never suppresses a future retry.
func (n *Notifier) Handle(ctx context.Context, event []byte) (*models.HandlerResult, error) {
	payload, err := queue.DecodeGradingPayload(event)
	if err != nil {
		return models.Failed(fmt.Sprintf("invalid payload event: %v", err)), err
	}

	slog.InfoContext(ctx, "received grading payload", "fileId", payload.FileID, "fileName", payload.FileName)

	flags, err := n.flags.Flags(ctx, payload.FileID)
	if err != nil {
		slog.WarnContext(ctx, "failed to read flags, proceeding", "fileId", payload.FileID, "error", err)
	} else if flags.EmailSent {
		slog.InfoContext(ctx, "email already sent, skipping", "fileId", payload.FileID)
		return models.Skipped(models.ReasonEmailAlreadySent), nil
	}

	html, err := report.BuildHTML(payload)
	if err != nil {
		return models.Failed(fmt.Sprintf("building report: %v", err)), err
	}

	msg := notify.Email{
		To:             n.recipient,
		From:           n.sender,
		Subject:        report.Subject(payload),
		HTMLBody:       html,
		AttachmentName: fmt.Sprintf("%s_transcript.txt", payload.FileName),
		Attachment:     []byte(payload.Transcript),
	}

	if err := n.mailer.Send(ctx, msg); err != nil {
		// The flag stays unset so a redelivery can retry the send.
		slog.ErrorContext(ctx, "failed to send notification", "fileId", payload.FileID, "error", err)
		return models.Failed(fmt.Sprintf("sending notification: %v", err)), err
	}

	if err := n.flags.SetEmailSent(ctx, payload.FileID); err != nil {
		slog.ErrorContext(ctx, "failed to set email_sent flag", "fileId", payload.FileID, "error", err)
	}

	slog.InfoContext(ctx, "notification sent", "fileId", payload.FileID, "to", n.recipient)
	return models.Success(), nil
}

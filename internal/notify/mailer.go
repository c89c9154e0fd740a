// Package notify dispatches the grading report to its recipient.
package notify

import "context"

// Email is one outbound notification: an HTML report with the raw
// transcript attached.
type Email struct {
	To             string
	From           string
	Subject        string
	HTMLBody       string
	AttachmentName string
	Attachment     []byte
}

// Mailer sends notifications. Send must only return nil once delivery is
// confirmed; callers set the email_sent flag solely on a nil return.
type Mailer interface {
	Send(ctx context.Context, msg Email) error
}

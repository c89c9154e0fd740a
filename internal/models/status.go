package models

// Status is the outcome of one handler invocation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Well-known skip/failure reasons surfaced to the hosting runtime so
// operators can tell "did not run" from "ran with degraded quality".
const (
	ReasonAlreadyProcessed  = "already_processed"
	ReasonEmailAlreadySent  = "email_already_sent"
	ReasonInvalidTranscript = "invalid_transcript"
)

// HandlerResult is the structured status object returned by every
// message-triggered handler.
type HandlerResult struct {
	Status  Status         `json:"status"`
	Reason  string         `json:"reason,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func Success() *HandlerResult {
	return &HandlerResult{Status: StatusSuccess}
}

func Skipped(reason string) *HandlerResult {
	return &HandlerResult{Status: StatusSkipped, Reason: reason}
}

func Failed(reason string) *HandlerResult {
	return &HandlerResult{Status: StatusFailed, Reason: reason}
}

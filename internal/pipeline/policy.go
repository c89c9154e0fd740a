package pipeline

import (
	"fmt"
	"strings"
)

// Validity-gate defaults. The classification is heuristic, so both knobs
// are configurable rather than fixed.
const (
	DefaultMinTranscriptChars = 80
)

// DefaultPlaceholderPatterns flag transcripts that are clearly test or
// placeholder content rather than a real call.
var DefaultPlaceholderPatterns = []string{
	"lorem ipsum",
	"test transcript",
	"placeholder",
}

// TranscriptPolicy decides whether fetched content is worth grading.
type TranscriptPolicy struct {
	MinChars            int
	PlaceholderPatterns []string
}

// DefaultTranscriptPolicy returns the policy used when none is configured.
func DefaultTranscriptPolicy() TranscriptPolicy {
	return TranscriptPolicy{
		MinChars:            DefaultMinTranscriptChars,
		PlaceholderPatterns: DefaultPlaceholderPatterns,
	}
}

// Check returns a non-empty rejection reason when the transcript must not
// be graded. Rejections are terminal: the source item is quarantined, not
// retried.
func (p TranscriptPolicy) Check(transcript string) string {
	trimmed := strings.TrimSpace(transcript)
	if trimmed == "" {
		return "transcript is empty"
	}
	if len(trimmed) < p.MinChars {
		return fmt.Sprintf("transcript is too short (%d chars, minimum %d)", len(trimmed), p.MinChars)
	}

	lowered := strings.ToLower(trimmed)
	for _, pattern := range p.PlaceholderPatterns {
		if strings.Contains(lowered, pattern) {
			return fmt.Sprintf("transcript matches placeholder pattern %q", pattern)
		}
	}
	return ""
}

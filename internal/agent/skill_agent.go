// Package agent runs rubric-based grading calls against the hosted model.
// Agents never let an error escape: after the retry budget is exhausted they
// resolve to a fallback report so callers always receive a well-formed
// result.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sethvargo/go-retry"

	"github.com/gdaskalakis/troy/internal/convert"
	"github.com/gdaskalakis/troy/internal/llm"
	"github.com/gdaskalakis/troy/internal/models"
	"github.com/gdaskalakis/troy/internal/skills"
	"github.com/gdaskalakis/troy/internal/validation"
)

var (
	fenceOpen  = regexp.MustCompile("(?s)^```[a-zA-Z]*\n")
	fenceClose = regexp.MustCompile("(?s)\n```$")
)

// StripFences removes a Markdown code-fence wrapper (optionally tagged, e.g.
// ```json) from a raw model response.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = fenceOpen.ReplaceAllString(s, "")
	s = fenceClose.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// SkillAgent grades one skill dimension of a transcript.
type SkillAgent struct {
	def    skills.Definition
	client llm.Client
	policy RetryPolicy
}

// NewSkillAgent creates an agent for the given skill definition.
func NewSkillAgent(def skills.Definition, client llm.Client, policy RetryPolicy) *SkillAgent {
	return &SkillAgent{
		def:    def,
		client: client,
		policy: policy,
	}
}

// Skill returns the canonical identifier of the skill this agent grades.
func (a *SkillAgent) Skill() string {
	return a.def.ID
}

// Run grades the transcript. Every attempt is independent: generate, strip
// fences, parse, convert, schema-validate. Any failure is retried with
// linear backoff up to the policy's attempt budget, then resolved to the
// fallback report.
func (a *SkillAgent) Run(ctx context.Context, transcript string) models.SkillReport {
	prompt := a.buildPrompt(transcript)

	var report models.SkillReport
	err := retry.Do(ctx, a.policy.Backoff(), func(ctx context.Context) error {
		r, err := a.attempt(ctx, prompt)
		if err != nil {
			slog.DebugContext(ctx, "skill agent attempt failed", "skill", a.def.ID, "error", err)
			return retry.RetryableError(err)
		}
		report = r
		return nil
	})

	if err != nil {
		slog.ErrorContext(ctx, "skill agent failed after retries, using fallback",
			"skill", a.def.ID, "maxAttempts", a.policy.MaxAttempts, "error", err)
		return models.FallbackReport(a.def.ID,
			fmt.Sprintf("The %s agent could not produce a grade after %d attempts.", a.def.DisplayName, a.policy.MaxAttempts))
	}

	slog.InfoContext(ctx, "skill graded", "skill", a.def.ID, "grade", report.Grade)
	return report
}

func (a *SkillAgent) attempt(ctx context.Context, prompt string) (models.SkillReport, error) {
	raw, err := a.client.Generate(ctx, llm.GenerateRequest{Prompt: prompt})
	if err != nil {
		return models.SkillReport{}, fmt.Errorf("model call failed: %w", err)
	}

	cleaned := StripFences(raw)

	var parsed map[string]any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return models.SkillReport{}, fmt.Errorf("parsing model response: %w", err)
	}

	// Repair rules run inside conversion, before schema validation.
	report := convert.ToSkillReport(a.def, parsed)

	data, err := json.Marshal(report)
	if err != nil {
		return models.SkillReport{}, fmt.Errorf("marshaling report: %w", err)
	}
	if errs := validation.ValidateSkillReportBytes(data); len(errs) > 0 {
		return models.SkillReport{}, fmt.Errorf("report failed schema validation: %s", strings.Join(errs, "; "))
	}

	return report, nil
}

func (a *SkillAgent) buildPrompt(transcript string) string {
	var sb strings.Builder
	sb.WriteString(a.def.Rubric)
	sb.WriteString("\n\nIMPORTANT: You must respond with ONLY valid JSON.\n")
	sb.WriteString("Do NOT include ```json fences, code blocks, or any other text.\n")
	sb.WriteString("Respond with pure JSON in this format:\n")
	sb.WriteString("{\n  \"items\": [\n    {\n")
	sb.WriteString(fmt.Sprintf("      \"skill\": %q,\n", a.def.ID))
	sb.WriteString("      \"grade\": \"A\",\n")
	sb.WriteString("      \"reasoning\": \"Your detailed reasoning here\"")

	if a.def.ExtendedMetrics {
		sb.WriteString(",\n      \"count\": 0,\n")
		sb.WriteString("      \"examples\": [\"...\"],\n")
		sb.WriteString("      \"ratio\": 0.0")
	}

	sb.WriteString("\n    }\n  ]\n}\n")
	sb.WriteString("\nTranscript:\n")
	sb.WriteString(transcript)
	return sb.String()
}

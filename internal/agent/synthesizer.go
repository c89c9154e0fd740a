package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sethvargo/go-retry"

	"github.com/gdaskalakis/troy/internal/llm"
	"github.com/gdaskalakis/troy/internal/models"
	"github.com/gdaskalakis/troy/internal/skills"
	"github.com/gdaskalakis/troy/internal/validation"
)

const synthesisRubric = `You are the synthesizer. Combine the following graded skill areas into one
final evaluation of the sales representative's performance.

Grade Criteria:
- A: Outstanding performance across all skills with excellent execution
- B: Strong performance with good skills and minor areas for improvement
- C: Average performance with room for development in multiple areas
- D: Below average performance requiring significant improvement
- F: Poor performance needing fundamental changes

Skills graded N/A could not be assessed; do not hold them against the rep,
but do not count them as strengths either.`

// Synthesizer combines all skill reports for one transcript into a single
// final verdict.
type Synthesizer struct {
	client llm.Client
	policy RetryPolicy
}

// NewSynthesizer creates a synthesizer using the given model client.
func NewSynthesizer(client llm.Client, policy RetryPolicy) *Synthesizer {
	return &Synthesizer{
		client: client,
		policy: policy,
	}
}

// Run produces the final verdict from the complete per-skill report map.
// Missing skills must already be filled in with N/A reports by the caller.
// The same cleaning/parsing/fallback discipline as the skill agents applies:
// on terminal failure a wholesale fallback result is returned, never a
// partially populated one.
func (s *Synthesizer) Run(ctx context.Context, reports map[string]models.SkillReport) models.SynthesisResult {
	prompt := buildSynthesisPrompt(reports)

	var result models.SynthesisResult
	err := retry.Do(ctx, s.policy.Backoff(), func(ctx context.Context) error {
		r, err := s.attempt(ctx, prompt)
		if err != nil {
			slog.DebugContext(ctx, "synthesis attempt failed", "error", err)
			return retry.RetryableError(err)
		}
		result = r
		return nil
	})

	if err != nil {
		slog.ErrorContext(ctx, "synthesis failed after retries, using fallback",
			"maxAttempts", s.policy.MaxAttempts, "error", err)
		return models.FallbackSynthesis(
			fmt.Sprintf("The synthesizer could not produce a final grade after %d attempts: %v", s.policy.MaxAttempts, err))
	}

	slog.InfoContext(ctx, "synthesis complete", "grade", result.FinalGrade)
	return result
}

func (s *Synthesizer) attempt(ctx context.Context, prompt string) (models.SynthesisResult, error) {
	raw, err := s.client.Generate(ctx, llm.GenerateRequest{Prompt: prompt})
	if err != nil {
		return models.SynthesisResult{}, fmt.Errorf("model call failed: %w", err)
	}

	cleaned := StripFences(raw)
	if errs := validation.ValidateSynthesisBytes([]byte(cleaned)); len(errs) > 0 {
		return models.SynthesisResult{}, fmt.Errorf("synthesis failed schema validation: %s", strings.Join(errs, "; "))
	}

	var result models.SynthesisResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return models.SynthesisResult{}, fmt.Errorf("parsing synthesis response: %w", err)
	}

	if result.DerivedMetrics == nil {
		result.DerivedMetrics = map[string]any{}
	}
	return result, nil
}

// buildSynthesisPrompt serializes every skill grade, reasoning, and metric
// into one text block, in registry order, and appends the output schema
// instructions.
func buildSynthesisPrompt(reports map[string]models.SkillReport) string {
	var sb strings.Builder
	sb.WriteString(synthesisRubric)
	sb.WriteString("\n\nGraded skill areas:\n")

	for _, def := range skills.All() {
		report, ok := reports[def.ID]
		if !ok {
			report = models.FallbackReport(def.ID, "no report produced for this skill")
		}

		sb.WriteString(fmt.Sprintf("\n%s: %s\n%s\n", def.DisplayName, report.Grade, report.Reasoning))
		if report.Count != nil {
			sb.WriteString(fmt.Sprintf("count: %d\n", *report.Count))
		}
		if report.Ratio != nil {
			sb.WriteString(fmt.Sprintf("ratio: %.1f%%\n", *report.Ratio))
		}
		for _, ex := range report.Examples {
			sb.WriteString(fmt.Sprintf("example: %s\n", ex))
		}
		for name, met := range report.BooleanCriteria {
			sb.WriteString(fmt.Sprintf("%s: %t\n", name, met))
		}
	}

	sb.WriteString(`
IMPORTANT: You must respond with ONLY valid JSON.
Do NOT include code fences or any other text.
Respond with pure JSON in this format:
{
  "grade": "B",
  "reasoning": "Overall assessment referencing strengths and weaknesses",
  "derived_metrics": {
    "rep_talk_ratio": 0.0,
    "total_filler_words": 0,
    "discovery_question_count": 0
  },
  "strengths": ["..."],
  "weaknesses": ["..."],
  "missed_opportunities": [
    {"opportunity": "...", "corrective": "..."}
  ]
}
Use null for any derived metric or list you genuinely cannot determine.
`)
	return sb.String()
}

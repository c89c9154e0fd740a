package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gdaskalakis/troy/internal/models"
	"github.com/gdaskalakis/troy/internal/skills"
)

func samplePayload() models.GradingPayload {
	count := 9
	ratio := 61.5
	return models.GradingPayload{
		FileID:    "doc1",
		FileName:  "call1.txt",
		Rep:       "alice",
		Timestamp: time.Date(2026, 4, 2, 15, 0, 0, 0, time.UTC),
		GradingResults: models.GradingResults{
			IndividualScores: map[string]models.SkillReport{
				"discovery": {
					Skill:     "discovery",
					Grade:     models.GradeA,
					Reasoning: "Asked **strong** open-ended questions.",
					Count:     &count,
					Examples:  []string{"What does your deal flow look like?"},
				},
				"call_control": {
					Skill:     "call_control",
					Grade:     models.GradeB,
					Reasoning: "Held the room well.",
					Ratio:     &ratio,
					BooleanCriteria: map[string]bool{
						"next_step_set": true,
					},
				},
			},
			FinalSynthesis: models.SynthesisResult{
				FinalGrade:     models.GradeB,
				Assessment:     "A solid call overall.",
				DerivedMetrics: map[string]any{"rep_talk_ratio": 61.5, "total_filler_words": float64(12)},
				Strengths:      []string{"Discovery depth"},
				Weaknesses:     []string{"Value proposition"},
				MissedOpportunities: []models.MissedOpportunity{
					{Opportunity: "Never mentioned liquidity", Corrective: "Tie financing to cash preservation"},
				},
			},
		},
	}
}

func TestBuildHTML(t *testing.T) {
	html, err := BuildHTML(samplePayload())
	require.NoError(t, err)

	require.Contains(t, html, "call1.txt")
	require.Contains(t, html, "alice")

	// Graded skills show their grade and rendered Markdown reasoning.
	require.Contains(t, html, "Discovery")
	require.Contains(t, html, `class="grade grade-A"`)
	require.Contains(t, html, "<strong>strong</strong>")
	require.Contains(t, html, "What does your deal flow look like?")

	// Synthesis content.
	require.Contains(t, html, "A solid call overall.")
	require.Contains(t, html, "Discovery depth")
	require.Contains(t, html, "Never mentioned liquidity")
	require.Contains(t, html, "rep_talk_ratio")
	require.Contains(t, html, "61.5")
}

func TestBuildHTMLFillsMissingSkills(t *testing.T) {
	payload := samplePayload()
	html, err := BuildHTML(payload)
	require.NoError(t, err)

	// Every registered skill appears, even without a report.
	for _, def := range skills.All() {
		require.Contains(t, html, def.DisplayName)
	}
	require.Contains(t, html, "No report was produced for this skill.")
	require.Contains(t, html, `class="grade grade-NA"`)
}

func TestBuildHTMLEscapesTranscriptContent(t *testing.T) {
	payload := samplePayload()
	payload.FileName = `<script>alert("x")</script>`

	html, err := BuildHTML(payload)
	require.NoError(t, err)
	require.NotContains(t, html, `<script>alert`)
}

func TestSubject(t *testing.T) {
	require.Equal(t, "Sales Transcript Grading: call1.txt - alice", Subject(samplePayload()))
}

func TestGradeClass(t *testing.T) {
	require.Equal(t, "grade-A", gradeClass(models.GradeA))
	require.Equal(t, "grade-NA", gradeClass(models.GradeNA))
	require.Equal(t, "grade-NA", gradeClass(""))
}

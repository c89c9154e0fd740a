package convert

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gdaskalakis/troy/internal/models"
	"github.com/gdaskalakis/troy/internal/skills"
)

func mustLookup(t *testing.T, id string) skills.Definition {
	t.Helper()
	def, ok := skills.Lookup(id)
	require.True(t, ok, "unknown skill %q", id)
	return def
}

func parseJSON(t *testing.T, s string) map[string]any {
	t.Helper()
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &raw))
	return raw
}

func TestToSkillReportCanonical(t *testing.T) {
	def := mustLookup(t, "discovery")
	raw := parseJSON(t, `{
		"items": [{
			"skill": "discovery",
			"grade": "B",
			"reasoning": "Asked solid open-ended questions.",
			"count": 7,
			"examples": ["What does your deal flow look like?"]
		}]
	}`)

	report := ToSkillReport(def, raw)
	require.Equal(t, "discovery", report.Skill)
	require.Equal(t, models.GradeB, report.Grade)
	require.Equal(t, "Asked solid open-ended questions.", report.Reasoning)
	require.NotNil(t, report.Count)
	require.Equal(t, 7, *report.Count)
	require.Equal(t, []string{"What does your deal flow look like?"}, report.Examples)
}

func TestToSkillReportAdHocAliases(t *testing.T) {
	def := mustLookup(t, "discovery")
	raw := parseJSON(t, `{
		"grade": "a",
		"analysis": "Strong discovery throughout.",
		"question_count": "12",
		"example_questions": ["How is the acquisition funded?"]
	}`)

	report := ToSkillReport(def, raw)
	require.Equal(t, models.GradeA, report.Grade)
	require.Equal(t, "Strong discovery throughout.", report.Reasoning)
	require.NotNil(t, report.Count)
	require.Equal(t, 12, *report.Count)
	require.Equal(t, []string{"How is the acquisition funded?"}, report.Examples)
}

func TestToSkillReportReasoningConcatenation(t *testing.T) {
	def := mustLookup(t, "discovery")
	raw := parseJSON(t, `{
		"grade": "C",
		"analysis": "Shared analysis.",
		"notes": "Shared notes.",
		"discovery_summary": "Skill-specific summary."
	}`)

	report := ToSkillReport(def, raw)
	require.Equal(t, "Shared analysis.\n\nShared notes.\n\nSkill-specific summary.", report.Reasoning)
}

func TestToSkillReportPairedRatioRescaled(t *testing.T) {
	def := mustLookup(t, "call_control")
	raw := parseJSON(t, `{
		"grade": "B",
		"reasoning": "Reasonable balance.",
		"rep_talk_ratio": 70,
		"prospect_talk_ratio": 20
	}`)

	report := ToSkillReport(def, raw)
	require.NotNil(t, report.Ratio)
	require.InDelta(t, 77.78, *report.Ratio, 0.01)
}

func TestToSkillReportPairedRatioWithinTolerance(t *testing.T) {
	def := mustLookup(t, "call_control")
	raw := parseJSON(t, `{
		"grade": "A",
		"reasoning": "ok",
		"rep_talk_ratio": 60,
		"prospect_talk_ratio": 40
	}`)

	report := ToSkillReport(def, raw)
	require.NotNil(t, report.Ratio)
	require.InDelta(t, 60.0, *report.Ratio, 0.001)
}

func TestToSkillReportCriteria(t *testing.T) {
	def := mustLookup(t, "icp")
	raw := parseJSON(t, `{
		"grade": "B",
		"icp_notes": "Good qualification.",
		"company_size_covered": true,
		"asked_industry": false,
		"asked_timing": "true"
	}`)

	report := ToSkillReport(def, raw)
	require.Equal(t, map[string]bool{
		"asked_company_size": true,
		"asked_industry":     false,
		"qualified_timing":   true,
	}, report.BooleanCriteria)
}

func TestToSkillReportNoGrade(t *testing.T) {
	def := mustLookup(t, "positioning")
	report := ToSkillReport(def, parseJSON(t, `{"something_else": 42}`))

	require.Equal(t, models.GradeNA, report.Grade)
	require.Equal(t, NoGradeReasoning, report.Reasoning)
}

func TestToSkillReportInvalidGradeKeepsReasoning(t *testing.T) {
	def := mustLookup(t, "positioning")
	report := ToSkillReport(def, parseJSON(t, `{"grade": "Z", "reasoning": "unusable grade"}`))

	require.Equal(t, models.GradeNA, report.Grade)
	require.Equal(t, "unusable grade", report.Reasoning)
}

func TestParseGradeVariants(t *testing.T) {
	require.Equal(t, models.GradeNA, parseGrade("na"))
	require.Equal(t, models.GradeNA, parseGrade("N/A"))
	require.Equal(t, models.GradeB, parseGrade(" b "))
	require.Equal(t, models.Grade(""), parseGrade("excellent"))
}

func TestFlattenStringList(t *testing.T) {
	values := []any{
		"plain string",
		map[string]any{"quote": "from an object", "speaker": "rep"},
		12.0,
	}
	require.Equal(t, []string{"plain string", "from an object", "12"}, FlattenStringList(values))
}

func TestNormalizeShares(t *testing.T) {
	t.Run("rescales when off by more than tolerance", func(t *testing.T) {
		shares := NormalizeShares([]float64{70, 20})
		require.InDelta(t, 77.78, shares[0], 0.01)
		require.InDelta(t, 22.22, shares[1], 0.01)
		require.InDelta(t, 100, shares[0]+shares[1], 0.0001)
	})

	t.Run("even split for all-zero input", func(t *testing.T) {
		require.Equal(t, []float64{50, 50}, NormalizeShares([]float64{0, 0}))
	})

	t.Run("unchanged within tolerance", func(t *testing.T) {
		require.Equal(t, []float64{60.5, 40}, NormalizeShares([]float64{60.5, 40}))
	})

	t.Run("three speakers", func(t *testing.T) {
		shares := NormalizeShares([]float64{50, 30, 10})
		require.InDelta(t, 100, shares[0]+shares[1]+shares[2], 0.0001)
		require.InDelta(t, 55.56, shares[0], 0.01)
	})

	t.Run("empty input", func(t *testing.T) {
		require.Empty(t, NormalizeShares(nil))
	})
}

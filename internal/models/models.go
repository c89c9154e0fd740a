package models

import "time"

// Grade is a letter grade assigned by a skill agent or the synthesizer.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
	// GradeNA is the fallback grade used when an agent could not produce
	// a valid result, or when a skill is missing from a result set.
	GradeNA Grade = "N/A"
)

// ValidGrade reports whether s is one of the recognized letter grades.
func ValidGrade(s string) bool {
	switch Grade(s) {
	case GradeA, GradeB, GradeC, GradeD, GradeF, GradeNA:
		return true
	}
	return false
}

// Task is the unit of work published by the scanner and consumed once by
// the grading processor. Immutable after creation.
type Task struct {
	FileID   string `json:"fileId"`
	FileName string `json:"fileName"`
	Rep      string `json:"rep"`
	FolderID string `json:"folderId"`
}

// SkillReport is one normalized grading result for a single skill.
type SkillReport struct {
	Skill     string   `json:"skill"`
	Grade     Grade    `json:"grade"`
	Reasoning string   `json:"reasoning"`
	Count     *int     `json:"count,omitempty"`
	Examples  []string `json:"examples,omitempty"`
	// Ratio is a percentage in [0, 100].
	Ratio           *float64        `json:"ratio,omitempty"`
	BooleanCriteria map[string]bool `json:"criteria,omitempty"`
}

// FallbackReport returns the safe default report for a skill whose agent
// could not produce a valid grade.
func FallbackReport(skill string, reason string) SkillReport {
	return SkillReport{
		Skill:     skill,
		Grade:     GradeNA,
		Reasoning: reason,
	}
}

// MissedOpportunity pairs a missed opening in the call with the corrective
// action the rep should have taken.
type MissedOpportunity struct {
	Opportunity string `json:"opportunity"`
	Corrective  string `json:"corrective"`
}

// SynthesisResult is the aggregate verdict over all skill reports for one
// transcript. Either every field is populated (nulls where unknown) or the
// wholesale fallback is used; it is never partially filled in.
type SynthesisResult struct {
	FinalGrade          Grade               `json:"grade"`
	Assessment          string              `json:"reasoning"`
	DerivedMetrics      map[string]any      `json:"derived_metrics"`
	Strengths           []string            `json:"strengths"`
	Weaknesses          []string            `json:"weaknesses"`
	MissedOpportunities []MissedOpportunity `json:"missed_opportunities"`
}

// FallbackSynthesis returns the neutral synthesis used when the synthesizer
// could not produce a valid verdict.
func FallbackSynthesis(reason string) SynthesisResult {
	return SynthesisResult{
		FinalGrade:     GradeNA,
		Assessment:     reason,
		DerivedMetrics: map[string]any{},
	}
}

// GradingResults bundles the per-skill reports with the final synthesis,
// keyed the way the notifier and the report renderer expect them.
type GradingResults struct {
	IndividualScores map[string]SkillReport `json:"individual_scores"`
	FinalSynthesis   SynthesisResult        `json:"final_synthesis"`
}

// PayloadMetadata describes one processing run of a transcript.
type PayloadMetadata struct {
	ProcessedAt      time.Time `json:"processed_at"`
	ExecutionID      string    `json:"execution_id"`
	ProcessingStatus string    `json:"processing_status"`
}

// GradingPayload is the message the processor hands to the notifier.
type GradingPayload struct {
	FileID         string          `json:"fileId"`
	FileName       string          `json:"fileName"`
	Rep            string          `json:"rep"`
	ManagerEmail   string          `json:"managerEmail"`
	Timestamp      time.Time       `json:"timestamp"`
	Transcript     string          `json:"transcript"`
	GradingResults GradingResults  `json:"grading_results"`
	Metadata       PayloadMetadata `json:"metadata"`
}

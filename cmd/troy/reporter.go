package main

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/gdaskalakis/troy/internal/models"
	"github.com/gdaskalakis/troy/internal/skills"
)

type writer = interface{ Write([]byte) (int, error) }

// displayGradeTable renders grading results as an aligned text table, one
// row per configured skill plus the final synthesis.
//
//nolint:errcheck
func displayGradeTable(w writer, fileName string, rep string, results models.GradingResults) {
	const colGrade = 5
	const colMetrics = 24

	nameWidth := len("Skill")
	for _, def := range skills.All() {
		if n := runewidth.StringWidth(def.DisplayName); n > nameWidth {
			nameWidth = n
		}
	}
	totalWidth := nameWidth + colGrade + colMetrics + 4 // 4 = 2 gaps x 2 spaces

	fmt.Fprintf(w, "\nGrading: %s", fileName)
	if rep != "" {
		fmt.Fprintf(w, " (%s)", rep)
	}
	fmt.Fprintf(w, "\n%s\n", strings.Repeat("─", totalWidth))

	fmt.Fprintf(w, "%s  %s  %s\n",
		padRight("Skill", nameWidth),
		padRight("Grade", colGrade),
		"Metrics")
	fmt.Fprintf(w, "%s\n", strings.Repeat("─", totalWidth))

	for _, def := range skills.All() {
		r, ok := results.IndividualScores[def.ID]
		if !ok {
			r = models.FallbackReport(def.ID, "no report produced")
		}
		fmt.Fprintf(w, "%s  %s  %s\n",
			padRight(def.DisplayName, nameWidth),
			padRight(string(r.Grade), colGrade),
			formatMetrics(r))
	}

	fmt.Fprintf(w, "%s\n", strings.Repeat("─", totalWidth))
	fmt.Fprintf(w, "%s  %s\n",
		padRight("Final", nameWidth),
		string(results.FinalSynthesis.FinalGrade))

	if assessment := strings.TrimSpace(results.FinalSynthesis.Assessment); assessment != "" {
		fmt.Fprintf(w, "\n%s\n", assessment)
	}
}

// formatMetrics summarizes the optional numeric fields of a skill report.
func formatMetrics(r models.SkillReport) string {
	var parts []string
	if r.Count != nil {
		parts = append(parts, fmt.Sprintf("count=%d", *r.Count))
	}
	if r.Ratio != nil {
		parts = append(parts, fmt.Sprintf("ratio=%.1f%%", *r.Ratio))
	}
	if len(r.BooleanCriteria) > 0 {
		met := 0
		for _, ok := range r.BooleanCriteria {
			if ok {
				met++
			}
		}
		parts = append(parts, fmt.Sprintf("criteria=%d/%d", met, len(r.BooleanCriteria)))
	}
	if len(r.Examples) > 0 {
		parts = append(parts, fmt.Sprintf("examples=%d", len(r.Examples)))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}

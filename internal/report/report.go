// Package report renders a grading payload into the HTML notification body.
// Every configured skill appears in the report: missing or failed skills
// show an explicit N/A card rather than being omitted.
package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/gdaskalakis/troy/internal/models"
	"github.com/gdaskalakis/troy/internal/skills"
)

//go:embed email.html.tmpl
var emailTemplateText string

var emailTemplate = template.Must(template.New("email").Parse(emailTemplateText))

type skillCard struct {
	Title      string
	Grade      string
	GradeClass string
	Reasoning  template.HTML
	Count      *int
	Ratio      *float64
	Examples   []string
	Criteria   map[string]bool
}

type metricEntry struct {
	Name  string
	Value string
}

type synthesisView struct {
	Grade               string
	GradeClass          string
	Assessment          template.HTML
	Strengths           []string
	Weaknesses          []string
	MissedOpportunities []models.MissedOpportunity
	Metrics             []metricEntry
}

type emailView struct {
	FileName  string
	Rep       string
	Skills    []skillCard
	Synthesis synthesisView
}

// BuildHTML renders the notification body for a grading payload.
func BuildHTML(payload models.GradingPayload) (string, error) {
	view := emailView{
		FileName: payload.FileName,
		Rep:      payload.Rep,
	}

	for _, def := range skills.All() {
		r, ok := payload.GradingResults.IndividualScores[def.ID]
		if !ok {
			r = models.FallbackReport(def.ID, "No report was produced for this skill.")
		}
		view.Skills = append(view.Skills, skillCard{
			Title:      def.DisplayName,
			Grade:      string(r.Grade),
			GradeClass: gradeClass(r.Grade),
			Reasoning:  renderMarkdown(r.Reasoning),
			Count:      r.Count,
			Ratio:      r.Ratio,
			Examples:   r.Examples,
			Criteria:   r.BooleanCriteria,
		})
	}

	synth := payload.GradingResults.FinalSynthesis
	view.Synthesis = synthesisView{
		Grade:               string(synth.FinalGrade),
		GradeClass:          gradeClass(synth.FinalGrade),
		Assessment:          renderMarkdown(synth.Assessment),
		Strengths:           synth.Strengths,
		Weaknesses:          synth.Weaknesses,
		MissedOpportunities: synth.MissedOpportunities,
		Metrics:             metricEntries(synth.DerivedMetrics),
	}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return buf.String(), nil
}

// Subject returns the notification subject line for a payload.
func Subject(payload models.GradingPayload) string {
	return fmt.Sprintf("Sales Transcript Grading: %s - %s", payload.FileName, payload.Rep)
}

func gradeClass(g models.Grade) string {
	if g == models.GradeNA || g == "" {
		return "grade-NA"
	}
	return "grade-" + string(g)
}

// renderMarkdown converts model-produced Markdown reasoning into HTML.
// Conversion failures fall back to the escaped plain text.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

func metricEntries(metrics map[string]any) []metricEntry {
	if len(metrics) == 0 {
		return nil
	}

	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]metricEntry, 0, len(names))
	for _, name := range names {
		v := metrics[name]
		if v == nil {
			continue
		}
		var value string
		switch val := v.(type) {
		case []any:
			parts := make([]string, 0, len(val))
			for _, item := range val {
				parts = append(parts, fmt.Sprintf("%v", item))
			}
			value = strings.Join(parts, ", ")
		case float64:
			value = strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", val), "0"), ".")
		default:
			value = fmt.Sprintf("%v", val)
		}
		out = append(out, metricEntry{Name: name, Value: value})
	}
	return out
}

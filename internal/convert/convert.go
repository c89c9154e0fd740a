// Package convert turns duck-typed model output into the canonical
// SkillReport shape. Conversion is total: any well-formed JSON object
// produces a valid report, never an error.
package convert

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/gdaskalakis/troy/internal/models"
	"github.com/gdaskalakis/troy/internal/skills"
)

// NoGradeReasoning is the reasoning recorded when no grade could be
// determined from any mapped field.
const NoGradeReasoning = "agent failed to provide a grade."

// canonicalItem mirrors one entry of the model's requested output shape,
// {"items": [{...}]}. Weakly typed so stringified numbers still decode.
type canonicalItem struct {
	Skill     string          `mapstructure:"skill"`
	Grade     string          `mapstructure:"grade"`
	Reasoning string          `mapstructure:"reasoning"`
	Count     *int            `mapstructure:"count"`
	Examples  []any           `mapstructure:"examples"`
	Ratio     *float64        `mapstructure:"ratio"`
	Criteria  map[string]bool `mapstructure:"criteria"`
}

// ToSkillReport converts a parsed response object into a canonical report
// for the given skill. The object may already match the canonical
// list-of-items shape, or be an ad hoc shape keyed by skill-specific field
// names; either way a valid report comes back.
func ToSkillReport(def skills.Definition, raw map[string]any) models.SkillReport {
	if items, ok := raw["items"].([]any); ok && len(items) > 0 {
		if first, ok := items[0].(map[string]any); ok {
			return fromCanonical(def, first)
		}
	}
	return fromAdHoc(def, raw)
}

func fromCanonical(def skills.Definition, item map[string]any) models.SkillReport {
	var decoded canonicalItem
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &decoded,
	})
	if err == nil {
		// Decode errors leave the partially decoded struct in place;
		// conversion continues with whatever fields survived.
		_ = dec.Decode(item)
	}

	report := models.SkillReport{
		Skill:           def.ID,
		Grade:           parseGrade(decoded.Grade),
		Reasoning:       strings.TrimSpace(decoded.Reasoning),
		Count:           decoded.Count,
		Examples:        FlattenStringList(decoded.Examples),
		Ratio:           decoded.Ratio,
		BooleanCriteria: decoded.Criteria,
	}

	if report.Reasoning == "" {
		report.Reasoning = collectReasoning(def, item)
	}
	return finalize(def, item, report)
}

func fromAdHoc(def skills.Definition, raw map[string]any) models.SkillReport {
	report := models.SkillReport{
		Skill:     def.ID,
		Reasoning: collectReasoning(def, raw),
	}

	if g, ok := raw["grade"]; ok {
		report.Grade = parseGrade(asString(g))
	}

	return finalize(def, raw, report)
}

// finalize applies the per-skill alias table and the fallback-grade rule.
func finalize(def skills.Definition, raw map[string]any, report models.SkillReport) models.SkillReport {
	if report.Count == nil {
		if n, ok := firstInt(raw, def.CountAliases); ok {
			report.Count = &n
		}
	}

	if report.Ratio == nil {
		if r, ok := firstFloat(raw, def.RatioAliases); ok {
			report.Ratio = &r
		}
	}

	// Two-party talk-time shares must partition 100%.
	if report.Ratio != nil && len(def.PairedRatioAliases) > 0 {
		if paired, ok := firstFloat(raw, def.PairedRatioAliases); ok {
			shares := NormalizeShares([]float64{*report.Ratio, paired})
			report.Ratio = &shares[0]
		}
	}

	if len(report.Examples) == 0 {
		for _, alias := range def.ExampleAliases {
			if v, ok := raw[alias].([]any); ok {
				report.Examples = FlattenStringList(v)
				break
			}
		}
	}

	if len(report.BooleanCriteria) == 0 && len(def.CriteriaAliases) > 0 {
		criteria := map[string]bool{}
		for name, aliases := range def.CriteriaAliases {
			if b, ok := firstBool(raw, aliases); ok {
				criteria[name] = b
			}
		}
		if len(criteria) > 0 {
			report.BooleanCriteria = criteria
		}
	}

	if report.Grade == "" {
		report.Grade = models.GradeNA
		if report.Reasoning == "" {
			report.Reasoning = NoGradeReasoning
		}
	}
	return report
}

// collectReasoning concatenates every present free-text explanation field,
// shared aliases first, then skill-specific narrative fields.
func collectReasoning(def skills.Definition, raw map[string]any) string {
	var parts []string
	for _, alias := range append(append([]string{}, skills.SharedReasoningAliases...), def.ReasoningAliases...) {
		if s := strings.TrimSpace(asString(raw[alias])); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// FlattenStringList converts a decoded JSON array into a list of strings.
// Elements that are objects instead of strings are flattened to their first
// value (smallest key first, so the result is deterministic), stringified.
func FlattenStringList(values []any) []string {
	var out []string
	for _, v := range values {
		switch val := v.(type) {
		case string:
			out = append(out, val)
		case map[string]any:
			if len(val) == 0 {
				continue
			}
			keys := make([]string, 0, len(val))
			for k := range val {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			out = append(out, asString(val[keys[0]]))
		default:
			out = append(out, asString(val))
		}
	}
	return out
}

// ShareTolerance is how far a set of percentage shares may deviate from
// summing to 100 before it is rescaled.
const ShareTolerance = 1.0

// NormalizeShares rescales percentage shares so they sum to exactly 100.
// Shares already within [ShareTolerance] of 100 are returned unchanged; an
// all-zero input becomes an even split. Works for any number of speakers,
// not just two.
func NormalizeShares(shares []float64) []float64 {
	if len(shares) == 0 {
		return shares
	}

	sum := 0.0
	for _, s := range shares {
		sum += s
	}

	out := make([]float64, len(shares))
	if sum == 0 {
		even := 100.0 / float64(len(shares))
		for i := range out {
			out[i] = even
		}
		return out
	}

	if diff := sum - 100; diff >= -ShareTolerance && diff <= ShareTolerance {
		copy(out, shares)
		return out
	}

	for i, s := range shares {
		out[i] = s * 100 / sum
	}
	return out
}

func parseGrade(s string) models.Grade {
	g := strings.ToUpper(strings.TrimSpace(s))
	if g == "NA" {
		g = string(models.GradeNA)
	}
	if models.ValidGrade(g) {
		return models.Grade(g)
	}
	return ""
}

func asString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func firstInt(raw map[string]any, aliases []string) (int, bool) {
	for _, alias := range aliases {
		if f, ok := toFloat(raw[alias]); ok {
			return int(f), true
		}
	}
	return 0, false
}

func firstFloat(raw map[string]any, aliases []string) (float64, bool) {
	for _, alias := range aliases {
		if f, ok := toFloat(raw[alias]); ok {
			return f, true
		}
	}
	return 0, false
}

func firstBool(raw map[string]any, aliases []string) (bool, bool) {
	for _, alias := range aliases {
		switch val := raw[alias].(type) {
		case bool:
			return val, true
		case string:
			if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
				return b, true
			}
		}
	}
	return false, false
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

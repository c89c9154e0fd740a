// Package skills defines the fixed set of grading dimensions evaluated for
// every sales-call transcript, along with the per-skill field alias tables
// the response converter uses to map ad hoc model output onto the canonical
// report shape.
package skills

// Definition describes one grading dimension.
type Definition struct {
	// ID is the canonical skill identifier used in reports and payloads.
	ID string

	DisplayName string

	// Rubric is the grading instruction block handed to the model.
	Rubric string

	// ExtendedMetrics requests the optional count/examples/ratio fields in
	// the agent's output schema.
	ExtendedMetrics bool

	// ReasoningAliases are skill-specific narrative fields consulted in
	// addition to the shared reasoning aliases.
	ReasoningAliases []string

	// Field alias tables, consulted in order; the first present field wins.
	CountAliases   []string
	RatioAliases   []string
	ExampleAliases []string

	// PairedRatioAliases name the complementary share for two-party ratio
	// fields (e.g. prospect talk time vs rep talk time). When both shares
	// are present they are rescaled to sum to exactly 100.
	PairedRatioAliases []string

	// CriteriaAliases map canonical boolean-criterion names to the source
	// fields they may arrive under.
	CriteriaAliases map[string][]string
}

// SharedReasoningAliases are the free-text explanation fields recognized for
// every skill, concatenated in this order when no canonical reasoning field
// is present.
var SharedReasoningAliases = []string{"reasoning", "analysis", "explanation", "notes"}

var registry = []Definition{
	{
		ID:          "call_control",
		DisplayName: "Call Control",
		Rubric: `Grade the rep's call control and next-step setting.

Did they:
- Balance listening vs. speaking?
- Guide the conversation without dominating it?
- Set a clear follow-up step (e.g., criteria sheet, second call)?

Also report the rep's share of talk time and the prospect's share of talk
time as percentages of the call.`,
		ExtendedMetrics:    true,
		ReasoningAliases:   []string{"call_control_notes"},
		RatioAliases:       []string{"rep_talk_ratio", "talk_ratio"},
		PairedRatioAliases: []string{"prospect_talk_ratio", "customer_talk_ratio"},
		CriteriaAliases: map[string][]string{
			"next_step_set":    {"next_step_set", "set_next_step", "follow_up_scheduled"},
			"balanced_airtime": {"balanced_airtime", "balanced_talk_time"},
		},
	},
	{
		ID:          "discovery",
		DisplayName: "Discovery",
		Rubric: `You are an SVP in equipment finance grading a sales call transcript for
discovery questions.

Did the rep:
- Ask strategic, open-ended questions?
- Inquire about the business, capital structure, deal flow, pain points?
- Explore decision-maker roles?
- Ask about the prospect's Ideal Customer Profile and overlaps?

Count the discovery questions asked and quote the strongest ones.`,
		ExtendedMetrics:  true,
		ReasoningAliases: []string{"discovery_summary"},
		CountAliases:     []string{"question_count", "discovery_question_count", "num_questions"},
		ExampleAliases:   []string{"example_questions", "questions", "examples"},
	},
	{
		ID:          "icp",
		DisplayName: "ICP Alignment",
		Rubric: `Grade the rep's ICP alignment.

Did they:
- Ask about company size, industry, and growth stage?
- Identify pain points relevant to VFI's ideal customer profile?
- Qualify funding needs and timing?`,
		ReasoningAliases: []string{"icp_notes"},
		CriteriaAliases: map[string][]string{
			"asked_company_size": {"asked_company_size", "company_size_covered"},
			"asked_industry":     {"asked_industry", "industry_covered"},
			"qualified_timing":   {"qualified_timing", "timing_covered", "asked_timing"},
		},
	},
	{
		ID:          "value_prop",
		DisplayName: "Value Proposition",
		Rubric: `You are an SVP in equipment finance grading a sales call transcript for
value proposition communication.

Did the rep:
- Clearly articulate VFI's value proposition?
- Explain the benefits of equipment financing vs. alternatives?
- Highlight VFI's competitive advantages?
- Address the prospect's specific needs and pain points?

List any missed opportunities to land the value proposition.`,
		ExtendedMetrics:  true,
		ReasoningAliases: []string{"value_prop_notes"},
		ExampleAliases:   []string{"missed_opportunities", "examples"},
	},
	{
		ID:          "positioning",
		DisplayName: "CapEx Positioning",
		Rubric: `Grade the rep's positioning of VFI as a growth CapEx partner.

Did they:
- Distinguish VFI from banks?
- Emphasize fixed asset funding?
- Explain liquidity benefits?
- Align with PE sponsors or CFO priorities?`,
		ReasoningAliases: []string{"positioning_notes"},
	},
	{
		ID:          "filler_words",
		DisplayName: "Filler Words",
		Rubric: `Grade the rep's verbal delivery for filler-word usage ("um", "uh",
"like", "you know", "sort of").

Count the filler words the rep used, quote a few representative instances,
and report fillers per 100 words spoken by the rep as a percentage.`,
		ExtendedMetrics:  true,
		ReasoningAliases: []string{"delivery_notes"},
		CountAliases:     []string{"filler_count", "filler_word_count", "count"},
		RatioAliases:     []string{"filler_ratio", "fillers_per_hundred_words"},
		ExampleAliases:   []string{"filler_examples", "examples"},
	},
}

// All returns the fixed skill set, in grading order.
func All() []Definition {
	out := make([]Definition, len(registry))
	copy(out, registry)
	return out
}

// IDs returns the canonical identifiers of the fixed skill set.
func IDs() []string {
	ids := make([]string, 0, len(registry))
	for _, d := range registry {
		ids = append(ids, d.ID)
	}
	return ids
}

// Lookup finds a skill definition by canonical identifier.
func Lookup(id string) (Definition, bool) {
	for _, d := range registry {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

// Package schemas embeds the JSON Schemas that model output is validated
// against before a grading result is accepted.
package schemas

import _ "embed"

//go:embed skill_report.schema.json
var SkillReportSchemaJSON string

//go:embed synthesis.schema.json
var SynthesisSchemaJSON string

// Package validation checks grading output against the embedded JSON
// Schemas. A report that fails validation is treated as a failed agent
// attempt and retried upstream.
package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gdaskalakis/troy/schemas"
)

// defaultPrinter is used to format schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// skillReportSchema is the compiled JSON Schema for canonical skill reports.
var skillReportSchema *jsonschema.Schema

// synthesisSchema is the compiled JSON Schema for synthesis results.
var synthesisSchema *jsonschema.Schema

func init() {
	skillReportSchema = mustCompileSchema(schemas.SkillReportSchemaJSON, "skill_report.schema.json")
	synthesisSchema = mustCompileSchema(schemas.SynthesisSchemaJSON, "synthesis.schema.json")
}

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	var schemaDoc any
	if err := json.Unmarshal([]byte(raw), &schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// ValidateSkillReportBytes validates raw JSON bytes against the canonical
// skill report schema. Returns nil when the document is valid.
func ValidateSkillReportBytes(data []byte) []string {
	return validateJSONBytes(skillReportSchema, data)
}

// ValidateSynthesisBytes validates raw JSON bytes against the synthesis
// result schema.
func ValidateSynthesisBytes(data []byte) []string {
	return validateJSONBytes(synthesisSchema, data)
}

func validateJSONBytes(schema *jsonschema.Schema, data []byte) []string {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return []string{fmt.Sprintf("JSON parse error: %v", err)}
	}
	return validateAgainstSchema(schema, doc)
}

func validateAgainstSchema(schema *jsonschema.Schema, instance any) []string {
	err := schema.Validate(instance)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}

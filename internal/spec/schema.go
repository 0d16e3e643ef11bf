package spec

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// scenarioSchema describes one YAML sub-document
const scenarioSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["name", "request", "response"],
	"additionalProperties": false,
	"properties": {
		"name":        {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"request":     {"type": "string", "minLength": 1},
		"response":    {"type": "string", "minLength": 1}
	}
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(scenarioSchema))
	if err != nil {
		panic(fmt.Sprintf("invalid scenario schema: %v", err))
	}
	return schema
}

// validateStructure checks a decoded sub-document against the scenario schema
func validateStructure(doc map[string]any) error {
	result, err := compiledSchema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("failed to validate scenario: %w", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return fmt.Errorf("invalid scenario: %s", strings.Join(problems, "; "))
}

package config

//go:generate go run ../tools/schema-generator -o ../llm-bridge.schema.json

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema reflects Config into a JSON Schema document. Property names
// follow the yaml tags so the same schema validates TOML and YAML files.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		ExpandedStruct:            true,
		DoNotReference:            true,
		FieldNameTag:              "yaml",
	}

	schema := r.Reflect(&Config{})
	schema.ID = ""
	schema.Title = "llm-bridge configuration"
	schema.Description = "Schema for llm-bridge.toml / llm-bridge.yml."
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return json.MarshalIndent(schema, "", "  ")
}

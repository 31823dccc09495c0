package bindings

import (
	"bytes"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// eventsSchema is the wire contract for import batches. Structural
// violations are rejected at the boundary as serialization errors before
// any decoding happens; semantic violations (non-monotonic sequences) are
// detected later and rejected as malformed batches.
const eventsSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["origin", "seq", "ts", "type", "payload"],
    "properties": {
      "origin": {"type": "string", "minLength": 1},
      "seq": {"type": "integer", "minimum": 1},
      "ts": {"type": "string", "minLength": 1},
      "type": {
        "type": "string",
        "enum": ["created", "updated", "deleted", "reordered", "due_date_set", "completion_set"]
      },
      "payload": {"type": "string", "minLength": 1}
    },
    "additionalProperties": false
  }
}`

var eventsSchemaCompiled = mustCompileEventsSchema()

func mustCompileEventsSchema() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(eventsSchema))
	if err != nil {
		panic(err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("events.schema.json", doc); err != nil {
		panic(err)
	}
	return compiler.MustCompile("events.schema.json")
}

// validateEventsJSON checks raw import JSON against the wire schema.
func validateEventsJSON(data []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}
	return eventsSchemaCompiled.Validate(inst)
}

package store

import (
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const slotSchemaURL = "duebell://schemas/tasks-slot.json"

// slotSchema describes the tasks slot. Unknown fields are tolerated;
// description and completed may be absent.
const slotSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["timeStamp"],
    "properties": {
      "id": {"type": "string"},
      "timeStamp": {"type": "string", "minLength": 1},
      "description": {"type": "string"},
      "completed": {"type": "boolean"}
    }
  }
}`

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func tasksSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(slotSchemaURL, strings.NewReader(slotSchema)); err != nil {
			compileErr = err
			return
		}
		compiled, compileErr = compiler.Compile(slotSchemaURL)
	})
	return compiled, compileErr
}

// validateSlot checks a decoded slot document against slotSchema.
func validateSlot(doc interface{}) error {
	schema, err := tasksSchema()
	if err != nil {
		return fmt.Errorf("compile slot schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			return fmt.Errorf("schema: %s", firstCause(ve))
		}
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}

func firstCause(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return loc + ": " + ve.Message
}

package macro

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "https://macrorec.local/schemas/macro.schema.json"

// fileSchema describes both accepted file shapes: the sectioned object and
// the legacy bare step list.
const fileSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$defs": {
    "step": {
      "type": "object",
      "required": ["type"],
      "properties": {
        "type": {"enum": ["delay", "press", "release", "mouse_press", "mouse_release"]}
      },
      "allOf": [
        {
          "if": {"properties": {"type": {"const": "delay"}}},
          "then": {
            "required": ["delay"],
            "properties": {
              "delay": {"type": "number", "minimum": 0},
              "unit": {"enum": ["ms", "secs", "mins", "hrs"]}
            }
          }
        },
        {
          "if": {"properties": {"type": {"enum": ["press", "release"]}}},
          "then": {"required": ["key"], "properties": {"key": {"type": "string"}}}
        },
        {
          "if": {"properties": {"type": {"enum": ["mouse_press", "mouse_release"]}}},
          "then": {
            "required": ["x", "y", "button"],
            "properties": {
              "x": {"type": "integer"},
              "y": {"type": "integer"},
              "button": {"enum": ["left", "right", "middle"]}
            }
          }
        }
      ]
    },
    "steps": {"type": "array", "items": {"$ref": "#/$defs/step"}}
  },
  "oneOf": [
    {"$ref": "#/$defs/steps"},
    {
      "type": "object",
      "required": ["sections"],
      "properties": {
        "sections": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["steps"],
            "properties": {
              "name": {"type": "string"},
              "steps": {"$ref": "#/$defs/steps"}
            }
          }
        },
        "delays_between": {"type": "array", "items": {"type": "integer", "minimum": 0}}
      }
    }
  ]
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(schemaURL, strings.NewReader(fileSchema)); err != nil {
			schemaErr = fmt.Errorf("failed to load schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("failed to compile schema: %w", schemaErr)
		}
	})
	return schema, schemaErr
}

// Validate checks an encoded macro file strictly against the file schema.
// Decode is more forgiving: it keeps unknown step types and repairs a wrong
// gap count, while Validate rejects unknown types. A gap count mismatch is
// not a schema error.
func Validate(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

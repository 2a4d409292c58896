package extractor

import (
	"encoding/json"
	"fmt"
	"sync"
)

// resultSchemaJSON is the authoritative JSON Schema for the extraction
// result. It is the contract between this pipeline and the model: the
// schema is attached to every request as a generation constraint, so
// the output shape is structurally guaranteed.
const resultSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://ladle.dev/schemas/extraction-result.json",
  "title": "RecipeExtractionResult",
  "type": "object",
  "properties": {
    "isRecipe": {
      "type": "boolean",
      "description": "True when the page contains at least one recipe."
    },
    "confidence": {
      "type": "number",
      "description": "Certainty of the isRecipe classification, from 0 to 1."
    },
    "internalReasoning": {
      "type": "string",
      "description": "Brief free-text reasoning behind the classification."
    },
    "recipes": {
      "type": "array",
      "description": "All recipes found on the page. Empty when isRecipe is false.",
      "items": {
        "type": "object",
        "properties": {
          "title": {"type": "string"},
          "description": {"type": "string"},
          "author": {"type": "string"},
          "sourceUrl": {"type": "string"},
          "servings": {"type": "string"},
          "prepTimeMinutes": {"type": "integer"},
          "cookTimeMinutes": {"type": "integer"},
          "totalTimeMinutes": {"type": "integer"},
          "cuisine": {"type": "array", "items": {"type": "string"}},
          "keywords": {"type": "array", "items": {"type": "string"}},
          "ingredients": {
            "type": "array",
            "items": {
              "type": "object",
              "properties": {
                "quantity": {"type": "number"},
                "unit": {"type": "string"},
                "name": {"type": "string"},
                "note": {"type": "string"}
              },
              "required": ["name"]
            }
          },
          "instructions": {
            "type": "array",
            "items": {
              "type": "object",
              "properties": {
                "step": {"type": "integer"},
                "text": {"type": "string"}
              },
              "required": ["step", "text"]
            }
          },
          "equipment": {"type": "array", "items": {"type": "string"}},
          "notes": {"type": "array", "items": {"type": "string"}},
          "storage": {"type": "string"}
        },
        "required": ["title", "ingredients", "instructions"]
      }
    }
  },
  "required": ["isRecipe", "confidence", "recipes"]
}`

// schemaMetaKeys are schema metadata fields irrelevant to the model.
// They are stripped before the schema is embedded in a request.
var schemaMetaKeys = []string{"$schema", "$id", "title"}

// parsedSchema decodes and strips the schema once; the result is shared
// across all requests and must be treated as read-only.
var parsedSchema = sync.OnceValues(func() (map[string]any, error) {
	var schema map[string]any
	if err := json.Unmarshal([]byte(resultSchemaJSON), &schema); err != nil {
		return nil, fmt.Errorf("failed to parse result schema: %w", err)
	}
	for _, key := range schemaMetaKeys {
		delete(schema, key)
	}
	return schema, nil
})

// ResultSchema returns the extraction result schema with identifier and
// versioning metadata stripped, ready to embed in an LLM request. The
// schema is parsed once and shared; callers must not modify it.
func ResultSchema() (map[string]any, error) {
	return parsedSchema()
}

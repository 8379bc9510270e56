// Package looks validates curated and saved look documents before they are
// persisted or applied to a canvas.
package looks

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/roomstage/roomstage/pkg/models"
)

// ErrInvalidLook wraps schema validation failures so callers can map them to
// a 400 without inspecting jsonschema error types.
var ErrInvalidLook = errors.New("looks: invalid look document")

const lookSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["title", "product_ids"],
  "properties": {
    "id": {"type": "string"},
    "title": {"type": "string", "minLength": 1, "maxLength": 200},
    "styles": {
      "type": "array",
      "items": {"type": "string", "minLength": 1},
      "maxItems": 20
    },
    "hero_image": {"type": "string"},
    "product_ids": {
      "type": "array",
      "items": {"type": "string", "minLength": 1},
      "uniqueItems": true,
      "maxItems": 100
    },
    "wall_color": {
      "type": "object",
      "required": ["id", "name", "hex"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "name": {"type": "string", "minLength": 1},
        "hex": {"type": "string", "pattern": "^#[0-9a-fA-F]{6}$"},
        "code": {"type": "string"},
        "brand": {"type": "string"}
      }
    },
    "floor_tile": {
      "type": "object",
      "required": ["id", "name"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "name": {"type": "string", "minLength": 1},
        "brand": {"type": "string"},
        "image_url": {"type": "string"},
        "size_cm": {"type": "string"},
        "price": {"type": "number", "minimum": 0}
      }
    },
    "created_at": {"type": "string"}
  },
  "additionalProperties": false
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiled() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("look.schema.json", lookSchema)
	})
	return schema, schemaErr
}

// Validate checks a raw look document against the look schema.
func Validate(doc json.RawMessage) error {
	s, err := compiled()
	if err != nil {
		return fmt.Errorf("compile look schema: %w", err)
	}

	var decoded any
	if err := json.Unmarshal(doc, &decoded); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLook, err)
	}
	if err := s.Validate(decoded); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLook, err)
	}
	return nil
}

// Decode validates and unmarshals a raw look document.
func Decode(doc json.RawMessage) (*models.CuratedLook, error) {
	if err := Validate(doc); err != nil {
		return nil, err
	}
	var look models.CuratedLook
	if err := json.Unmarshal(doc, &look); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLook, err)
	}
	return &look, nil
}

// Encode marshals a look and validates the result, so exported documents
// always satisfy the same schema imports are held to.
func Encode(look *models.CuratedLook) (json.RawMessage, error) {
	if look == nil {
		return nil, errors.New("looks: nil look")
	}
	doc, err := json.Marshal(look)
	if err != nil {
		return nil, fmt.Errorf("encode look: %w", err)
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

package ai

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// extractionSchema constrains the AI response shape before decoding. Field
// types stay loose (numbers may arrive as strings) since Number coercion
// handles them; the schema only rejects responses whose top-level arrays are
// the wrong shape entirely.
const extractionSchema = `{
  "type": "object",
  "properties": {
    "products": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "product_name": {"type": ["string", "null"]},
          "brand": {"type": ["string", "null"]},
          "category": {"type": ["string", "null"]},
          "size": {"type": ["string", "null"]},
          "price": {"type": ["number", "string", "null"]},
          "price_sale": {"type": ["number", "string", "null"]},
          "thc_percent": {"type": ["number", "string", "null"]},
          "cbd_percent": {"type": ["number", "string", "null"]},
          "stock_status": {"type": ["string", "null"]}
        }
      }
    },
    "promotions": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "title": {"type": ["string", "null"]},
          "details": {"type": ["string", "null"]},
          "discount_pct": {"type": ["number", "string", "null"]},
          "start_date": {"type": ["string", "null"]},
          "end_date": {"type": ["string", "null"]},
          "type": {"type": ["string", "null"]},
          "raw": {"type": ["string", "null"]}
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(extractionSchema)

// ValidateExtraction checks a raw AI response against the extraction schema.
func ValidateExtraction(raw []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
}

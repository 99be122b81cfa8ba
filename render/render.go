// Package render serializes generated OpenAPI documents to JSON and YAML
// and serves them over HTTP together with interactive documentation UIs.
package render

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/oasynth/oasynth/openapi"
)

// JSON renders the document as indented JSON. Output is deterministic:
// object keys marshal sorted and ordered structures keep their insertion
// order.
func JSON(doc *openapi.Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// YAML renders the document as YAML with two-space indentation.
func YAML(doc *openapi.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

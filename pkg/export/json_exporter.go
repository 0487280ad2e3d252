package export

import (
	"encoding/json"
	"fmt"
)

// JSONExporter renders arbitrary payloads into indented JSON bytes.
type JSONExporter struct{}

// NewJSONExporter builds a JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// Render produces JSON encoded bytes for the payload.
func (e *JSONExporter) Render(payload interface{}) ([]byte, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode json export: %w", err)
	}
	return data, nil
}

package export

import (
	"encoding/json"
	"io"
)

// JSONExporter exports documents as indented JSON.
type JSONExporter struct{}

func (e *JSONExporter) Export(doc Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func (e *JSONExporter) Extension() string {
	return "json"
}

package export

import (
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLExporter exports documents as YAML.
type YAMLExporter struct{}

func (e *YAMLExporter) Export(doc Document, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func (e *YAMLExporter) Extension() string {
	return "yaml"
}

// Package export writes a sprint phase's transcript and artifacts to
// markdown, JSON or YAML.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fyrsmithlabs/designsprint/internal/phase"
	"github.com/fyrsmithlabs/designsprint/internal/sprint"
)

// Document is the exported form of one phase.
type Document struct {
	Phase            phase.SprintPhase `json:"phase" yaml:"phase"`
	Title            string            `json:"title" yaml:"title"`
	ExportedAt       time.Time         `json:"exported_at" yaml:"exported_at"`
	Persona          string            `json:"persona,omitempty" yaml:"persona,omitempty"`
	ProblemStatement string            `json:"problem_statement,omitempty" yaml:"problem_statement,omitempty"`
	Transcript       []sprint.Message  `json:"transcript" yaml:"transcript"`
	Ideas            []sprint.Idea     `json:"ideas,omitempty" yaml:"ideas,omitempty"`
	PrototypeSpec    string            `json:"prototype_spec,omitempty" yaml:"prototype_spec,omitempty"`
	Summary          string            `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// FromState builds a Document from an orchestrator snapshot. Inputs the
// phase does not use are left out.
func FromState(s sprint.State, now time.Time) Document {
	cfg := phase.MustLookup(s.Phase)
	doc := Document{
		Phase:         s.Phase,
		Title:         cfg.Title,
		ExportedAt:    now.UTC(),
		Transcript:    s.Transcript,
		Ideas:         s.Ideas,
		PrototypeSpec: s.PrototypeSpec,
		Summary:       s.Summary,
	}
	if doc.Transcript == nil {
		doc.Transcript = []sprint.Message{}
	}
	if cfg.RequiresPersonaInput {
		doc.Persona = s.Persona
	}
	if cfg.RequiresProblemStatementInput || s.Phase == phase.Define {
		doc.ProblemStatement = s.ProblemStatement
	}
	return doc
}

// Exporter writes a Document in one format.
type Exporter interface {
	Export(doc Document, w io.Writer) error
	Extension() string
}

// NewExporter returns the exporter for format.
func NewExporter(format string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: md, json, yaml)", format)
	}
}

// ForPath picks the exporter from path's extension.
func ForPath(path string) (Exporter, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return nil, fmt.Errorf("cannot infer export format from %q", path)
	}
	return NewExporter(ext)
}

// WriteFile exports doc to path, choosing the format from the extension.
// The file is created with 0600 permissions.
func WriteFile(path string, doc Document) error {
	exp, err := ForPath(path)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := exp.Export(doc, f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to export: %w", err)
	}
	return f.Close()
}

// DefaultFileName names an export of p in the given format.
func DefaultFileName(p phase.SprintPhase, ext string, now time.Time) string {
	return fmt.Sprintf("sprint-%s-%s.%s", strings.ToLower(p.String()), now.Format("20060102-150405"), ext)
}

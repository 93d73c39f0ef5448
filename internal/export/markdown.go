package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/fyrsmithlabs/designsprint/internal/sprint"
)

// MarkdownExporter exports documents as a readable markdown report.
type MarkdownExporter struct{}

func (e *MarkdownExporter) Export(doc Document, w io.Writer) error {
	b := &strings.Builder{}

	fmt.Fprintf(b, "# %s\n\n", doc.Title)
	fmt.Fprintf(b, "**Exported:** %s  \n", doc.ExportedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(b, "**Messages:** %d\n\n", len(doc.Transcript))
	if doc.Persona != "" {
		fmt.Fprintf(b, "**Persona:** %s\n\n", doc.Persona)
	}
	if doc.ProblemStatement != "" {
		fmt.Fprintf(b, "**Problem statement:** %s\n\n", doc.ProblemStatement)
	}

	if doc.Summary != "" {
		fmt.Fprintf(b, "## Summary\n\n%s\n\n", doc.Summary)
	}

	if len(doc.Ideas) > 0 {
		b.WriteString("## Ideas\n\n")
		for _, idea := range doc.Ideas {
			fmt.Fprintf(b, "- %s\n", idea.Text)
		}
		b.WriteString("\n")
	}

	if doc.PrototypeSpec != "" {
		fmt.Fprintf(b, "## Prototype Spec\n\n%s\n\n", doc.PrototypeSpec)
	}

	b.WriteString("---\n\n## Transcript\n\n")
	for i, msg := range doc.Transcript {
		fmt.Fprintf(b, "**%s** (%s)\n\n%s\n\n", senderLabel(msg.Sender), msg.Timestamp.Format("15:04:05"), msg.Text)
		if msg.Metadata != nil && len(msg.Metadata.Citations) > 0 {
			b.WriteString("Sources:\n")
			for _, c := range msg.Metadata.Citations {
				fmt.Fprintf(b, "- [%s](%s)\n", citationTitle(c.Title, c.URI), c.URI)
			}
			b.WriteString("\n")
		}
		if i < len(doc.Transcript)-1 {
			b.WriteString("---\n\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (e *MarkdownExporter) Extension() string {
	return "md"
}

func senderLabel(s sprint.Sender) string {
	switch s {
	case sprint.SenderUser:
		return "You"
	case sprint.SenderAI:
		return "AI"
	default:
		return "System"
	}
}

func citationTitle(title, uri string) string {
	if title != "" {
		return title
	}
	return uri
}

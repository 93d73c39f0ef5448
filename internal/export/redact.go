package export

import (
	"github.com/fyrsmithlabs/designsprint/internal/secrets"
	"github.com/fyrsmithlabs/designsprint/internal/sprint"
)

// Redact returns a copy of doc with credentials replaced in every free-text
// field, and the number of replacements made. doc itself is not modified.
func Redact(doc Document, s *secrets.Scrubber) (Document, int) {
	if s == nil {
		return doc, 0
	}
	n := 0
	scrub := func(text string) string {
		res := s.Scrub(text)
		n += res.Total()
		return res.Text
	}

	out := doc
	out.Persona = scrub(doc.Persona)
	out.ProblemStatement = scrub(doc.ProblemStatement)
	out.PrototypeSpec = scrub(doc.PrototypeSpec)
	out.Summary = scrub(doc.Summary)
	out.Ideas = redactIdeas(doc.Ideas, scrub)

	out.Transcript = make([]sprint.Message, len(doc.Transcript))
	for i, msg := range doc.Transcript {
		msg.Text = scrub(msg.Text)
		if msg.Metadata != nil {
			md := *msg.Metadata
			md.Ideas = redactIdeas(md.Ideas, scrub)
			msg.Metadata = &md
		}
		out.Transcript[i] = msg
	}
	return out, n
}

func redactIdeas(ideas []sprint.Idea, scrub func(string) string) []sprint.Idea {
	if ideas == nil {
		return nil
	}
	out := make([]sprint.Idea, len(ideas))
	for i, idea := range ideas {
		idea.Text = scrub(idea.Text)
		out[i] = idea
	}
	return out
}

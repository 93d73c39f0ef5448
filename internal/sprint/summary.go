package sprint

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/designsprint/internal/logging"
	"github.com/fyrsmithlabs/designsprint/internal/phase"
)

// minSummaryContent is the least trimmed content worth summarizing.
const minSummaryContent = 50

// Summarize asks the backend for a checkpoint summary of the current
// phase. The previous summary is cleared first. Only one summary may be
// pending at a time; transcript and ideas are never modified.
func (o *Orchestrator) Summarize(ctx context.Context) (string, error) {
	o.mu.Lock()
	if o.state.Backend != BackendReady {
		o.mu.Unlock()
		return "", ErrNotReady
	}
	if o.state.Summarizing {
		o.mu.Unlock()
		return "", ErrSummaryInFlight
	}
	p := o.state.Phase
	o.state.Summary = ""
	o.state.Error = ""
	content := summaryContent(o.state)
	if utf8.RuneCountInString(strings.TrimSpace(content)) < minSummaryContent {
		o.state.Error = NotEnoughContentMessage
		o.mu.Unlock()
		o.notify()
		o.metrics.summary(ctx, p, "not_enough_content")
		return "", ErrNotEnoughContent
	}
	o.state.Summarizing = true
	epoch := o.epoch
	o.mu.Unlock()
	o.notify()

	ctx = logging.WithRequestID(logging.WithPhase(ctx, p.String()), newID())
	ctx, span := o.tracer.Start(ctx, "sprint.summarize",
		trace.WithAttributes(attribute.String("sprint.phase", p.String())))
	defer span.End()

	text, err := o.client.GenerateSummary(ctx, content, p.String())

	o.mu.Lock()
	if epoch != o.epoch {
		o.mu.Unlock()
		o.metrics.staleResult(ctx, "summarize")
		return "", ErrPhaseChanged
	}
	o.state.Summarizing = false
	if err != nil {
		o.state.Error = err.Error()
	} else {
		o.state.Summary = text
	}
	o.mu.Unlock()
	o.notify()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.metrics.summary(ctx, p, "error")
		o.logger.Warn(ctx, "summary failed", zap.Error(err))
		return "", err
	}
	o.metrics.summary(ctx, p, "ok")
	o.logger.Debug(ctx, "summary generated", zap.Int("content_length", len(content)))
	return text, nil
}

// SummaryContent returns what Summarize would send for the current state.
func (o *Orchestrator) SummaryContent() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return summaryContent(o.state)
}

// summaryContent assembles the text a checkpoint summary is derived from.
func summaryContent(s State) string {
	var b strings.Builder
	b.WriteString("User Persona: ")
	b.WriteString(s.Persona)
	b.WriteString("\n\n")

	if (s.Phase == phase.Sketch || s.Phase == phase.Define) && s.ProblemStatement != "" {
		b.WriteString("Problem Statement: ")
		b.WriteString(s.ProblemStatement)
		b.WriteString("\n\n")
	}

	if len(s.Transcript) > 0 {
		b.WriteString("Conversation History:\n")
		for i, m := range s.Transcript {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString("[" + string(m.Sender) + "]: " + m.Text)
		}
	}

	if s.Phase == phase.Sketch && len(s.Ideas) > 0 {
		b.WriteString("\n\nGenerated Ideas:\n")
		for i, idea := range s.Ideas {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString("- " + idea.Text)
		}
	}

	if s.Phase == phase.Prototype && s.PrototypeSpec != "" {
		b.WriteString("\n\nGenerated Prototype Spec:\n ")
		b.WriteString(s.PrototypeSpec)
	}
	return b.String()
}

// IsValidation reports whether err is a user input problem rather than a
// backend failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyMessage) ||
		errors.Is(err, ErrNotEnoughContent) ||
		errors.Is(err, ErrSummaryInFlight) ||
		errors.Is(err, ErrImagesNotAllowed)
}

package gateway

import (
	"context"
	"fmt"
)

// Role is the author of a history Turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one prior exchange used to seed a new Session.
type Turn struct {
	Role Role
	Text string
}

// InlineData is a binary attachment sent inline with a message.
type InlineData struct {
	MIMEType string
	Data     []byte
}

// Content is one outbound message. Images are sent before the text.
type Content struct {
	Images []InlineData
	Text   string
}

// TextContent is shorthand for a text-only Content.
func TextContent(text string) Content {
	return Content{Text: text}
}

// Citation is a web source the backend grounded its reply on.
type Citation struct {
	URI   string `json:"uri" yaml:"uri"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
}

func (c Citation) String() string {
	if c.Title == "" {
		return c.URI
	}
	return fmt.Sprintf("%s (%s)", c.Title, c.URI)
}

// Reply is the result of one generation.
type Reply struct {
	Text      string
	Citations []Citation
}

// Client is the AI backend as seen by the orchestrator.
type Client interface {
	// StartSession opens a multi-turn chat with its own system instruction
	// and seed history. Opening a session does not contact the backend.
	StartSession(ctx context.Context, systemInstruction string, history []Turn) (Session, error)

	// GenerateOnce runs a single stateless generation.
	GenerateOnce(ctx context.Context, prompt, systemInstruction string) (Reply, error)

	// GenerateSummary condenses content from the named phase into a short
	// carry-forward summary.
	GenerateSummary(ctx context.Context, content, phaseLabel string) (string, error)

	// GenerateImage renders one image for prompt.
	GenerateImage(ctx context.Context, prompt string) (InlineData, error)

	Close() error
}

// Session is a stateful chat. History grows only with successful exchanges.
type Session interface {
	Send(ctx context.Context, content Content) (Reply, error)
	SystemInstruction() string
}

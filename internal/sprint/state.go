package sprint

import (
	"slices"
	"time"

	"github.com/fyrsmithlabs/designsprint/internal/attachments"
	"github.com/fyrsmithlabs/designsprint/internal/gateway"
	"github.com/fyrsmithlabs/designsprint/internal/phase"
)

// Sender is the author of a transcript entry.
type Sender string

const (
	SenderUser   Sender = "user"
	SenderAI     Sender = "ai"
	SenderSystem Sender = "system"
)

// Message is one transcript entry.
type Message struct {
	ID        string    `json:"id" yaml:"id"`
	Sender    Sender    `json:"sender" yaml:"sender"`
	Text      string    `json:"text" yaml:"text"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Metadata  *Metadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Metadata is optional data attached to a Message.
type Metadata struct {
	// Ideas added by the Sketch turn this system note reports on.
	Ideas []Idea `json:"ideas,omitempty" yaml:"ideas,omitempty"`
	// Citations the backend grounded an AI reply on.
	Citations []gateway.Citation `json:"citations,omitempty" yaml:"citations,omitempty"`
}

// Idea is a solution idea collected in the Sketch phase.
type Idea struct {
	ID       string `json:"id" yaml:"id"`
	Text     string `json:"text" yaml:"text"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	Impact   string `json:"impact,omitempty" yaml:"impact,omitempty"`
	Effort   string `json:"effort,omitempty" yaml:"effort,omitempty"`
}

// SubState is the lifecycle of the current phase's AI context.
type SubState int

const (
	SubStateUninitialized SubState = iota
	SubStateInitializing
	SubStateReady
	SubStateAwaitingResponse
	SubStateError
)

func (s SubState) String() string {
	switch s {
	case SubStateUninitialized:
		return "uninitialized"
	case SubStateInitializing:
		return "initializing"
	case SubStateReady:
		return "ready"
	case SubStateAwaitingResponse:
		return "awaiting-response"
	case SubStateError:
		return "error"
	}
	return "unknown"
}

// BackendStatus is the result of the startup availability check.
type BackendStatus int

const (
	BackendChecking BackendStatus = iota
	BackendReady
	BackendUnavailable
)

func (s BackendStatus) String() string {
	switch s {
	case BackendChecking:
		return "checking"
	case BackendReady:
		return "ready"
	case BackendUnavailable:
		return "unavailable"
	}
	return "unknown"
}

// State is a snapshot of the orchestrator.
type State struct {
	Phase    phase.SprintPhase
	SubState SubState
	Backend  BackendStatus
	// BackendError explains an unavailable backend. It survives phase
	// switches; Error does not.
	BackendError string

	Transcript    []Message
	Ideas         []Idea
	PrototypeSpec string
	Summary       string
	Summarizing   bool
	Error         string

	Persona          string
	ProblemStatement string
	Images           []attachments.Image

	// HasSession reports whether a chat session is open for the phase.
	HasSession bool
}

// Busy reports whether a reply or summary is pending.
func (s State) Busy() bool {
	return s.SubState == SubStateInitializing || s.SubState == SubStateAwaitingResponse || s.Summarizing
}

// IdeaTexts returns the text of every idea, in order.
func (s State) IdeaTexts() []string {
	out := make([]string, len(s.Ideas))
	for i, idea := range s.Ideas {
		out[i] = idea.Text
	}
	return out
}

// clone deep-copies s. Image bytes are shared; they are never mutated.
func (s State) clone() State {
	c := s
	c.Transcript = make([]Message, len(s.Transcript))
	for i, m := range s.Transcript {
		c.Transcript[i] = m.clone()
	}
	c.Ideas = slices.Clone(s.Ideas)
	c.Images = slices.Clone(s.Images)
	return c
}

func (m Message) clone() Message {
	if m.Metadata != nil {
		md := Metadata{
			Ideas:     slices.Clone(m.Metadata.Ideas),
			Citations: slices.Clone(m.Metadata.Citations),
		}
		m.Metadata = &md
	}
	return m
}

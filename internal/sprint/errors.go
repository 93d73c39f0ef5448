package sprint

import (
	"errors"

	"github.com/fyrsmithlabs/designsprint/internal/gateway"
)

// Messages shown to the user.
const (
	NotEnoughContentMessage      = "Not enough content to generate a meaningful summary."
	MissingCredentialMessage     = "API_KEY environment variable is not set. Please configure it to use the AI features."
	PlaceholderCredentialMessage = "API_KEY is still set to the placeholder value. Please configure a real key to use the AI features."
)

var (
	// ErrEmptyMessage is returned by Send for blank input. Nothing changes.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrNotReady is returned when the AI backend is unavailable.
	ErrNotReady = errors.New("AI backend is not ready")

	// ErrNotEnoughContent is returned by Summarize when there is too little
	// to summarize. No AI call is made.
	ErrNotEnoughContent = errors.New("not enough content to generate a meaningful summary")

	// ErrSummaryInFlight is returned by Summarize while another summary of
	// the same phase is pending.
	ErrSummaryInFlight = errors.New("summary already in progress")

	// ErrPhaseChanged is returned when a result arrives after the phase it
	// was started for was left. The result is discarded.
	ErrPhaseChanged = errors.New("phase changed before the result arrived")

	// ErrImagesNotAllowed is returned by SetImages outside image phases.
	ErrImagesNotAllowed = errors.New("current phase does not accept images")
)

// unavailableMessage is the text shown for a backend that failed to start.
func unavailableMessage(err error) string {
	switch {
	case errors.Is(err, gateway.ErrCredentialMissing):
		return MissingCredentialMessage
	case errors.Is(err, gateway.ErrCredentialPlaceholder):
		return PlaceholderCredentialMessage
	default:
		return err.Error()
	}
}

package gateway

import (
	"errors"

	"github.com/fyrsmithlabs/designsprint/internal/config"
)

// Configuration errors. They are reported once at startup and are not
// recoverable without restarting with a valid credential.
var (
	ErrCredentialMissing     = config.ErrCredentialMissing
	ErrCredentialPlaceholder = config.ErrCredentialPlaceholder
	ErrUnknownProvider       = errors.New("unknown AI provider")
)

// Call errors.
var (
	ErrEmptyResponse           = errors.New("empty response from AI")
	ErrSummaryFailed           = errors.New("failed to generate summary from AI")
	ErrImageGenerationFailed   = errors.New("image generation failed or returned no images")
	ErrImageGenerationDisabled = errors.New("image generation is not supported by this provider")
	ErrClosed                  = errors.New("gateway client closed")
)

// IsConfigurationError reports whether err means the backend can never
// become available in this process.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrCredentialMissing) ||
		errors.Is(err, ErrCredentialPlaceholder) ||
		errors.Is(err, ErrUnknownProvider)
}

package providers

import (
	"context"
	"errors"
)

// ErrBackendUnavailable is returned for any text-generation failure: timeout,
// transport error, non-2xx status or an empty body.
var ErrBackendUnavailable = errors.New("text generation backend unavailable")

// TextGenerator produces a completion for a prompt on a named model.
type TextGenerator interface {
	// Generate sends one non-streaming completion request and returns the raw response text.
	Generate(ctx context.Context, model, prompt string) (string, error)
}

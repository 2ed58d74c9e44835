package completion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/baozi-order/internal/dialogue"
)

// Common errors
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmptyTranscript    = errors.New("transcript cannot be empty")
	ErrProviderFailed     = errors.New("completion provider failed")
	ErrMalformedResponse  = errors.New("malformed completion response")
	ErrUnsupportedModel   = errors.New("unsupported provider")
	ErrNoProviderEnabled  = errors.New("no completion provider configured")
	ErrTemperatureInRange = errors.New("temperature must be between 0 and 1")
)

// Defaults for the chat completion endpoint
const (
	ProviderDeepSeek = "deepseek"

	DefaultModel       = "deepseek-chat"
	DefaultBaseURL     = "https://api.deepseek.com/v1"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
	DefaultTimeout     = 30 * time.Second
)

// Params are the sampling parameters sent with each request
type Params struct {
	Model       string
	Temperature float64 // 0..1
	MaxTokens   int
}

// DefaultParams returns the parameters the assistant was tuned with
func DefaultParams() Params {
	return Params{
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// Client sends a transcript to a text completion service
type Client interface {
	// Complete returns the best-ranked continuation of turns. Invalid input
	// returns the ValidateRequest error and is never sent. A failed call
	// returns an error wrapping ErrProviderFailed and the underlying cause.
	// An empty reply is not a failure.
	Complete(ctx context.Context, turns []dialogue.Turn, params Params) (string, error)

	// Provider returns the provider name
	Provider() string

	// Close releases any resources held by the client
	Close() error
}

// ValidateRequest checks turns and params before anything goes over the wire
func ValidateRequest(turns []dialogue.Turn, params Params) error {
	if len(turns) == 0 {
		return ErrEmptyTranscript
	}
	for i, turn := range turns {
		if !turn.Role.Valid() {
			return fmt.Errorf("%w: turn %d has unknown role %q", ErrInvalidInput, i, turn.Role)
		}
	}
	if params.Temperature < 0 || params.Temperature > 1 {
		return fmt.Errorf("%w: got %v", ErrTemperatureInRange, params.Temperature)
	}
	if params.MaxTokens < 0 {
		return fmt.Errorf("%w: max tokens %d", ErrInvalidInput, params.MaxTokens)
	}
	return nil
}

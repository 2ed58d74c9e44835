package completion

import (
	"fmt"
	"strings"
	"time"
)

// Config holds completion client configuration
type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	Retry    RetryConfig
}

// New creates a client with explicit configuration
func New(cfg Config) (Client, error) {
	provider := strings.ToLower(cfg.Provider)
	if provider == "" {
		provider = ProviderDeepSeek
	}

	switch provider {
	case ProviderDeepSeek:
		return NewDeepSeekProvider(cfg)
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, cfg.Provider)
	}
}

package flavor

import (
	"context"
	"fmt"
	"time"
)

// Options tunes a single text-generation call.
type Options struct {
	MaxTokens   int
	Temperature float32
}

// Provider is the capability interface for the external text generator. A nil
// Provider is a valid configuration and routes every call to the local
// fallback path.
type Provider interface {
	GenerateText(ctx context.Context, prompt string, opts Options) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	// Provider is "gemini", "openai" or "" (disabled).
	Provider string

	GeminiAPIKey string
	GeminiModel  string

	OpenAIAPIKey string
	OpenAIModel  string

	// Timeout bounds a single generation call. External latency must never
	// fail the enclosing operation, so callers combine this with the
	// fallback path. Default: 15s.
	Timeout time.Duration
}

const defaultTimeout = 15 * time.Second

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultTimeout
}

// NewProvider builds the configured provider. An empty provider name returns
// (nil, nil): flavor generation then runs entirely on the deterministic
// fallback pools.
func NewProvider(ctx context.Context, cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "gemini":
		return newGeminiProvider(ctx, cfg)
	case "openai":
		return newOpenAIProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown flavor provider: %q", cfg.Provider)
	}
}

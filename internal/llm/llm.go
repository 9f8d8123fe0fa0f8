// Package llm sends single-turn completion requests to a hosted language
// model. Bedrock (Anthropic models) and OpenAI chat completions are supported.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ignite/dm-planner/internal/config"
)

var (
	// ErrNotConfigured means no usable provider or credentials were configured.
	ErrNotConfigured = errors.New("llm: provider not configured")
	// ErrEmptyCompletion means the provider answered with no text.
	ErrEmptyCompletion = errors.New("llm: empty completion")
)

// Request is one completion call.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	// JSON asks the provider for a JSON-object-only answer where supported.
	JSON bool
}

// Completer turns a prompt into model text.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
	Provider() string
}

// New builds the Completer selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig) (Completer, error) {
	switch strings.ToLower(cfg.Provider) {
	case "bedrock":
		return NewBedrock(ctx, cfg)
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY is empty", ErrNotConfigured)
		}
		return NewOpenAI(cfg, nil), nil
	case "", "none":
		return nil, ErrNotConfigured
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrNotConfigured, cfg.Provider)
	}
}

// ExtractJSON returns the outermost JSON object in s, tolerating markdown
// code fences and prose around it. It returns s trimmed if no object is found.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}

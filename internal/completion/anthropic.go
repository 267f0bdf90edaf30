package completion

import (
	"context"
	"fmt"
	"strings"
	"sync"

	sdkmodel "github.com/cexll/agentsdk-go/pkg/model"

	"github.com/culturalabs/cultura/internal/config"
)

// AnthropicBackend completes prompts through an Anthropic-compatible API
// (including OpenAI-compatible gateways that speak the same message shape).
// Models are instantiated lazily per roster entry and reused.
type AnthropicBackend struct {
	apiKey    string
	baseURL   string
	maxTokens int

	mu     sync.Mutex
	models map[string]sdkmodel.Model
}

func NewAnthropicBackend(cfg config.ProviderConfig, maxTokens int) (*AnthropicBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: api key required")
	}
	if maxTokens <= 0 {
		maxTokens = config.DefaultMaxTokens
	}
	return &AnthropicBackend{
		apiKey:    cfg.APIKey,
		baseURL:   cfg.BaseURL,
		maxTokens: maxTokens,
		models:    make(map[string]sdkmodel.Model),
	}, nil
}

func (b *AnthropicBackend) Name() string { return "anthropic" }

func (b *AnthropicBackend) model(name string) (sdkmodel.Model, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := b.models[name]; ok {
		return m, nil
	}
	m, err := sdkmodel.NewAnthropic(sdkmodel.AnthropicConfig{
		APIKey:    b.apiKey,
		BaseURL:   b.baseURL,
		Model:     name,
		MaxTokens: b.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("create model %s: %w", name, err)
	}
	b.models[name] = m
	return m, nil
}

func (b *AnthropicBackend) Complete(ctx context.Context, model, prompt string) (string, error) {
	m, err := b.model(model)
	if err != nil {
		return "", &Error{Model: model, Err: err}
	}
	resp, err := m.Complete(ctx, sdkmodel.Request{
		Messages: []sdkmodel.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", &Error{Model: model, Err: err}
	}
	text := strings.TrimSpace(resp.Message.TextContent())
	if text == "" {
		return "", &Error{Model: model, Err: fmt.Errorf("empty response")}
	}
	return text, nil
}

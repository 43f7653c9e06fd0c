package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Client is the model backend boundary: one prompt in, raw text out.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Provider identifies a supported model backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
	ProviderClaude Provider = "claude"
	ProviderOllama Provider = "ollama"
)

// Options configures a connector.
type Options struct {
	Provider    Provider
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Connector implements Client on top of a langchaingo model.
type Connector struct {
	provider Provider
	llm      llms.Model
	options  Options
}

// NewConnector creates a connector for the configured provider.
func NewConnector(ctx context.Context, options Options) (*Connector, error) {
	var model llms.Model
	var err error

	log.Debug().
		Str("provider", string(options.Provider)).
		Str("model", options.Model).
		Float64("temperature", options.Temperature).
		Msg("creating model connector")

	switch options.Provider {
	case ProviderOpenAI:
		opts := []openai.Option{openai.WithToken(options.APIKey)}
		if options.Model != "" {
			opts = append(opts, openai.WithModel(options.Model))
		}
		if options.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(options.BaseURL))
		}
		model, err = openai.New(opts...)

	case ProviderGemini:
		opts := []googleai.Option{googleai.WithAPIKey(options.APIKey)}
		if options.Model != "" {
			opts = append(opts, googleai.WithDefaultModel(options.Model))
		}
		model, err = googleai.New(ctx, opts...)

	case ProviderClaude:
		opts := []anthropic.Option{anthropic.WithToken(options.APIKey)}
		if options.Model != "" {
			opts = append(opts, anthropic.WithModel(options.Model))
		}
		model, err = anthropic.New(opts...)

	case ProviderOllama:
		opts := []ollama.Option{}
		if options.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(options.BaseURL))
		}
		if options.Model != "" {
			opts = append(opts, ollama.WithModel(options.Model))
		}
		model, err = ollama.New(opts...)

	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", options.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create model for provider %s: %w", options.Provider, err)
	}

	return &Connector{provider: options.Provider, llm: model, options: options}, nil
}

// Name returns the provider name.
func (c *Connector) Name() string {
	return string(c.provider)
}

// Complete runs a single prompt to completion.
func (c *Connector) Complete(ctx context.Context, prompt string) (string, error) {
	callOpts := []llms.CallOption{}
	if c.options.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(c.options.Temperature))
	}
	if c.options.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(c.options.MaxTokens))
	}

	out, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt, callOpts...)
	if err != nil {
		return "", fmt.Errorf("model completion failed: %w", err)
	}
	return out, nil
}

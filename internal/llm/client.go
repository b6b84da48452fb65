// Package llm provides the language model access used by NLCP agents: a
// provider-agnostic client with rate limiting, retry with backoff, and
// repair of the JSON replies models actually produce.
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
	"golang.org/x/time/rate"
)

// Provider identifies a supported model provider.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "googleai"
	ProviderOllama    Provider = "ollama"
)

// Options configures the client. APIKey may be empty for local providers.
type Options struct {
	Provider          Provider
	Model             string
	APIKey            string
	BaseURL           string
	Temperature       float64
	MaxTokens         int
	RequestsPerSecond float64 // 0 means unlimited
}

// Client wraps one provider model behind a single Complete call.
type Client struct {
	model   llms.Model
	opts    Options
	limiter *rate.Limiter
	retry   RetryConfig
}

// New builds a client for the configured provider.
func New(ctx context.Context, opts Options) (*Client, error) {
	var (
		model llms.Model
		err   error
	)

	log.Debug().
		Str("provider", string(opts.Provider)).
		Str("model", opts.Model).
		Msg("creating llm client")

	switch opts.Provider {
	case ProviderOpenAI:
		model, err = newOpenAI(opts)
	case ProviderAnthropic:
		model, err = newAnthropic(opts)
	case ProviderGoogle:
		model, err = newGoogle(ctx, opts)
	case ProviderOllama:
		model, err = newOllama(opts)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", opts.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s model: %w", opts.Provider, err)
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Client{
		model:   model,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		retry:   DefaultRetryConfig(),
	}, nil
}

// Complete sends one prompt and returns the model's text reply. Transient
// provider errors are retried with exponential backoff; the rate limiter is
// consulted before every attempt so retries never burst past the configured
// request rate.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	callOpts := []llms.CallOption{
		llms.WithTemperature(c.opts.Temperature),
	}
	if c.opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(c.opts.MaxTokens))
	}

	var reply string
	err := retryWithBackoff(ctx, c.retry, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		out, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt, callOpts...)
		if err != nil {
			return err
		}
		reply = out
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	return reply, nil
}

func newOpenAI(opts Options) (llms.Model, error) {
	o := []openai.Option{
		openai.WithModel(opts.Model),
		openai.WithToken(opts.APIKey),
	}
	if opts.BaseURL != "" {
		o = append(o, openai.WithBaseURL(opts.BaseURL))
	}
	return openai.New(o...)
}

func newAnthropic(opts Options) (llms.Model, error) {
	o := []anthropic.Option{
		anthropic.WithToken(opts.APIKey),
		anthropic.WithModel(opts.Model),
	}
	if opts.BaseURL != "" {
		o = append(o, anthropic.WithBaseURL(opts.BaseURL))
	}
	return anthropic.New(o...)
}

func newGoogle(ctx context.Context, opts Options) (llms.Model, error) {
	return googleai.New(ctx,
		googleai.WithAPIKey(opts.APIKey),
		googleai.WithDefaultModel(opts.Model),
	)
}

func newOllama(opts Options) (llms.Model, error) {
	o := []ollama.Option{
		ollama.WithModel(opts.Model),
	}
	if opts.BaseURL != "" {
		o = append(o, ollama.WithServerURL(opts.BaseURL))
	}
	return ollama.New(o...)
}

// Package llm provides the hosted completion client used by the model
// classifier and the insight summarizer.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ErrDisabled indicates no API credential is configured. Callers degrade to
// their deterministic fallback path instead of treating this as fatal.
var ErrDisabled = errors.New("llm: no api credential configured")

// ErrUnavailable indicates the completion API is unreachable or errored.
var ErrUnavailable = errors.New("llm: completion api unavailable")

// DefaultTimeout bounds a single completion call. On timeout the caller
// sees ErrUnavailable like any other transport failure.
const DefaultTimeout = 60 * time.Second

// Request is a single structured-completion request.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int64
	Temperature float64
}

// CompletionClient issues structured-completion requests against a hosted
// generative model.
type CompletionClient interface {
	// Complete sends one request and returns the raw response text.
	Complete(ctx context.Context, req Request) (string, error)
	// Enabled reports whether a credential is configured.
	Enabled() bool
	// Model returns the model identifier requests are issued against.
	Model() string
}

// Config holds completion client configuration.
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client is the real CompletionClient backed by the Anthropic Messages API.
type Client struct {
	api     anthropic.Client
	model   string
	timeout time.Duration
}

// New builds a CompletionClient from config. With an empty APIKey it
// returns a disabled client whose Complete always fails with ErrDisabled.
func New(cfg Config) CompletionClient {
	if cfg.APIKey == "" {
		return &disabledClient{model: cfg.Model}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		api:     anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:   cfg.Model,
		timeout: timeout,
	}
}

// Complete sends one completion request and concatenates the text blocks of
// the response. Any transport or API error is wrapped in ErrUnavailable.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: req.MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	msg, err := c.api.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// Enabled reports true; the client has a credential.
func (c *Client) Enabled() bool {
	return true
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// disabledClient is returned when no credential is configured.
type disabledClient struct {
	model string
}

func (d *disabledClient) Complete(ctx context.Context, req Request) (string, error) {
	return "", ErrDisabled
}

func (d *disabledClient) Enabled() bool {
	return false
}

func (d *disabledClient) Model() string {
	return d.model
}

package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIOptions configures an OpenAI-compatible chat client.
type OpenAIOptions struct {
	Model     string
	APIKey    string
	BaseURL   string        // empty uses the public endpoint
	MaxTokens int           // 0 leaves the limit to the service
	Timeout   time.Duration // 0 disables the client timeout
}

// OpenAI is a Completer backed by langchaingo's OpenAI chat client.
type OpenAI struct {
	model     llms.Model
	name      string
	maxTokens int
}

// NewOpenAI creates a chat client for opts.Model.
func NewOpenAI(opts OpenAIOptions) (*OpenAI, error) {
	if opts.Model == "" {
		return nil, fmt.Errorf("llm: model is required")
	}

	clientOpts := []openai.Option{
		openai.WithModel(opts.Model),
		openai.WithToken(opts.APIKey),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(opts.BaseURL))
	}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, openai.WithHTTPClient(&http.Client{Timeout: opts.Timeout}))
	}

	model, err := openai.New(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("llm: create openai client: %w", err)
	}

	return &OpenAI{model: model, name: opts.Model, maxTokens: opts.MaxTokens}, nil
}

// Model returns the configured model identifier.
func (o *OpenAI) Model() string {
	return o.name
}

// Complete sends a system message followed by a human message.
func (o *OpenAI) Complete(ctx context.Context, system, user string) (string, error) {
	messages := []llms.MessageContent{
		{Role: llms.ChatMessageTypeSystem, Parts: []llms.ContentPart{llms.TextContent{Text: system}}},
		{Role: llms.ChatMessageTypeHuman, Parts: []llms.ContentPart{llms.TextContent{Text: user}}},
	}

	var callOpts []llms.CallOption
	if o.maxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(o.maxTokens))
	}

	resp, err := o.model.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Content, nil
}

// Package groq implements analysis.Analyzer against Groq's OpenAI-compatible
// chat-completions endpoint.
package groq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sakif/contract-auditor/internal/analysis"
	"github.com/sakif/contract-auditor/internal/apperror"
)

// DefaultBaseURL is Groq's OpenAI-compatible API root.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// Config holds the Groq connection settings.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int

	// HTTPClient is optional; tests point it at an httptest server.
	HTTPClient *http.Client
}

// DefaultConfig returns a Config with the production endpoint and model.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:    apiKey,
		BaseURL:   DefaultBaseURL,
		Model:     analysis.DefaultModel,
		MaxTokens: analysis.DefaultMaxTokens,
	}
}

// Analyzer calls the chat-completions API once per contract.
type Analyzer struct {
	client    *openai.Client
	model     string
	maxTokens int
	logger    *slog.Logger
}

var _ analysis.Analyzer = (*Analyzer)(nil)

// New creates an Analyzer. Empty Config fields fall back to DefaultConfig.
func New(cfg Config, logger *slog.Logger) (*Analyzer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("groq: API key is required")
	}
	def := DefaultConfig(cfg.APIKey)
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}

	return &Analyzer{
		client:    openai.NewClientWithConfig(oc),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    logger,
	}, nil
}

// Analyze sends the system prompt plus source and returns the first choice.
//
// No timeout is applied here; ctx is the only bound on a long completion.
func (a *Analyzer) Analyze(ctx context.Context, source string) (string, error) {
	start := time.Now()

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: analysis.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: source},
		},
		MaxTokens: a.maxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			a.logger.Warn("groq API error",
				slog.Int("status", apiErr.HTTPStatusCode),
				slog.String("message", apiErr.Message),
			)
		}
		return "", apperror.AnalysisFailed(fmt.Errorf("groq: chat completion: %w", err))
	}

	if len(resp.Choices) == 0 {
		return "", apperror.AnalysisFailed(errors.New("groq: response has no choices"))
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", apperror.AnalysisFailed(errors.New("groq: empty completion"))
	}

	a.logger.Debug("groq completion received",
		slog.String("model", resp.Model),
		slog.Int("completion_tokens", resp.Usage.CompletionTokens),
		slog.String("finish_reason", string(resp.Choices[0].FinishReason)),
		slog.Duration("duration", time.Since(start)),
	)

	return content, nil
}

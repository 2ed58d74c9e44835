package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dshills/baozi-order/internal/dialogue"
)

// OpenAI-compatible endpoint defaults
const (
	ProviderOpenAI = "openai"

	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-4o-mini"

	chatCompletionsPath = "/chat/completions"
	maxErrorBodyBytes   = 4096
)

// ChatProvider implements Client against an OpenAI-style /chat/completions
// endpoint. DeepSeek and OpenAI speak the same wire format.
type ChatProvider struct {
	name       string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	retry      RetryConfig
}

// NewChatProvider creates a provider. The API key is required and is never
// looked up from the environment here.
func NewChatProvider(name string, cfg Config) (*ChatProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: api key for %s not set", ErrNoProviderEnabled, name)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL(name)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	retry := cfg.Retry
	if retry.MaxAttempts == 0 {
		retry = DefaultRetryConfig()
	}

	return &ChatProvider{
		name:    name,
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retry: retry,
	}, nil
}

// NewDeepSeekProvider creates a provider for the DeepSeek chat API
func NewDeepSeekProvider(cfg Config) (*ChatProvider, error) {
	return NewChatProvider(ProviderDeepSeek, cfg)
}

// NewOpenAIProvider creates a provider for the OpenAI chat API
func NewOpenAIProvider(cfg Config) (*ChatProvider, error) {
	return NewChatProvider(ProviderOpenAI, cfg)
}

func (p *ChatProvider) Complete(ctx context.Context, turns []dialogue.Turn, params Params) (string, error) {
	if err := ValidateRequest(turns, params); err != nil {
		return "", err
	}

	if params.Model == "" {
		params.Model = defaultModel(p.name)
	}

	reply, err := retryWithBackoff(ctx, p.retry, func() (string, error) {
		return p.callAPI(ctx, turns, params)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrProviderFailed, err)
	}

	return reply, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Index   int `json:"index"`
		Message *struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Model string `json:"model"`
}

func (p *ChatProvider) callAPI(ctx context.Context, turns []dialogue.Turn, params Params) (string, error) {
	reqBody := chatRequest{
		Model:       params.Model,
		Messages:    make([]chatMessage, len(turns)),
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	}
	for i, turn := range turns {
		reqBody.Messages[i] = chatMessage{Role: string(turn.Role), Content: turn.Text}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+chatCompletionsPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return "", fmt.Errorf("api error %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrMalformedResponse, err)
	}

	if len(apiResp.Choices) == 0 || apiResp.Choices[0].Message == nil {
		return "", fmt.Errorf("%w: no choices returned", ErrMalformedResponse)
	}

	return apiResp.Choices[0].Message.Content, nil
}

func (p *ChatProvider) Provider() string {
	return p.name
}

func (p *ChatProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

func defaultBaseURL(provider string) string {
	if provider == ProviderOpenAI {
		return DefaultOpenAIBaseURL
	}
	return DefaultBaseURL
}

func defaultModel(provider string) string {
	if provider == ProviderOpenAI {
		return DefaultOpenAIModel
	}
	return DefaultModel
}

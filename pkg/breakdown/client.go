package breakdown

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "qwen/qwen3-coder-next"
	DefaultTimeout = 20 * time.Second

	appTitle = "LifeOS"
)

var ErrNoAPIKey = errors.New("breakdown: no API key configured")

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	Referer string
}

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	cfg Config
	api *openai.Client
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Referer == "" {
		cfg.Referer = "https://lifeos.local"
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	apiCfg.HTTPClient = &http.Client{
		Timeout: cfg.Timeout,
		Transport: &headerTransport{
			base: http.DefaultTransport,
			headers: map[string]string{
				"HTTP-Referer": cfg.Referer,
				"X-Title":      appTitle,
			},
		},
	}
	return &Client{cfg: cfg, api: openai.NewClientWithConfig(apiCfg)}
}

// headerTransport adds the OpenRouter attribution headers to every request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}

// Complete sends messages and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrNoAPIKey
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.cfg.Model,
		Messages: messages,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("http %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return resp.Choices[0].Message.Content, nil
}

func systemPrompt(domain string) string {
	if domain == "" {
		domain = "General"
	}
	return "You are a productivity expert. Break down the following task into 3-5 actionable, bite-sized subtasks.\n" +
		"Context: Domain is " + domain + ".\n\n" +
		"Return ONLY a raw JSON array of strings. No markdown, no explanations.\n" +
		`Example: ["Draft outline", "Research competitors", "Write introduction"]`
}

// Subtasks asks the model to split title into steps.
func (c *Client) Subtasks(ctx context.Context, title, domain string) ([]string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("breakdown: task title is required")
	}
	content, err := c.Complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(domain)},
		{Role: openai.ChatMessageRoleUser, Content: "Task: " + title},
	})
	if err != nil {
		return nil, fmt.Errorf("breakdown: %w", err)
	}
	steps, err := ParseSubtasks(content)
	if err != nil {
		return nil, fmt.Errorf("breakdown: %w", err)
	}
	return steps, nil
}

// Breakdown is Subtasks with the failure swallowed: any error, including a
// timeout, is logged and yields no steps.
func (c *Client) Breakdown(ctx context.Context, title, domain string) []string {
	steps, err := c.Subtasks(ctx, title, domain)
	if err != nil {
		log.Printf("Warning: %v", err)
		return nil
	}
	return steps
}

// ParseSubtasks extracts a JSON array of strings from a model reply,
// tolerating code fences and chatter around the array.
func ParseSubtasks(content string) ([]string, error) {
	clean := strings.TrimSpace(content)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	first := strings.Index(clean, "[")
	last := strings.LastIndex(clean, "]")
	if first != -1 && last > first {
		clean = clean[first : last+1]
	}

	var raw []string
	if err := json.Unmarshal([]byte(clean), &raw); err != nil {
		return nil, fmt.Errorf("parse model reply: %w", err)
	}
	steps := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			steps = append(steps, s)
		}
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("model returned no subtasks")
	}
	return steps, nil
}

// Package llm generates guidance with the Gemini generateContent API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/sadreammm/Helply/internal/apiclient"
	"github.com/sadreammm/Helply/internal/interfaces"
	"github.com/sadreammm/Helply/internal/metrics"
	"github.com/sadreammm/Helply/pkg/models"
)

// ErrDisabled is returned by New when no API key is configured
var ErrDisabled = errors.New("generative guidance disabled: no api key")

const (
	DefaultModel       = "gemini-2.0-flash-lite"
	DefaultBaseURL     = "https://generativelanguage.googleapis.com/v1beta"
	DefaultTimeout     = 20 * time.Second
	DefaultMaxAttempts = 3
	Temperature        = 0.3
)

// DefaultPlatforms are offered to the model when clarifying intent
var DefaultPlatforms = []string{"GitHub", "Slack", "Jira", "Figma"}

// Config is the configuration for the Gemini client.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	// Timeout bounds one Generate or ClarifyIntent call including retries.
	Timeout     time.Duration
	MaxAttempts int
	// Platforms lists the platform names offered when clarifying intent.
	Platforms  []string
	HTTPClient *http.Client
	Metrics    *metrics.Metrics
	// InitialInterval is the first retry delay.
	InitialInterval time.Duration
}

func (c *Config) defaults() error {
	if c.APIKey == "" {
		return ErrDisabled
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if len(c.Platforms) == 0 {
		c.Platforms = DefaultPlatforms
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = 500 * time.Millisecond
	}
	return nil
}

// Client calls Gemini and turns its output into guidance.
type Client struct {
	cfg Config
	api *apiclient.Client
}

// New returns a client, or ErrDisabled when cfg has no API key.
func New(cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, err
	}

	hc := &http.Client{Timeout: cfg.Timeout}
	base := http.DefaultTransport
	if cfg.HTTPClient != nil {
		hc.Timeout = cfg.HTTPClient.Timeout
		if cfg.HTTPClient.Transport != nil {
			base = cfg.HTTPClient.Transport
		}
	}
	hc.Transport = &keyTransport{key: cfg.APIKey, base: base}

	return &Client{cfg: cfg, api: apiclient.New(cfg.BaseURL, hc)}, nil
}

// keyTransport adds the API key header to every request
type keyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *keyTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("x-goog-api-key", t.key)
	return t.base.RoundTrip(r)
}

// Model returns the model name in use
func (c *Client) Model() string { return c.cfg.Model }

// Generate asks the model for guidance on the request's page.
func (c *Client) Generate(ctx context.Context, req models.GuidanceRequest) (*models.Guidance, error) {
	text, err := c.generate(ctx, "generate", systemPrompt, guidancePrompt(req))
	if err != nil {
		return nil, err
	}
	g, err := parseGuidance(text)
	if err != nil {
		c.cfg.Metrics.LLM("generate", "malformed")
		slog.DebugContext(ctx, "unparseable model output", "output", truncate(text, 500))
		return nil, fmt.Errorf("could not parse guidance: %w", err)
	}
	return g, nil
}

// ClarifyIntent restates a free-text task request as platform and action.
func (c *Client) ClarifyIntent(ctx context.Context, text, currentURL string) (*models.Intent, error) {
	out, err := c.generate(ctx, "intent", "", intentPrompt(text, currentURL, c.cfg.Platforms))
	if err != nil {
		return nil, err
	}
	in, err := parseIntent(out)
	if err != nil {
		c.cfg.Metrics.LLM("intent", "malformed")
		return nil, fmt.Errorf("could not parse intent: %w", err)
	}
	return in, nil
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *content       `json:"systemInstruction,omitempty"`
	Contents          []content      `json:"contents"`
	GenerationConfig  map[string]any `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (c *Client) generate(ctx context.Context, op, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: map[string]any{
			"temperature":      Temperature,
			"responseMimeType": "application/json",
		},
	}
	if system != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}
	path := "/models/" + url.PathEscape(c.cfg.Model) + ":generateContent"

	var text string
	attempt := 0
	operation := func() error {
		attempt++
		var resp generateResponse
		err := c.api.Do(ctx, http.MethodPost, path, body, &resp)
		if err != nil {
			if !apiclient.Transient(err) {
				return backoff.Permanent(err)
			}
			slog.WarnContext(ctx, "model call failed, retrying", "op", op, "attempt", attempt, "error", err)
			return err
		}
		if resp.PromptFeedback.BlockReason != "" {
			return backoff.Permanent(fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason))
		}
		if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
			return backoff.Permanent(fmt.Errorf("model returned no candidates"))
		}
		var sb strings.Builder
		for _, p := range resp.Candidates[0].Content.Parts {
			sb.WriteString(p.Text)
		}
		text = sb.String()
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.cfg.MaxAttempts-1)), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		c.cfg.Metrics.LLM(op, "error")
		return "", fmt.Errorf("gemini %s: %w", op, err)
	}
	c.cfg.Metrics.LLM(op, "ok")
	return text, nil
}

var _ interfaces.GuidanceGenerator = (*Client)(nil)

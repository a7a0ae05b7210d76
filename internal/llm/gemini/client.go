// Package gemini implements the llm capability interfaces on top of the
// Vertex AI Gemini API.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/google/uuid"

	"github.com/yuki-ame/MediClaim.AI/internal/llm"
)

// Config for the Gemini client.
type Config struct {
	ProjectID   string
	Region      string        // default us-central1
	Model       string        // e.g. "gemini-1.5-pro"
	Temperature float32       // 0..2
	Timeout     time.Duration // per-call deadline
}

type Client struct {
	cfg    Config
	model  *genai.GenerativeModel
	base   *genai.Client
	logger *slog.Logger
}

// NewClient dials Vertex AI and configures the generative model.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("gemini: ProjectID is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-central1"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-pro"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	base, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := base.GenerativeModel(cfg.Model)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr(cfg.Temperature),
	}

	return &Client{cfg: cfg, model: model, base: base, logger: logger}, nil
}

func (c *Client) Close() error {
	if c.base != nil {
		return c.base.Close()
	}
	return nil
}

// ExtractFields implements llm.FieldExtractor. The raw model text is
// returned as-is; sanitation happens in the extraction adapter.
func (c *Client) ExtractFields(ctx context.Context, docText string) (string, error) {
	return c.generate(ctx, "llm.extract", llm.BuildExtractionPrompt(docText))
}

// GenerateText implements llm.TextGenerator.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, "llm.generate", prompt)
}

func (c *Client) generate(ctx context.Context, event, prompt string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info(event+".start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"prompt_len", len(prompt),
	)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		c.logger.Error(event+".error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := collectText(resp)
	if text == "" {
		c.logger.Error(event+".empty_response",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("gemini generate: empty response")
	}

	c.logger.Info(event+".ok",
		"req_id", rid,
		"text_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

// collectText concatenates the text parts of the first candidate.
func collectText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		break
	}
	return b.String()
}

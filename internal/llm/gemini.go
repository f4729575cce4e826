package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const maxErrorBody = 4 << 10

// GeminiConfig configures GeminiClient.
type GeminiConfig struct {
	Endpoint    string
	APIKey      string
	Temperature float64
	Timeout     time.Duration
	// RatePerSecond paces requests; zero disables pacing.
	RatePerSecond float64
	Burst         int
	HTTPClient    *http.Client
}

// GeminiClient calls the generateContent REST method.
type GeminiClient struct {
	cfg     GeminiConfig
	http    *http.Client
	limiter *rate.Limiter
}

func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.1
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	c := &GeminiClient{cfg: cfg, http: hc}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return c
}

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature    float64         `json:"temperature"`
	ThinkingConfig *thinkingConfig `json:"thinkingConfig,omitempty"`
}

type thinkingConfig struct {
	ThinkingLevel  string `json:"thinkingLevel,omitempty"`
	ThinkingBudget *int   `json:"thinkingBudget,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

type geminiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// thinkingFor keeps reasoning to a minimum; the task is a short rewrite.
func thinkingFor(model string) *thinkingConfig {
	switch {
	case strings.HasPrefix(model, "gemini-3"):
		return &thinkingConfig{ThinkingLevel: "minimal"}
	case strings.HasPrefix(model, "gemini-2.5"):
		zero := 0
		return &thinkingConfig{ThinkingBudget: &zero}
	}
	return nil
}

func (c *GeminiClient) Generate(ctx context.Context, model, prompt string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("gemini: api key not configured")
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:    c.cfg.Temperature,
			ThinkingConfig: thinkingFor(model),
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	url := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.Endpoint, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// the key never goes into the URL
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var eb geminiErrorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Error.Message != "" {
			apiErr.Message = eb.Error.Message
			apiErr.Status = eb.Error.Status
		}
		return "", apiErr
	}
	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Candidates) == 0 {
		return "", fmt.Errorf("gemini: no candidates in response")
	}
	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}

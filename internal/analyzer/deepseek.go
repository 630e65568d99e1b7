package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"dog-scout/internal/config"
)

const systemPrompt = "You are a crypto momentum risk analyst. " +
	"Respond only valid JSON with keys: " +
	"narrative_score, risk_comment, action_hint, confidence, reasons."

// deepSeekBreakerFailures trips the breaker after this many consecutive failures.
const deepSeekBreakerFailures = 3

// DeepSeek queries an OpenAI-compatible chat completions endpoint.
type DeepSeek struct {
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker
	model   string
	timeout time.Duration
}

// NewDeepSeek creates a DeepSeek analyzer. The API key is required.
func NewDeepSeek(cfg config.LLM) (*DeepSeek, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: api key is required when the analyzer is enabled", ErrAnalyzer)
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "deepseek",
		Timeout: time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= deepSeekBreakerFailures
		},
	})

	return &DeepSeek{client: client, breaker: breaker, model: cfg.Model, timeout: cfg.Timeout}, nil
}

// Compile-time interface check.
var _ Analyzer = (*DeepSeek)(nil)

// Provider implements Analyzer.
func (*DeepSeek) Provider() string { return ProviderDeepSeek }

// Model implements Analyzer.
func (d *DeepSeek) Model() string { return d.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
	Messages       []chatMessage     `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message *chatMessage `json:"message"`
	} `json:"choices"`
}

// Analyze implements Analyzer.
func (d *DeepSeek) Analyze(ctx context.Context, in Input) (Output, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	req := chatRequest{
		Model:          d.model,
		Temperature:    0.1,
		ResponseFormat: map[string]string{"type": "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(in)},
		},
	}

	result, err := d.breaker.Execute(func() (interface{}, error) {
		var body chatResponse
		resp, err := d.client.R().
			SetContext(ctx).
			SetBody(req).
			SetResult(&body).
			Post("/chat/completions")
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("status %d", resp.StatusCode())
		}
		return &body, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Output{}, fmt.Errorf("%w: deepseek breaker open", ErrAnalyzer)
		}
		return Output{}, fmt.Errorf("%w: deepseek request failed: %v", ErrAnalyzer, err)
	}

	content, err := extractContent(result.(*chatResponse))
	if err != nil {
		return Output{}, err
	}
	payload, err := parsePayload(content)
	if err != nil {
		return Output{}, err
	}
	return normalize(payload)
}

func buildUserPrompt(in Input) string {
	flags := "none"
	if len(in.RiskFlags) > 0 {
		flags = strings.Join(in.RiskFlags, ", ")
	}
	var b strings.Builder
	b.WriteString("Evaluate this meme token candidate:\n")
	fmt.Fprintf(&b, "- chain: %s\n", in.ChainID)
	fmt.Fprintf(&b, "- token: %s (%s)\n", in.TokenSymbol, in.TokenAddress)
	fmt.Fprintf(&b, "- pair: %s on %s\n", in.PairAddress, in.DexID)
	fmt.Fprintf(&b, "- rule_score: %.2f\n", in.RuleScore)
	fmt.Fprintf(&b, "- risk_flags: %s\n", flags)
	fmt.Fprintf(&b, "- market_snapshot: %s\n", in.MarketSnapshot)
	b.WriteString("Return JSON with:\n")
	b.WriteString("- narrative_score (0-100)\n")
	b.WriteString("- risk_comment (short string)\n")
	b.WriteString("- action_hint (short string)\n")
	b.WriteString("- confidence (0-1)\n")
	b.WriteString("- reasons (array of concise strings)\n")
	return b.String()
}

package analyzer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	maxReasons       = 5
	fallbackReason   = "analyzer_reason_unavailable"
	fallbackNarrText = "n/a"
)

func extractContent(body *chatResponse) (string, error) {
	if body == nil || len(body.Choices) == 0 {
		return "", fmt.Errorf("%w: response missing choices", ErrAnalyzer)
	}
	msg := body.Choices[0].Message
	if msg == nil {
		return "", fmt.Errorf("%w: response missing message", ErrAnalyzer)
	}
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return "", fmt.Errorf("%w: response message content is empty", ErrAnalyzer)
	}
	return content, nil
}

// parsePayload decodes the model's JSON object, tolerating markdown code fences.
func parsePayload(content string) (map[string]any, error) {
	raw := content
	if strings.Contains(raw, "```") {
		raw = strings.ReplaceAll(raw, "```json", "")
		raw = strings.TrimSpace(strings.ReplaceAll(raw, "```", ""))
	}

	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("%w: invalid payload json: %v", ErrAnalyzer, err)
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: payload must be a json object", ErrAnalyzer)
	}
	return obj, nil
}

func normalize(payload map[string]any) (Output, error) {
	score, okScore := number(payload["narrative_score"])
	confidence, okConf := number(payload["confidence"])
	if !okScore || !okConf {
		return Output{}, fmt.Errorf("%w: payload must include numeric narrative_score and confidence", ErrAnalyzer)
	}

	var reasons []string
	if list, ok := payload["reasons"].([]any); ok {
		for _, item := range list {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				reasons = append(reasons, strings.TrimSpace(s))
			}
		}
	}
	if len(reasons) == 0 {
		reasons = []string{fallbackReason}
	}
	if len(reasons) > maxReasons {
		reasons = reasons[:maxReasons]
	}

	return Output{
		NarrativeScore: round2(clamp(score, 0, 100)),
		RiskComment:    textOrNA(payload["risk_comment"]),
		ActionHint:     textOrNA(payload["action_hint"]),
		Confidence:     round2(clamp(confidence, 0, 1)),
		Reasons:        reasons,
	}, nil
}

// number accepts JSON numbers and numeric strings.
func number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func textOrNA(v any) string {
	if v == nil {
		return fallbackNarrText
	}
	var s string
	switch x := v.(type) {
	case string:
		s = x
	default:
		s = fmt.Sprint(x)
	}
	if s = strings.TrimSpace(s); s == "" || s == "false" {
		return fallbackNarrText
	}
	return s
}

package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"rottenstocks/internal/client/base"
	"rottenstocks/internal/config"
)

const providerName = "sentiment"

const systemPrompt = `You score the stock-market sentiment of social media posts.
Respond with only a JSON object: {"sentiment_score": <float -1.0..1.0>, "label": "<positive|negative|neutral>"}.
-1.0 is maximally bearish, 1.0 maximally bullish, 0.0 neutral.`

// Score is one post's sentiment. IsMock marks the lexicon fallback produced
// under a dry quota; callers leave those posts unanalyzed for the next cycle.
type Score struct {
	Value  float64 `json:"sentiment_score"`
	Label  string  `json:"label"`
	IsMock bool    `json:"is_mock"`
}

// Client scores post text with a chat-completion model. Calls within a
// batch are serialized through the limiter so the aggregator cannot
// overrun the shared per-minute budget.
type Client struct {
	llm     openai.Client
	model   string
	limiter *base.Limiter
	backoff *base.Backoff
}

func NewClient(cfg config.SentimentConfig) *Client {
	// SDK-internal retries are disabled; the shared backoff policy owns
	// the retry budget so attempts stay observable and bounded.
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Client{
		llm:     openai.NewClient(opts...),
		model:   model,
		limiter: base.NewLimiter(cfg.RequestsPerMinute, 0),
		backoff: base.NewBackoff(cfg.MaxRetries, cfg.RetryBaseDelay),
	}
}

// Analyze scores one text. Under a dry quota it returns a deterministic
// lexicon score with IsMock set and a nil error.
func (c *Client) Analyze(ctx context.Context, text string) (*Score, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return &Score{Label: "neutral"}, nil
	}
	if ok, _ := c.limiter.Allow(); !ok {
		s := lexiconScore(text)
		s.IsMock = true
		return s, nil
	}

	var resp *openai.ChatCompletion
	err := c.backoff.Do(ctx, providerName, func() error {
		out, err := c.llm.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: openai.ChatModel(c.model),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(systemPrompt),
				openai.UserMessage(truncate(text, 2000)),
			},
			Temperature: openai.Float(0),
		})
		if err != nil {
			var apiErr *openai.Error
			if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
				return &base.APIError{Provider: providerName, Status: apiErr.StatusCode, Body: apiErr.Error()}
			}
			return base.Retryable(err)
		}
		resp = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, &base.ParseError{Provider: providerName, Detail: "empty completion"}
	}
	return parseScore(resp.Choices[0].Message.Content)
}

func parseScore(content string) (*Score, error) {
	content = strings.TrimSpace(content)
	// Models occasionally fence the JSON despite instructions.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var s Score
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &s); err != nil {
		return nil, &base.ParseError{Provider: providerName, Detail: "invalid score JSON: " + err.Error()}
	}
	if s.Value > 1 {
		s.Value = 1
	}
	if s.Value < -1 {
		s.Value = -1
	}
	if s.Label == "" {
		s.Label = labelFor(s.Value)
	}
	return &s, nil
}

func labelFor(v float64) string {
	switch {
	case v > 0.2:
		return "positive"
	case v < -0.2:
		return "negative"
	default:
		return "neutral"
	}
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

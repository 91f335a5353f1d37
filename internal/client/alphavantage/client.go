package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"rottenstocks/internal/client/base"
	"rottenstocks/internal/config"
)

const providerName = "alpha_vantage"

// Client talks to the Alpha Vantage REST API under its free-tier quota.
// When either the local limiter or the provider itself reports throttling,
// calls return deterministic mock data flagged IsMock instead of failing,
// so the sync pipeline never blocks on a dry quota.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *base.Limiter
	backoff    *base.Backoff
}

func NewClient(httpClient *http.Client, cfg config.AlphaVantageConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://www.alphavantage.co/query"
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		limiter:    base.NewLimiter(cfg.RequestsPerMinute, cfg.RequestsPerDay),
		backoff:    base.NewBackoff(cfg.MaxRetries, cfg.RetryBaseDelay),
	}
}

// Limiter exposes the shared daily budget to the orchestrator's quota guard.
func (c *Client) Limiter() *base.Limiter { return c.limiter }

// GetQuote fetches a GLOBAL_QUOTE. Under a dry quota it returns a mock quote
// with IsMock set and a nil error.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if ok, _ := c.limiter.Allow(); !ok {
		return mockQuote(symbol), nil
	}
	body, err := c.doRequest(ctx, url.Values{"function": {"GLOBAL_QUOTE"}, "symbol": {symbol}})
	if err != nil {
		return nil, err
	}
	if throttled(body) {
		return mockQuote(symbol), nil
	}
	return parseQuote(body)
}

// GetOverview fetches the company OVERVIEW used for exchange/sector fields.
func (c *Client) GetOverview(ctx context.Context, symbol string) (*Overview, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if ok, _ := c.limiter.Allow(); !ok {
		return mockOverview(symbol), nil
	}
	body, err := c.doRequest(ctx, url.Values{"function": {"OVERVIEW"}, "symbol": {symbol}})
	if err != nil {
		return nil, err
	}
	if throttled(body) {
		return mockOverview(symbol), nil
	}
	return parseOverview(body)
}

func (c *Client) doRequest(ctx context.Context, query url.Values) ([]byte, error) {
	query.Set("apikey", c.apiKey)
	fullURL := c.baseURL + "?" + query.Encode()

	var body []byte
	err := c.backoff.Do(ctx, providerName, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return base.Retryable(err)
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return base.Retryable(err)
		}
		if resp.StatusCode >= 500 {
			return base.Retryable(&base.APIError{Provider: providerName, Status: resp.StatusCode, Body: string(b)})
		}
		if resp.StatusCode != http.StatusOK {
			return &base.APIError{Provider: providerName, Status: resp.StatusCode, Body: string(b)}
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	if msg := apiErrorMessage(body); msg != "" {
		return nil, &base.ParseError{Provider: providerName, Detail: msg}
	}
	return body, nil
}

// throttled detects Alpha Vantage's in-band rate-limit notes, which arrive
// with a 200 status.
func throttled(body []byte) bool {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return false
	}
	for _, key := range []string{"Note", "Information"} {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		var msg string
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		lower := strings.ToLower(msg)
		if strings.Contains(lower, "rate limit") || strings.Contains(lower, "call frequency") {
			return true
		}
	}
	return false
}

func apiErrorMessage(body []byte) string {
	var envelope struct {
		ErrorMessage string `json:"Error Message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return envelope.ErrorMessage
}

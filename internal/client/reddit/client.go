package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"rottenstocks/internal/client/base"
	"rottenstocks/internal/config"
)

const providerName = "reddit"

// Client talks to the Reddit search API with app-only OAuth. Searches are
// scoped to the configured finance subreddits.
type Client struct {
	baseURL    string
	authURL    string
	clientID   string
	secret     string
	userAgent  string
	subreddits []string
	minScore   int
	httpClient *http.Client
	limiter    *base.Limiter
	backoff    *base.Backoff

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(httpClient *http.Client, cfg config.RedditConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://oauth.reddit.com"
	}
	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = "https://www.reddit.com/api/v1/access_token"
	}
	return &Client{
		baseURL:    baseURL,
		authURL:    authURL,
		clientID:   cfg.ClientID,
		secret:     cfg.ClientSecret,
		userAgent:  cfg.UserAgent,
		subreddits: cfg.Subreddits,
		minScore:   cfg.MinScore,
		httpClient: httpClient,
		limiter:    base.NewLimiter(cfg.RequestsPerMinute, 0),
		backoff:    base.NewBackoff(cfg.MaxRetries, cfg.RetryBaseDelay),
	}
}

// SearchPosts searches the configured subreddits for mentions of symbol
// created after since. Under a dry quota it returns an empty result with
// IsMock set and a nil error.
func (c *Client) SearchPosts(ctx context.Context, symbol string, since time.Time, limit int) (*SearchResult, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if ok, _ := c.limiter.Allow(); !ok {
		return &SearchResult{IsMock: true}, nil
	}

	query := url.Values{}
	query.Set("q", symbol+" OR $"+symbol)
	query.Set("sort", "new")
	query.Set("restrict_sr", "1")
	query.Set("limit", fmt.Sprintf("%d", limit))
	query.Set("t", "day")

	path := "/r/" + strings.Join(c.subreddits, "+") + "/search.json"
	body, err := c.doRequest(ctx, path, query)
	if err != nil {
		return nil, err
	}

	var page listing
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, &base.ParseError{Provider: providerName, Detail: "invalid listing JSON: " + err.Error()}
	}

	result := &SearchResult{}
	for _, child := range page.Data.Children {
		d := child.Data
		if d.ID == "" {
			continue
		}
		createdAt := time.Unix(int64(d.CreatedUTC), 0).UTC()
		if !since.IsZero() && createdAt.Before(since) {
			continue
		}
		if d.Score < c.minScore {
			continue
		}
		result.Posts = append(result.Posts, Post{
			ID:          d.ID,
			Author:      d.Author,
			Title:       d.Title,
			Body:        d.Selftext,
			Subreddit:   d.Subreddit,
			Score:       d.Score,
			NumComments: d.NumComments,
			Permalink:   d.Permalink,
			CreatedAt:   createdAt,
		})
	}
	return result, nil
}

func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var body []byte
	err = c.backoff.Do(ctx, providerName, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("User-Agent", c.userAgent)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return base.Retryable(err)
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return base.Retryable(err)
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return &base.RateLimitError{Provider: providerName, Reason: "429 from provider"}
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
	return body, nil
}

// accessToken returns a cached app-only bearer token, refreshing it when
// within a minute of expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-time.Minute)) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	var body []byte
	err := c.backoff.Do(ctx, providerName, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
		if err != nil {
			return fmt.Errorf("failed to create auth request: %w", err)
		}
		req.SetBasicAuth(c.clientID, c.secret)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("User-Agent", c.userAgent)

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
		return "", err
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tok); err != nil || tok.AccessToken == "" {
		return "", &base.ParseError{Provider: providerName, Detail: "invalid token response"}
	}
	c.token = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.token, nil
}

package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"unicode/utf8"

	"rottenstocks/internal/client/base"
	"rottenstocks/internal/config"
)

func TestParseScore(t *testing.T) {
	cases := []struct {
		content   string
		wantValue float64
		wantLabel string
	}{
		{`{"sentiment_score": 0.8, "label": "positive"}`, 0.8, "positive"},
		{`{"sentiment_score": -0.35, "label": "negative"}`, -0.35, "negative"},
		{"```json\n{\"sentiment_score\": 0.5, \"label\": \"positive\"}\n```", 0.5, "positive"},
		{`{"sentiment_score": 3.0}`, 1, "positive"},
		{`{"sentiment_score": -2.5}`, -1, "negative"},
		{`{"sentiment_score": 0.1}`, 0.1, "neutral"},
	}
	for _, tc := range cases {
		s, err := parseScore(tc.content)
		if err != nil {
			t.Errorf("parseScore(%q): %v", tc.content, err)
			continue
		}
		if s.Value != tc.wantValue || s.Label != tc.wantLabel {
			t.Errorf("parseScore(%q) = %v/%s, want %v/%s", tc.content, s.Value, s.Label, tc.wantValue, tc.wantLabel)
		}
	}
}

func TestParseScoreRejectsGarbage(t *testing.T) {
	if _, err := parseScore("I cannot rate this post."); err == nil {
		t.Fatal("expected parse error for non-JSON content")
	}
}

func TestLabelForCutoffs(t *testing.T) {
	cases := []struct {
		value float64
		want  string
	}{
		{0.21, "positive"},
		{0.2, "neutral"},
		{0, "neutral"},
		{-0.2, "neutral"},
		{-0.21, "negative"},
	}
	for _, tc := range cases {
		if got := labelFor(tc.value); got != tc.want {
			t.Errorf("labelFor(%v) = %s, want %s", tc.value, got, tc.want)
		}
	}
}

func TestLexiconScore(t *testing.T) {
	bull := lexiconScore("buy the breakout, strong growth ahead")
	if bull.Value <= 0 || bull.Label != "positive" {
		t.Fatalf("bullish text scored %v/%s", bull.Value, bull.Label)
	}
	bear := lexiconScore("overvalued bubble, time to sell and short")
	if bear.Value >= 0 || bear.Label != "negative" {
		t.Fatalf("bearish text scored %v/%s", bear.Value, bear.Label)
	}
	flat := lexiconScore("earnings call is on thursday")
	if flat.Value != 0 || flat.Label != "neutral" {
		t.Fatalf("neutral text scored %v/%s", flat.Value, flat.Label)
	}
	again := lexiconScore("buy the breakout, strong growth ahead")
	if again.Value != bull.Value {
		t.Fatal("lexicon score must be deterministic")
	}
}

func newTestClient(srv *httptest.Server) *Client {
	c := NewClient(config.SentimentConfig{
		APIKey:            "test-key",
		BaseURL:           srv.URL,
		Model:             "gpt-4o-mini",
		RequestsPerMinute: 100,
	})
	c.backoff.Sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":     "cmpl-1",
		"object": "chat.completion",
		"choices": []map[string]any{
			{"index": 0, "message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	return string(b)
}

func TestAnalyzeRetriesServerError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionBody(`{"sentiment_score": 0.6, "label": "positive"}`))
	}))
	t.Cleanup(srv.Close)
	c := newTestClient(srv)

	s, err := c.Analyze(context.Background(), "strong earnings beat")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if s.IsMock || s.Value != 0.6 || s.Label != "positive" {
		t.Fatalf("unexpected score after retry: %+v", s)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestAnalyzePersistent5xxSurfacesTransient(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	c := newTestClient(srv)

	_, err := c.Analyze(context.Background(), "some post text")
	var te *base.TransientError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransientError, got %v", err)
	}
	if te.Attempts != 3 || attempts != 3 {
		t.Fatalf("expected 3 attempts, got err=%d server=%d", te.Attempts, attempts)
	}
}

func TestTruncateKeepsRuneBoundary(t *testing.T) {
	s := "abécd" // e-acute is two bytes starting at index 2
	got := truncate(s, 3)
	if got != "ab" {
		t.Fatalf("truncate(%q, 3) = %q, want %q", s, got, "ab")
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncate produced invalid UTF-8: %q", got)
	}
	if truncate("abcd", 10) != "abcd" {
		t.Fatal("short strings must pass through unchanged")
	}
}

package sentiment

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	sentclient "rottenstocks/internal/client/sentiment"
	"rottenstocks/internal/models"
)

type stubStore struct {
	unanalyzed []models.SocialPost
	analyzed   []models.SocialPost

	sentiments map[uint64]float64
}

func (s *stubStore) ListUnanalyzedPosts(_ context.Context, _ string, limit int) ([]models.SocialPost, error) {
	if limit < len(s.unanalyzed) {
		return s.unanalyzed[:limit], nil
	}
	return s.unanalyzed, nil
}

func (s *stubStore) SetPostSentiment(_ context.Context, postID uint64, score float64, _ string, _ time.Time) (bool, error) {
	if s.sentiments == nil {
		s.sentiments = map[uint64]float64{}
	}
	if _, done := s.sentiments[postID]; done {
		return false, nil
	}
	s.sentiments[postID] = score
	return true, nil
}

func (s *stubStore) ListAnalyzedPostsSince(_ context.Context, _ string, since time.Time) ([]models.SocialPost, error) {
	var out []models.SocialPost
	for _, p := range s.analyzed {
		if !p.PostedAt.Before(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

type stubScorer struct {
	scores map[string]*sentclient.Score
	err    error
}

func (s *stubScorer) Analyze(_ context.Context, text string) (*sentclient.Score, error) {
	if s.err != nil {
		return nil, s.err
	}
	if sc, ok := s.scores[text]; ok {
		return sc, nil
	}
	return &sentclient.Score{Label: "neutral"}, nil
}

func post(id uint64, title string) models.SocialPost {
	return models.SocialPost{ID: id, Platform: "reddit", Title: title, PostedAt: time.Now().UTC()}
}

func TestAnalyzeBatchPersistsScores(t *testing.T) {
	store := &stubStore{unanalyzed: []models.SocialPost{post(1, "to the moon"), post(2, "dead money")}}
	scorer := &stubScorer{scores: map[string]*sentclient.Score{
		"to the moon": {Value: 0.8, Label: "positive"},
		"dead money":  {Value: -0.5, Label: "negative"},
	}}
	agg := &Aggregator{Repo: store, Scorer: scorer, Logger: zap.NewNop()}

	result, err := agg.AnalyzeBatch(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("AnalyzeBatch: %v", err)
	}
	if result.Analyzed != 2 || result.Skipped != 0 || result.Mock != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if store.sentiments[1] != 0.8 || store.sentiments[2] != -0.5 {
		t.Fatalf("scores not persisted: %v", store.sentiments)
	}
}

func TestAnalyzeBatchLeavesMockResultsUnpersisted(t *testing.T) {
	store := &stubStore{unanalyzed: []models.SocialPost{post(1, "buy buy buy")}}
	scorer := &stubScorer{scores: map[string]*sentclient.Score{
		"buy buy buy": {Value: 1, Label: "positive", IsMock: true},
	}}
	agg := &Aggregator{Repo: store, Scorer: scorer, Logger: zap.NewNop()}

	result, err := agg.AnalyzeBatch(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("AnalyzeBatch: %v", err)
	}
	if result.Mock != 1 || result.Analyzed != 0 {
		t.Fatalf("mock result was persisted: %+v", result)
	}
	if len(store.sentiments) != 0 {
		t.Fatalf("expected no persisted sentiments, got %v", store.sentiments)
	}
}

func TestAnalyzeBatchSkipsFailedPosts(t *testing.T) {
	store := &stubStore{unanalyzed: []models.SocialPost{post(1, "a"), post(2, "b")}}
	scorer := &stubScorer{err: errors.New("upstream 500")}
	agg := &Aggregator{Repo: store, Scorer: scorer, Logger: zap.NewNop()}

	result, err := agg.AnalyzeBatch(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("AnalyzeBatch: %v", err)
	}
	if result.Skipped != 2 || result.Analyzed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestAnalyzeBatchHonorsBatchSize(t *testing.T) {
	store := &stubStore{unanalyzed: []models.SocialPost{post(1, "a"), post(2, "b"), post(3, "c")}}
	agg := &Aggregator{Repo: store, Scorer: &stubScorer{}, Logger: zap.NewNop(), BatchSize: 2}

	result, err := agg.AnalyzeBatch(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("AnalyzeBatch: %v", err)
	}
	if result.Fetched != 2 {
		t.Fatalf("expected 2 fetched, got %d", result.Fetched)
	}
}

func TestSummarizeCountsWithCutoffs(t *testing.T) {
	now := time.Now().UTC()
	scores := []float64{0.9, 0.21, 0.2, 0.0, -0.2, -0.21, -0.7}
	var posts []models.SocialPost
	for i, v := range scores {
		v := v
		posts = append(posts, models.SocialPost{
			ID:             uint64(i + 1),
			SentimentScore: &v,
			PostedAt:       now.Add(-time.Hour),
		})
	}
	agg := &Aggregator{Repo: &stubStore{analyzed: posts}, Scorer: &stubScorer{}, Logger: zap.NewNop()}

	summary, err := agg.Summarize(context.Background(), "TSLA", now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.PostCount != 7 {
		t.Fatalf("expected 7 posts, got %d", summary.PostCount)
	}
	if summary.Positive != 2 || summary.Negative != 2 || summary.Neutral != 3 {
		t.Fatalf("unexpected buckets: %+v", summary)
	}
	want := (0.9 + 0.21 + 0.2 + 0.0 - 0.2 - 0.21 - 0.7) / 7
	if diff := summary.Mean - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("mean = %f, want %f", summary.Mean, want)
	}
}

func TestSummarizeEmptyWindow(t *testing.T) {
	agg := &Aggregator{Repo: &stubStore{}, Scorer: &stubScorer{}, Logger: zap.NewNop()}

	summary, err := agg.Summarize(context.Background(), "TSLA", time.Now().UTC())
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.PostCount != 0 || summary.Mean != 0 {
		t.Fatalf("expected neutral empty summary, got %+v", summary)
	}
}

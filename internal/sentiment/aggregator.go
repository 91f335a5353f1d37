package sentiment

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	sentclient "rottenstocks/internal/client/sentiment"
	"rottenstocks/internal/models"
)

// Scorer scores one piece of post text. Satisfied by the LLM client;
// tests substitute a fake.
type Scorer interface {
	Analyze(ctx context.Context, text string) (*sentclient.Score, error)
}

// Store is the slice of the repository the aggregator needs.
type Store interface {
	ListUnanalyzedPosts(ctx context.Context, symbol string, limit int) ([]models.SocialPost, error)
	SetPostSentiment(ctx context.Context, postID uint64, score float64, label string, analyzedAt time.Time) (bool, error)
	ListAnalyzedPostsSince(ctx context.Context, symbol string, since time.Time) ([]models.SocialPost, error)
}

// BatchResult reports one analysis pass over a symbol's backlog.
type BatchResult struct {
	Fetched  int `json:"fetched"`
	Analyzed int `json:"analyzed"`
	Skipped  int `json:"skipped"`
	Mock     int `json:"mock"`
}

// Summary is the aggregate sentiment over a rolling window of analyzed
// posts. Mean stays in [-1, 1]; counting uses the same cutoffs as the
// per-post labels.
type Summary struct {
	PostCount   int       `json:"post_count"`
	Mean        float64   `json:"mean"`
	Positive    int       `json:"positive"`
	Negative    int       `json:"negative"`
	Neutral     int       `json:"neutral"`
	WindowStart time.Time `json:"window_start"`
}

// Aggregator walks the unanalyzed backlog post by post and persists each
// score as soon as it lands, so a half-finished batch still makes progress.
type Aggregator struct {
	Repo   Store
	Scorer Scorer
	Logger *zap.Logger

	BatchSize      int
	PositiveCutoff float64
	NegativeCutoff float64
}

func (a *Aggregator) batchSize() int {
	if a.BatchSize <= 0 {
		return 50
	}
	return a.BatchSize
}

// AnalyzeBatch scores up to one batch of unanalyzed posts mentioning the
// symbol. Posts that fail to score, and lexicon fallbacks produced under
// a dry quota, are left unanalyzed so the next cycle retries them.
func (a *Aggregator) AnalyzeBatch(ctx context.Context, symbol string) (BatchResult, error) {
	var result BatchResult

	posts, err := a.Repo.ListUnanalyzedPosts(ctx, symbol, a.batchSize())
	if err != nil {
		return result, err
	}
	result.Fetched = len(posts)

	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		score, err := a.Scorer.Analyze(ctx, postText(post.Title, post.Body))
		if err != nil {
			result.Skipped++
			a.Logger.Warn("sentiment scoring failed, post left for retry",
				zap.Uint64("post_id", post.ID), zap.Error(err))
			continue
		}
		if score.IsMock {
			result.Mock++
			continue
		}

		updated, err := a.Repo.SetPostSentiment(ctx, post.ID, score.Value, score.Label, time.Now().UTC())
		if err != nil {
			return result, err
		}
		if updated {
			result.Analyzed++
		}
	}

	if result.Mock > 0 {
		a.Logger.Info("sentiment quota exhausted mid-batch",
			zap.String("symbol", symbol), zap.Int("deferred", result.Mock))
	}
	return result, nil
}

// Summarize aggregates analyzed posts for the symbol posted after
// windowStart. An empty window yields a neutral summary with zero posts.
func (a *Aggregator) Summarize(ctx context.Context, symbol string, windowStart time.Time) (Summary, error) {
	summary := Summary{WindowStart: windowStart}

	posts, err := a.Repo.ListAnalyzedPostsSince(ctx, symbol, windowStart)
	if err != nil {
		return summary, err
	}

	var sum float64
	for _, post := range posts {
		if post.SentimentScore == nil {
			continue
		}
		v := *post.SentimentScore
		sum += v
		summary.PostCount++
		switch {
		case v > a.positiveCutoff():
			summary.Positive++
		case v < a.negativeCutoff():
			summary.Negative++
		default:
			summary.Neutral++
		}
	}
	if summary.PostCount > 0 {
		summary.Mean = sum / float64(summary.PostCount)
	}
	return summary, nil
}

func (a *Aggregator) positiveCutoff() float64 {
	if a.PositiveCutoff == 0 {
		return 0.2
	}
	return a.PositiveCutoff
}

func (a *Aggregator) negativeCutoff() float64 {
	if a.NegativeCutoff == 0 {
		return -0.2
	}
	return a.NegativeCutoff
}

func postText(title, body string) string {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if body == "" {
		return title
	}
	if title == "" {
		return body
	}
	return title + "\n\n" + body
}

package rating

import (
	"math"
	"time"

	"rottenstocks/internal/config"
	"rottenstocks/internal/models"
	"rottenstocks/internal/repository"
	"rottenstocks/internal/sentiment"
)

// Calculator turns a sentiment summary and a set of analyst ratings into
// one append-only Rating row. All cutoffs come from config; zero values
// fall back to the stock defaults.
type Calculator struct {
	buyThreshold     float64
	sellThreshold    float64
	minPopularPosts  int
	minExpertRatings int
	expertWeight     float64
	popularWeight    float64
}

func NewCalculator(cfg config.RatingConfig) *Calculator {
	c := &Calculator{
		buyThreshold:     cfg.BuyThreshold,
		sellThreshold:    cfg.SellThreshold,
		minPopularPosts:  cfg.MinPopularPosts,
		minExpertRatings: cfg.MinExpertRatings,
		expertWeight:     cfg.ExpertWeight,
		popularWeight:    cfg.PopularWeight,
	}
	if c.buyThreshold <= 0 {
		c.buyThreshold = 70
	}
	if c.sellThreshold <= 0 {
		c.sellThreshold = 40
	}
	if c.minPopularPosts <= 0 {
		c.minPopularPosts = 20
	}
	if c.minExpertRatings <= 0 {
		c.minExpertRatings = 1
	}
	if c.expertWeight <= 0 || c.popularWeight <= 0 {
		c.expertWeight = 0.7
		c.popularWeight = 0.3
	}
	return c
}

// Compute builds the Rating row for one stock. The popular side is always
// present (an empty window normalizes to a neutral 50); the expert side is
// nil when no analyst ratings fall inside the lookback.
func (c *Calculator) Compute(stockID string, popular sentiment.Summary, experts []repository.WeightedExpertRating, now time.Time) *models.Rating {
	popularScore := PopularScore(popular.Mean)
	popularSentiment := c.band(popularScore)

	row := &models.Rating{
		StockID:          stockID,
		PopularScore:     popularScore,
		PopularSentiment: popularSentiment,
		PopularPostCount: popular.PostCount,
		ExpertPostCount:  len(experts),
		MeanSentiment:    popular.Mean,
		ConfidenceLevel:  c.confidence(popular.PostCount, len(experts)),
		CalculatedAt:     now,
	}
	if !popular.WindowStart.IsZero() {
		ws := popular.WindowStart
		row.WindowStart = &ws
	}

	overall := popularScore
	if len(experts) > 0 {
		expertScore := weightedMean(experts)
		expertSentiment := c.band(expertScore)
		row.ExpertScore = &expertScore
		row.ExpertSentiment = &expertSentiment
		overall = c.expertWeight*expertScore + c.popularWeight*popularScore
	}
	overallSentiment := c.band(overall)
	row.OverallScore = &overall
	row.OverallSentiment = &overallSentiment

	return row
}

// PopularScore maps a mean sentiment in [-1, 1] onto the 0..100 scale.
func PopularScore(mean float64) float64 {
	score := math.Round((mean + 1) / 2 * 100)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// band maps a 0..100 score onto BUY/HOLD/SELL, boundaries inclusive.
func (c *Calculator) band(score float64) string {
	switch {
	case score >= c.buyThreshold:
		return models.SentimentBuy
	case score >= c.sellThreshold:
		return models.SentimentHold
	default:
		return models.SentimentSell
	}
}

func (c *Calculator) confidence(popularPosts, expertRatings int) string {
	popularOK := popularPosts >= c.minPopularPosts
	expertOK := expertRatings >= c.minExpertRatings
	switch {
	case popularOK && expertOK:
		return models.ConfidenceHigh
	case popularOK || expertOK:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

func weightedMean(experts []repository.WeightedExpertRating) float64 {
	var sum, weights float64
	for _, e := range experts {
		w := e.Weight
		if w <= 0 {
			w = 1
		}
		sum += e.Score * w
		weights += w
	}
	if weights == 0 {
		return 0
	}
	return sum / weights
}

package rating

import (
	"testing"
	"time"

	"rottenstocks/internal/config"
	"rottenstocks/internal/models"
	"rottenstocks/internal/repository"
	"rottenstocks/internal/sentiment"
)

func defaultCalc() *Calculator {
	return NewCalculator(config.RatingConfig{})
}

func expertRows(scores ...float64) []repository.WeightedExpertRating {
	var out []repository.WeightedExpertRating
	for _, s := range scores {
		out = append(out, repository.WeightedExpertRating{Score: s, Weight: 1})
	}
	return out
}

func TestPopularScoreNormalization(t *testing.T) {
	cases := []struct {
		mean float64
		want float64
	}{
		{-1, 0},
		{0, 50},
		{1, 100},
		{0.4, 70},
		{-0.5, 25},
		{1.5, 100},
		{-1.5, 0},
	}
	for _, tc := range cases {
		if got := PopularScore(tc.mean); got != tc.want {
			t.Errorf("PopularScore(%v) = %v, want %v", tc.mean, got, tc.want)
		}
	}
}

func TestBandBoundariesInclusive(t *testing.T) {
	calc := defaultCalc()
	cases := []struct {
		score float64
		want  string
	}{
		{85, models.SentimentBuy},
		{70, models.SentimentBuy},
		{55, models.SentimentHold},
		{40, models.SentimentHold},
		{39.9, models.SentimentSell},
		{20, models.SentimentSell},
		{0, models.SentimentSell},
	}
	for _, tc := range cases {
		if got := calc.band(tc.score); got != tc.want {
			t.Errorf("band(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestConfidenceRuleTable(t *testing.T) {
	calc := defaultCalc()
	cases := []struct {
		posts   int
		experts int
		want    string
	}{
		{25, 2, models.ConfidenceHigh},
		{5, 1, models.ConfidenceMedium},
		{20, 0, models.ConfidenceMedium},
		{5, 0, models.ConfidenceLow},
		{0, 0, models.ConfidenceLow},
	}
	for _, tc := range cases {
		if got := calc.confidence(tc.posts, tc.experts); got != tc.want {
			t.Errorf("confidence(%d, %d) = %s, want %s", tc.posts, tc.experts, got, tc.want)
		}
	}
}

func TestComputeBlendsBothSides(t *testing.T) {
	calc := defaultCalc()
	now := time.Now().UTC()

	// Popular mean 0.4 -> 70; experts average 90. Overall 0.7*90 + 0.3*70 = 84.
	row := calc.Compute("stock-1", sentiment.Summary{Mean: 0.4, PostCount: 25}, expertRows(80, 100), now)

	if row.PopularScore != 70 || row.PopularSentiment != models.SentimentBuy {
		t.Fatalf("popular side: %+v", row)
	}
	if row.ExpertScore == nil || *row.ExpertScore != 90 {
		t.Fatalf("expert score = %v, want 90", row.ExpertScore)
	}
	if row.OverallScore == nil || *row.OverallScore != 84 {
		t.Fatalf("overall score = %v, want 84", row.OverallScore)
	}
	if row.OverallSentiment == nil || *row.OverallSentiment != models.SentimentBuy {
		t.Fatalf("overall sentiment = %v", row.OverallSentiment)
	}
	if row.ConfidenceLevel != models.ConfidenceHigh {
		t.Fatalf("confidence = %s, want HIGH", row.ConfidenceLevel)
	}
}

func TestComputeWithoutExperts(t *testing.T) {
	calc := defaultCalc()
	row := calc.Compute("stock-1", sentiment.Summary{Mean: -0.6, PostCount: 5}, nil, time.Now().UTC())

	if row.ExpertScore != nil || row.ExpertSentiment != nil {
		t.Fatalf("expert side should be nil: %+v", row)
	}
	if row.PopularScore != 20 || row.PopularSentiment != models.SentimentSell {
		t.Fatalf("popular side: %+v", row)
	}
	if row.OverallScore == nil || *row.OverallScore != 20 {
		t.Fatalf("overall should mirror popular, got %v", row.OverallScore)
	}
	if row.ConfidenceLevel != models.ConfidenceLow {
		t.Fatalf("confidence = %s, want LOW", row.ConfidenceLevel)
	}
}

func TestWeightedMeanUsesInfluence(t *testing.T) {
	experts := []repository.WeightedExpertRating{
		{Score: 100, Weight: 3},
		{Score: 0, Weight: 1},
	}
	if got := weightedMean(experts); got != 75 {
		t.Fatalf("weightedMean = %v, want 75", got)
	}
}

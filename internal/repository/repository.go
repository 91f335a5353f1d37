package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"rottenstocks/internal/models"
)

// ErrSyncInProgress is returned by TryBeginSync when another worker holds
// the per-symbol guard. Callers treat it as a no-op, not a failure.
var ErrSyncInProgress = errors.New("sync already in progress for symbol")

// Repository is the persistence surface consumed by the sync orchestrator,
// the sentiment aggregator and the rating calculator.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Stocks
	CreateStock(ctx context.Context, item *models.Stock) error
	GetStockBySymbol(ctx context.Context, symbol string) (*models.Stock, error)
	ListStocks(ctx context.Context, params ListStocksParams) ([]models.Stock, error)
	CountStocks(ctx context.Context, params ListStocksParams) (int64, error)
	ListActiveSymbols(ctx context.Context) ([]string, error)
	UpdateStockPrice(ctx context.Context, stockID string, update StockPriceUpdate) error
	UpdateStockProfile(ctx context.Context, stockID string, update StockProfileUpdate) error
	SetStockActive(ctx context.Context, symbol string, active bool) error

	// Experts
	CreateExpert(ctx context.Context, item *models.Expert) error
	GetExpertByID(ctx context.Context, id string) (*models.Expert, error)
	ListExperts(ctx context.Context, limit, offset int) ([]models.Expert, error)
	InsertExpertRating(ctx context.Context, item *models.ExpertRating) error
	ListWeightedExpertRatings(ctx context.Context, stockID string, since time.Time) ([]WeightedExpertRating, error)

	// Ratings (append-only)
	InsertRating(ctx context.Context, item *models.Rating) error
	GetLatestRating(ctx context.Context, stockID string) (*models.Rating, error)
	ListRatings(ctx context.Context, params ListRatingsParams) ([]models.Rating, error)

	// Social posts
	InsertPostsIgnoreDuplicates(ctx context.Context, items []models.SocialPost) (int64, error)
	ListUnanalyzedPosts(ctx context.Context, symbol string, limit int) ([]models.SocialPost, error)
	SetPostSentiment(ctx context.Context, postID uint64, score float64, label string, analyzedAt time.Time) (bool, error)
	ListAnalyzedPostsSince(ctx context.Context, symbol string, since time.Time) ([]models.SocialPost, error)
	ListPosts(ctx context.Context, params ListPostsParams) ([]models.SocialPost, error)

	// Sync state
	GetSyncState(ctx context.Context, symbol string) (*models.SyncState, error)
	ListSyncStates(ctx context.Context) ([]models.SyncState, error)
	TryBeginSync(ctx context.Context, symbol string, now time.Time) error
	FinishSync(ctx context.Context, state *models.SyncState) error
	ClearSyncing(ctx context.Context, symbol string) error
}

// WeightedExpertRating is one analyst score joined with the analyst's
// influence weight.
type WeightedExpertRating struct {
	ExpertID string
	Score    float64
	Weight   float64
	RatedAt  time.Time
}

type StockPriceUpdate struct {
	Price     decimal.Decimal
	Change    decimal.Decimal
	Volume    int64
	UpdatedAt time.Time
}

type StockProfileUpdate struct {
	Name     *string
	Exchange *string
	Sector   *string
}

type ListStocksParams struct {
	Limit   int
	Offset  int
	Active  *bool
	Symbol  *string
	OrderBy string
	Asc     *bool
}

type ListRatingsParams struct {
	Limit   int
	Offset  int
	StockID *string
	Since   *time.Time
	Until   *time.Time
}

type ListPostsParams struct {
	Limit    int
	Offset   int
	Symbol   *string
	Analyzed *bool
	Since    *time.Time
}

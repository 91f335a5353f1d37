package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"rottenstocks/internal/cache"
	"rottenstocks/internal/client/alphavantage"
	"rottenstocks/internal/client/base"
	"rottenstocks/internal/client/reddit"
	"rottenstocks/internal/config"
	"rottenstocks/internal/models"
	"rottenstocks/internal/rating"
	"rottenstocks/internal/repository"
	"rottenstocks/internal/sentiment"
)

// ErrUnknownSymbol is returned when a sync is requested for a symbol that
// has no stock row.
var ErrUnknownSymbol = errors.New("unknown stock symbol")

// PriceProvider is the quote/overview surface of the price client.
type PriceProvider interface {
	GetQuote(ctx context.Context, symbol string) (*alphavantage.Quote, error)
	GetOverview(ctx context.Context, symbol string) (*alphavantage.Overview, error)
	Limiter() *base.Limiter
}

// SocialProvider is the post-search surface of the social client.
type SocialProvider interface {
	SearchPosts(ctx context.Context, symbol string, since time.Time, limit int) (*reddit.SearchResult, error)
}

// SyncOptions tweaks one cycle. FetchOverview additionally refreshes the
// company profile, spending an extra provider call.
type SyncOptions struct {
	FetchOverview bool
}

// SymbolResult reports one symbol's cycle step by step, including which
// steps ran on mock data and whether the stored price is stale.
type SymbolResult struct {
	Symbol        string                `json:"symbol"`
	PriceUpdated  bool                  `json:"price_updated"`
	PriceMock     bool                  `json:"price_mock"`
	PriceStale    bool                  `json:"price_stale"`
	PriceCached   bool                  `json:"price_cached"`
	PostsInserted int64                 `json:"posts_inserted"`
	SocialMock    bool                  `json:"social_mock"`
	SocialCached  bool                  `json:"social_cached"`
	Sentiment     sentiment.BatchResult `json:"sentiment"`
	RatingID      uint64                `json:"rating_id,omitempty"`
	Overall       string                `json:"overall,omitempty"`
	Error         string                `json:"error,omitempty"`
	Duration      time.Duration         `json:"duration"`
}

// AllResult reports one full pass over the active stocks.
type AllResult struct {
	Total      int            `json:"total"`
	Succeeded  int            `json:"succeeded"`
	Failed     int            `json:"failed"`
	InProgress int            `json:"in_progress"`
	Results    []SymbolResult `json:"results"`
}

// SyncService runs the per-symbol pipeline: price, social posts, sentiment,
// rating, state. One symbol is synced by at most one worker at a time; the
// guard lives in the store so it holds across server instances.
type SyncService struct {
	Repo       repository.Repository
	Cache      cache.Store
	Prices     PriceProvider
	Social     SocialProvider
	Aggregator *sentiment.Aggregator
	Calculator *rating.Calculator
	Logger     *zap.Logger

	SyncCfg   config.SyncConfig
	CacheCfg  config.CacheConfig
	RatingCfg config.RatingConfig
	PostLimit int

	// Swapped in tests.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

func (s *SyncService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *SyncService) sleep(ctx context.Context, d time.Duration) error {
	if s.Sleep != nil {
		return s.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *SyncService) symbolTimeout() time.Duration {
	if s.SyncCfg.SymbolTimeout <= 0 {
		return 30 * time.Second
	}
	return s.SyncCfg.SymbolTimeout
}

func (s *SyncService) summaryWindow() time.Duration {
	if s.RatingCfg.SummaryWindow <= 0 {
		return 24 * time.Hour
	}
	return s.RatingCfg.SummaryWindow
}

func (s *SyncService) expertWindow() time.Duration {
	if s.RatingCfg.ExpertRatingMaxAge <= 0 {
		return 30 * 24 * time.Hour
	}
	return s.RatingCfg.ExpertRatingMaxAge
}

// SyncSymbol runs one cycle for one symbol. When another worker holds the
// guard it returns repository.ErrSyncInProgress without touching any
// external provider. Partial progress is kept on timeout or failure; the
// guard is released on every exit path.
func (s *SyncService) SyncSymbol(ctx context.Context, symbol string, opts SyncOptions) (SymbolResult, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	result := SymbolResult{Symbol: symbol}
	started := s.now()

	stock, err := s.Repo.GetStockBySymbol(ctx, symbol)
	if err != nil {
		return result, err
	}
	if stock == nil {
		return result, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}

	if err := s.Repo.TryBeginSync(ctx, symbol, started); err != nil {
		return result, err
	}

	runCtx, cancel := context.WithTimeout(ctx, s.symbolTimeout())
	defer cancel()

	runErr := s.runPipeline(runCtx, stock, opts, &result)
	result.Duration = s.now().Sub(started)

	s.finish(context.WithoutCancel(ctx), symbol, started, runErr, result)

	if runErr != nil {
		result.Error = runErr.Error()
		return result, runErr
	}
	return result, nil
}

func (s *SyncService) runPipeline(ctx context.Context, stock *models.Stock, opts SyncOptions, result *SymbolResult) error {
	if err := s.syncPrice(ctx, stock, opts, result); err != nil {
		return fmt.Errorf("price step: %w", err)
	}
	if err := s.syncSocial(ctx, stock.Symbol, result); err != nil {
		return fmt.Errorf("social step: %w", err)
	}

	batch, err := s.Aggregator.AnalyzeBatch(ctx, stock.Symbol)
	result.Sentiment = batch
	if err != nil {
		return fmt.Errorf("sentiment step: %w", err)
	}

	windowStart := s.now().Add(-s.summaryWindow())
	summary, err := s.Aggregator.Summarize(ctx, stock.Symbol, windowStart)
	if err != nil {
		return fmt.Errorf("summary step: %w", err)
	}

	experts, err := s.Repo.ListWeightedExpertRatings(ctx, stock.ID, s.now().Add(-s.expertWindow()))
	if err != nil {
		return fmt.Errorf("expert step: %w", err)
	}

	row := s.Calculator.Compute(stock.ID, summary, experts, s.now())
	if err := s.Repo.InsertRating(ctx, row); err != nil {
		return fmt.Errorf("rating step: %w", err)
	}
	result.RatingID = row.ID
	if row.OverallSentiment != nil {
		result.Overall = *row.OverallSentiment
	}
	if err := cache.SetJSON(ctx, s.Cache, cache.Key(cache.NSRating, stock.Symbol), row, s.CacheCfg.RatingTTL); err != nil {
		s.Logger.Warn("rating cache write failed", zap.String("symbol", stock.Symbol), zap.Error(err))
	}
	return nil
}

// syncPrice refreshes the stored price. A dry daily budget skips the call
// and marks the stored price stale; mock quotes keep the pipeline moving
// but are never cached or persisted.
func (s *SyncService) syncPrice(ctx context.Context, stock *models.Stock, opts SyncOptions, result *SymbolResult) error {
	if s.Prices.Limiter().DailyExhausted() {
		result.PriceStale = true
		s.Logger.Info("price quota exhausted, serving stale price", zap.String("symbol", stock.Symbol))
		return nil
	}

	var quote alphavantage.Quote
	cacheKey := cache.Key(cache.NSQuote, stock.Symbol)
	hit, err := cache.GetJSON(ctx, s.Cache, cacheKey, &quote)
	if err != nil {
		s.Logger.Warn("quote cache read failed", zap.String("symbol", stock.Symbol), zap.Error(err))
	}
	if hit {
		result.PriceCached = true
	} else {
		q, err := s.Prices.GetQuote(ctx, stock.Symbol)
		if err != nil {
			return err
		}
		quote = *q
		if quote.IsMock {
			result.PriceMock = true
			return nil
		}
		if err := cache.SetJSON(ctx, s.Cache, cacheKey, quote, s.CacheCfg.QuoteTTL); err != nil {
			s.Logger.Warn("quote cache write failed", zap.String("symbol", stock.Symbol), zap.Error(err))
		}
	}

	err = s.Repo.UpdateStockPrice(ctx, stock.ID, repository.StockPriceUpdate{
		Price:     quote.Price,
		Change:    quote.Change,
		Volume:    quote.Volume,
		UpdatedAt: s.now(),
	})
	if err != nil {
		return err
	}
	result.PriceUpdated = true

	if opts.FetchOverview || s.SyncCfg.FetchOverview {
		if err := s.syncOverview(ctx, stock); err != nil {
			s.Logger.Warn("overview refresh failed", zap.String("symbol", stock.Symbol), zap.Error(err))
		}
	}
	return nil
}

func (s *SyncService) syncOverview(ctx context.Context, stock *models.Stock) error {
	var overview alphavantage.Overview
	cacheKey := cache.Key(cache.NSOverview, stock.Symbol)
	hit, _ := cache.GetJSON(ctx, s.Cache, cacheKey, &overview)
	if !hit {
		o, err := s.Prices.GetOverview(ctx, stock.Symbol)
		if err != nil {
			return err
		}
		if o.IsMock {
			return nil
		}
		overview = *o
		if err := cache.SetJSON(ctx, s.Cache, cacheKey, overview, s.CacheCfg.OverviewTTL); err != nil {
			s.Logger.Warn("overview cache write failed", zap.String("symbol", stock.Symbol), zap.Error(err))
		}
	}
	return s.Repo.UpdateStockProfile(ctx, stock.ID, repository.StockProfileUpdate{
		Name:     &overview.Name,
		Exchange: &overview.Exchange,
		Sector:   &overview.Sector,
	})
}

// syncSocial fetches fresh posts and inserts them, letting the composite
// unique index drop duplicates. Mock (quota dry) results insert nothing.
func (s *SyncService) syncSocial(ctx context.Context, symbol string, result *SymbolResult) error {
	var res reddit.SearchResult
	cacheKey := cache.Key(cache.NSPosts, symbol)
	hit, err := cache.GetJSON(ctx, s.Cache, cacheKey, &res)
	if err != nil {
		s.Logger.Warn("posts cache read failed", zap.String("symbol", symbol), zap.Error(err))
	}
	if hit {
		result.SocialCached = true
	} else {
		since := s.now().Add(-s.summaryWindow())
		fetched, err := s.Social.SearchPosts(ctx, symbol, since, s.PostLimit)
		if err != nil {
			return err
		}
		res = *fetched
		if res.IsMock {
			result.SocialMock = true
			return nil
		}
		if err := cache.SetJSON(ctx, s.Cache, cacheKey, res, s.CacheCfg.SocialTTL); err != nil {
			s.Logger.Warn("posts cache write failed", zap.String("symbol", symbol), zap.Error(err))
		}
	}
	if len(res.Posts) == 0 {
		return nil
	}

	rows := make([]models.SocialPost, 0, len(res.Posts))
	for _, p := range res.Posts {
		mentions, err := json.Marshal(reddit.ExtractTickers(p.Title+"\n"+p.Body, symbol))
		if err != nil {
			return err
		}
		sub := p.Subreddit
		rows = append(rows, models.SocialPost{
			Platform:       "reddit",
			PlatformPostID: p.ID,
			Author:         p.Author,
			Title:          p.Title,
			Body:           p.Body,
			Subreddit:      &sub,
			StockMentions:  datatypes.JSON(mentions),
			Score:          p.Score,
			NumComments:    p.NumComments,
			PostedAt:       p.CreatedAt,
		})
	}
	inserted, err := s.Repo.InsertPostsIgnoreDuplicates(ctx, rows)
	if err != nil {
		return err
	}
	result.PostsInserted = inserted
	return nil
}

// finish writes the end-of-cycle state and releases the guard. It runs on
// a cancellation-free context so a timed-out cycle still unlocks.
func (s *SyncService) finish(ctx context.Context, symbol string, started time.Time, runErr error, result SymbolResult) {
	state := &models.SyncState{
		Symbol:            symbol,
		RequestsUsedToday: s.Prices.Limiter().UsedToday(),
		QuotaDay:          started.Format("2006-01-02"),
	}
	if runErr != nil {
		msg := runErr.Error()
		state.LastError = &msg
	} else {
		done := s.now()
		state.LastSyncedAt = &done
	}
	if stats, err := json.Marshal(result); err == nil {
		state.StatsJSON = datatypes.JSON(stats)
	}
	if err := s.Repo.FinishSync(ctx, state); err != nil {
		s.Logger.Error("sync state write failed, clearing guard", zap.String("symbol", symbol), zap.Error(err))
		if err := s.Repo.ClearSyncing(ctx, symbol); err != nil {
			s.Logger.Error("guard release failed", zap.String("symbol", symbol), zap.Error(err))
		}
	}
}

// SyncAll runs SyncSymbol sequentially over every active stock. Between
// real provider calls it waits InterCallDelay; the wait is skipped after
// mock or stale price responses since no budget was spent.
func (s *SyncService) SyncAll(ctx context.Context, opts SyncOptions) (AllResult, error) {
	symbols, err := s.Repo.ListActiveSymbols(ctx)
	if err != nil {
		return AllResult{}, err
	}

	all := AllResult{Total: len(symbols)}
	for i, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		result, err := s.SyncSymbol(ctx, symbol, opts)
		all.Results = append(all.Results, result)
		switch {
		case errors.Is(err, repository.ErrSyncInProgress):
			all.InProgress++
			s.Logger.Info("symbol already syncing, skipped", zap.String("symbol", symbol))
		case err != nil:
			all.Failed++
			s.Logger.Warn("symbol sync failed", zap.String("symbol", symbol), zap.Error(err))
		default:
			all.Succeeded++
		}

		last := i == len(symbols)-1
		if !last && !result.PriceMock && !result.PriceStale && !result.PriceCached {
			if err := s.sleep(ctx, s.interCallDelay()); err != nil {
				return all, err
			}
		}
	}
	return all, nil
}

func (s *SyncService) interCallDelay() time.Duration {
	if s.SyncCfg.InterCallDelay <= 0 {
		return 12 * time.Second
	}
	return s.SyncCfg.InterCallDelay
}

// Run drives periodic full syncs until the context ends. Registered with
// the cron runner at startup.
func (s *SyncService) Run(ctx context.Context) {
	if _, err := s.SyncAll(ctx, SyncOptions{}); err != nil && !errors.Is(err, context.Canceled) {
		s.Logger.Error("scheduled sync pass failed", zap.Error(err))
	}
}

package gormrepository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rottenstocks/internal/models"
	"rottenstocks/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- Stocks -----------------------------------------------------------------

func (s *Store) CreateStock(ctx context.Context, item *models.Stock) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetStockBySymbol(ctx context.Context, symbol string) (*models.Stock, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Stock
	err := s.db.WithContext(ctx).
		Where("symbol = ?", strings.ToUpper(strings.TrimSpace(symbol))).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListStocks(ctx context.Context, params repository.ListStocksParams) ([]models.Stock, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.applyStockFilters(s.db.WithContext(ctx).Model(&models.Stock{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "symbol")
	var items []models.Stock
	if err := query.Limit(normalizeLimit(params.Limit, 100)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountStocks(ctx context.Context, params repository.ListStocksParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := s.applyStockFilters(s.db.WithContext(ctx).Model(&models.Stock{}), params).Count(&count).Error
	return count, err
}

func (s *Store) applyStockFilters(query *gorm.DB, params repository.ListStocksParams) *gorm.DB {
	if params.Active != nil {
		query = query.Where("is_active = ?", *params.Active)
	}
	if params.Symbol != nil && strings.TrimSpace(*params.Symbol) != "" {
		query = query.Where("symbol = ?", strings.ToUpper(strings.TrimSpace(*params.Symbol)))
	}
	return query
}

func (s *Store) ListActiveSymbols(ctx context.Context) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var symbols []string
	err := s.db.WithContext(ctx).
		Model(&models.Stock{}).
		Where("is_active = ?", true).
		Order("symbol asc").
		Pluck("symbol", &symbols).Error
	return symbols, err
}

func (s *Store) UpdateStockPrice(ctx context.Context, stockID string, update repository.StockPriceUpdate) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Stock{}).
		Where("id = ?", stockID).
		Updates(map[string]any{
			"current_price":    update.Price,
			"price_change":     update.Change,
			"volume":           update.Volume,
			"price_updated_at": update.UpdatedAt,
		}).Error
}

func (s *Store) UpdateStockProfile(ctx context.Context, stockID string, update repository.StockProfileUpdate) error {
	if s == nil || s.db == nil {
		return nil
	}
	fields := map[string]any{}
	if update.Name != nil && strings.TrimSpace(*update.Name) != "" {
		fields["name"] = *update.Name
	}
	if update.Exchange != nil {
		fields["exchange"] = *update.Exchange
	}
	if update.Sector != nil {
		fields["sector"] = *update.Sector
	}
	if len(fields) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Stock{}).
		Where("id = ?", stockID).
		Updates(fields).Error
}

func (s *Store) SetStockActive(ctx context.Context, symbol string, active bool) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Stock{}).
		Where("symbol = ?", strings.ToUpper(strings.TrimSpace(symbol))).
		Update("is_active", active).Error
}

// --- Experts ----------------------------------------------------------------

func (s *Store) CreateExpert(ctx context.Context, item *models.Expert) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetExpertByID(ctx context.Context, id string) (*models.Expert, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Expert
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListExperts(ctx context.Context, limit, offset int) ([]models.Expert, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Expert
	err := s.db.WithContext(ctx).
		Model(&models.Expert{}).
		Order("name asc").
		Limit(normalizeLimit(limit, 100)).
		Offset(normalizeOffset(offset)).
		Find(&items).Error
	return items, err
}

func (s *Store) InsertExpertRating(ctx context.Context, item *models.ExpertRating) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListWeightedExpertRatings(ctx context.Context, stockID string, since time.Time) ([]repository.WeightedExpertRating, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var rows []repository.WeightedExpertRating
	query := s.db.WithContext(ctx).
		Table("expert_ratings").
		Select("expert_ratings.expert_id, expert_ratings.score, experts.influence_weight AS weight, expert_ratings.rated_at").
		Joins("JOIN experts ON experts.id = expert_ratings.expert_id").
		Where("expert_ratings.stock_id = ?", stockID)
	if !since.IsZero() {
		query = query.Where("expert_ratings.rated_at >= ?", since)
	}
	if err := query.Order("expert_ratings.rated_at desc").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// --- Ratings ----------------------------------------------------------------

func (s *Store) InsertRating(ctx context.Context, item *models.Rating) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetLatestRating(ctx context.Context, stockID string) (*models.Rating, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Rating
	err := s.db.WithContext(ctx).
		Where("stock_id = ?", stockID).
		Order("calculated_at desc").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListRatings(ctx context.Context, params repository.ListRatingsParams) ([]models.Rating, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Rating{})
	if params.StockID != nil && *params.StockID != "" {
		query = query.Where("stock_id = ?", *params.StockID)
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("calculated_at >= ?", *params.Since)
	}
	if params.Until != nil && !params.Until.IsZero() {
		query = query.Where("calculated_at <= ?", *params.Until)
	}
	var items []models.Rating
	err := query.
		Order("calculated_at desc").
		Limit(normalizeLimit(params.Limit, 100)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error
	return items, err
}

// --- Social posts -----------------------------------------------------------

func (s *Store) InsertPostsIgnoreDuplicates(ctx context.Context, items []models.SocialPost) (int64, error) {
	if s == nil || s.db == nil || len(items) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "platform"}, {Name: "platform_post_id"}},
		DoNothing: true,
	}).CreateInBatches(items, 100)
	return res.RowsAffected, res.Error
}

func (s *Store) ListUnanalyzedPosts(ctx context.Context, symbol string, limit int) ([]models.SocialPost, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.SocialPost
	err := s.db.WithContext(ctx).
		Where("analyzed_at IS NULL").
		Where("stock_mentions @> ?", mentionsJSON(symbol)).
		Order("posted_at asc").
		Limit(normalizeLimit(limit, 50)).
		Find(&items).Error
	return items, err
}

// SetPostSentiment fills sentiment fields exactly once; a post that is
// already analyzed is left untouched and false is returned.
func (s *Store) SetPostSentiment(ctx context.Context, postID uint64, score float64, label string, analyzedAt time.Time) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.SocialPost{}).
		Where("id = ? AND analyzed_at IS NULL", postID).
		Updates(map[string]any{
			"sentiment_score": score,
			"sentiment_label": label,
			"analyzed_at":     analyzedAt,
		})
	return res.RowsAffected > 0, res.Error
}

func (s *Store) ListAnalyzedPostsSince(ctx context.Context, symbol string, since time.Time) ([]models.SocialPost, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.SocialPost
	query := s.db.WithContext(ctx).
		Where("analyzed_at IS NOT NULL").
		Where("stock_mentions @> ?", mentionsJSON(symbol))
	if !since.IsZero() {
		query = query.Where("posted_at >= ?", since)
	}
	err := query.Order("posted_at desc").Find(&items).Error
	return items, err
}

func (s *Store) ListPosts(ctx context.Context, params repository.ListPostsParams) ([]models.SocialPost, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.SocialPost{})
	if params.Symbol != nil && strings.TrimSpace(*params.Symbol) != "" {
		query = query.Where("stock_mentions @> ?", mentionsJSON(*params.Symbol))
	}
	if params.Analyzed != nil {
		if *params.Analyzed {
			query = query.Where("analyzed_at IS NOT NULL")
		} else {
			query = query.Where("analyzed_at IS NULL")
		}
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("posted_at >= ?", *params.Since)
	}
	var items []models.SocialPost
	err := query.
		Order("posted_at desc").
		Limit(normalizeLimit(params.Limit, 100)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error
	return items, err
}

// --- Sync state -------------------------------------------------------------

func (s *Store) GetSyncState(ctx context.Context, symbol string) (*models.SyncState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.SyncState
	err := s.db.WithContext(ctx).
		Where("symbol = ?", strings.ToUpper(strings.TrimSpace(symbol))).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListSyncStates(ctx context.Context) ([]models.SyncState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.SyncState
	err := s.db.WithContext(ctx).
		Model(&models.SyncState{}).
		Order("symbol asc").
		Find(&items).Error
	return items, err
}

// TryBeginSync acquires the per-symbol guard with a compare-and-set update
// so that two concurrent triggers cannot both proceed, even across server
// instances. Returns ErrSyncInProgress when the guard is already held.
func (s *Store) TryBeginSync(ctx context.Context, symbol string, now time.Time) error {
	if s == nil || s.db == nil {
		return nil
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	// Make sure the row exists; DoNothing keeps a live guard intact.
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		DoNothing: true,
	}).Create(&models.SyncState{Symbol: symbol}).Error; err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Model(&models.SyncState{}).
		Where("symbol = ? AND currently_syncing = ?", symbol, false).
		Updates(map[string]any{
			"currently_syncing": true,
			"last_attempt_at":   now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrSyncInProgress
	}
	return nil
}

// FinishSync writes the end-of-cycle state and always releases the guard.
func (s *Store) FinishSync(ctx context.Context, state *models.SyncState) error {
	if s == nil || s.db == nil || state == nil {
		return nil
	}
	state.CurrentlySyncing = false
	return s.db.WithContext(ctx).
		Model(&models.SyncState{}).
		Where("symbol = ?", state.Symbol).
		Updates(syncFinishUpdates(state)).Error
}

// syncFinishUpdates builds the end-of-cycle column set. last_synced_at is
// only written on success so a failed cycle keeps the previous timestamp.
func syncFinishUpdates(state *models.SyncState) map[string]any {
	updates := map[string]any{
		"currently_syncing":   false,
		"requests_used_today": state.RequestsUsedToday,
		"quota_day":           state.QuotaDay,
		"last_error":          state.LastError,
		"stats_json":          state.StatsJSON,
	}
	if state.LastSyncedAt != nil {
		updates["last_synced_at"] = state.LastSyncedAt
	}
	return updates
}

// ClearSyncing releases the guard without touching anything else. Used on
// timeout/failure paths so a crashed cycle cannot wedge the symbol.
func (s *Store) ClearSyncing(ctx context.Context, symbol string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.SyncState{}).
		Where("symbol = ?", strings.ToUpper(strings.TrimSpace(symbol))).
		Update("currently_syncing", false).Error
}

// --- helpers ----------------------------------------------------------------

func mentionsJSON(symbol string) datatypes.JSON {
	b, _ := json.Marshal([]string{strings.ToUpper(strings.TrimSpace(symbol))})
	return datatypes.JSON(b)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 || limit > 1000 {
		return fallback
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	switch column {
	case "symbol", "name", "price_updated_at", "created_at", "updated_at":
	default:
		column = fallback
	}
	direction := "asc"
	if asc != nil && !*asc {
		direction = "desc"
	}
	return query.Order(column + " " + direction)
}

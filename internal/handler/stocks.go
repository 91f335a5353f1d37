package handler

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"rottenstocks/internal/cache"
	"rottenstocks/internal/models"
	"rottenstocks/internal/repository"
	"rottenstocks/internal/service"
)

var symbolRe = regexp.MustCompile(`^[A-Z]{1,10}$`)

type StockHandler struct {
	Repo   repository.Repository
	Cache  cache.Store
	Sync   *service.SyncService
	Logger *zap.Logger
}

func (h *StockHandler) Register(r *gin.Engine) {
	group := r.Group("/api/stocks")
	group.GET("", h.list)
	group.POST("", h.create)
	group.GET("/:symbol", h.get)
	group.DELETE("/:symbol", h.deactivate)
	group.GET("/:symbol/rating", h.currentRating)
	group.GET("/:symbol/ratings", h.ratingHistory)
	group.GET("/:symbol/posts", h.posts)
}

// @Summary List tracked stocks
// @Tags stocks
// @Param active query bool false "filter by active flag"
// @Param limit query int false "page size"
// @Param offset query int false "page offset"
// @Success 200 {object} apiResponse
// @Router /api/stocks [get]
func (h *StockHandler) list(c *gin.Context) {
	params := repository.ListStocksParams{
		Limit:   intQuery(c, "limit", 50),
		Offset:  intQuery(c, "offset", 0),
		Active:  boolQueryPtr(c, "active"),
		OrderBy: "symbol",
		Asc:     boolPtr(true),
	}
	items, err := h.Repo.ListStocks(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountStocks(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(params.Limit, params.Offset, total))
}

type createStockRequest struct {
	Symbol   string  `json:"symbol" binding:"required"`
	Name     string  `json:"name" binding:"required"`
	Exchange *string `json:"exchange"`
	Sector   *string `json:"sector"`
}

// @Summary Track a new stock and kick off its first sync
// @Tags stocks
// @Param request body createStockRequest true "stock to track"
// @Success 201 {object} apiResponse
// @Router /api/stocks [post]
func (h *StockHandler) create(c *gin.Context) {
	var req createStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if !symbolRe.MatchString(symbol) {
		Error(c, http.StatusBadRequest, "symbol must be 1-10 uppercase letters", nil)
		return
	}

	existing, err := h.Repo.GetStockBySymbol(c.Request.Context(), symbol)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if existing != nil {
		Error(c, http.StatusConflict, "symbol already tracked", nil)
		return
	}

	stock := &models.Stock{
		ID:       uuid.NewString(),
		Symbol:   symbol,
		Name:     strings.TrimSpace(req.Name),
		Exchange: req.Exchange,
		Sector:   req.Sector,
		IsActive: true,
	}
	if err := h.Repo.CreateStock(c.Request.Context(), stock); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}

	if h.Sync != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if _, err := h.Sync.SyncSymbol(ctx, symbol, service.SyncOptions{FetchOverview: true}); err != nil {
				h.Logger.Warn("initial sync failed", zap.String("symbol", symbol), zap.Error(err))
			}
		}()
	}
	Created(c, stock)
}

// @Summary Get one stock by symbol
// @Tags stocks
// @Param symbol path string true "ticker symbol"
// @Success 200 {object} apiResponse
// @Router /api/stocks/{symbol} [get]
func (h *StockHandler) get(c *gin.Context) {
	stock, ok := h.lookup(c)
	if !ok {
		return
	}
	Ok(c, stock, nil)
}

// @Summary Stop tracking a stock (soft deactivate)
// @Tags stocks
// @Param symbol path string true "ticker symbol"
// @Success 200 {object} apiResponse
// @Router /api/stocks/{symbol} [delete]
func (h *StockHandler) deactivate(c *gin.Context) {
	stock, ok := h.lookup(c)
	if !ok {
		return
	}
	if err := h.Repo.SetStockActive(c.Request.Context(), stock.Symbol, false); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"symbol": stock.Symbol, "is_active": false}, nil)
}

// @Summary Current rating for a stock
// @Tags ratings
// @Param symbol path string true "ticker symbol"
// @Success 200 {object} apiResponse
// @Router /api/stocks/{symbol}/rating [get]
func (h *StockHandler) currentRating(c *gin.Context) {
	stock, ok := h.lookup(c)
	if !ok {
		return
	}

	var cached models.Rating
	key := cache.Key(cache.NSRating, stock.Symbol)
	if hit, _ := cache.GetJSON(c.Request.Context(), h.Cache, key, &cached); hit {
		Ok(c, cached, map[string]any{"cached": true})
		return
	}

	latest, err := h.Repo.GetLatestRating(c.Request.Context(), stock.ID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if latest == nil {
		Error(c, http.StatusNotFound, "no rating calculated yet", nil)
		return
	}
	Ok(c, latest, nil)
}

// @Summary Rating history for a stock
// @Tags ratings
// @Param symbol path string true "ticker symbol"
// @Param since query string false "RFC3339 lower bound"
// @Param limit query int false "page size"
// @Success 200 {object} apiResponse
// @Router /api/stocks/{symbol}/ratings [get]
func (h *StockHandler) ratingHistory(c *gin.Context) {
	stock, ok := h.lookup(c)
	if !ok {
		return
	}
	items, err := h.Repo.ListRatings(c.Request.Context(), repository.ListRatingsParams{
		Limit:   intQuery(c, "limit", 50),
		Offset:  intQuery(c, "offset", 0),
		StockID: &stock.ID,
		Since:   timeQueryPtr(c, "since"),
		Until:   timeQueryPtr(c, "until"),
	})
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

// @Summary Social posts mentioning a stock
// @Tags posts
// @Param symbol path string true "ticker symbol"
// @Param analyzed query bool false "filter by analysis status"
// @Success 200 {object} apiResponse
// @Router /api/stocks/{symbol}/posts [get]
func (h *StockHandler) posts(c *gin.Context) {
	stock, ok := h.lookup(c)
	if !ok {
		return
	}
	items, err := h.Repo.ListPosts(c.Request.Context(), repository.ListPostsParams{
		Limit:    intQuery(c, "limit", 50),
		Offset:   intQuery(c, "offset", 0),
		Symbol:   &stock.Symbol,
		Analyzed: boolQueryPtr(c, "analyzed"),
		Since:    timeQueryPtr(c, "since"),
	})
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

func (h *StockHandler) lookup(c *gin.Context) (*models.Stock, bool) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	stock, err := h.Repo.GetStockBySymbol(c.Request.Context(), symbol)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return nil, false
	}
	if stock == nil {
		Error(c, http.StatusNotFound, "unknown symbol", nil)
		return nil, false
	}
	return stock, true
}

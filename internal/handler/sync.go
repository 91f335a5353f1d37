package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rottenstocks/internal/repository"
	"rottenstocks/internal/service"
)

type SyncHandler struct {
	Repo   repository.Repository
	Sync   *service.SyncService
	Logger *zap.Logger
}

func (h *SyncHandler) Register(r *gin.Engine) {
	group := r.Group("/api/sync")
	group.POST("", h.syncAll)
	group.POST("/:symbol", h.syncSymbol)
	group.GET("/state", h.state)
}

// @Summary Trigger a full sync pass over all active stocks
// @Tags sync
// @Success 202 {object} apiResponse
// @Router /api/sync [post]
func (h *SyncHandler) syncAll(c *gin.Context) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		if _, err := h.Sync.SyncAll(ctx, service.SyncOptions{}); err != nil {
			h.Logger.Warn("manual full sync failed", zap.Error(err))
		}
	}()
	Accepted(c, "sync started")
}

// @Summary Sync one symbol and return the step-by-step result
// @Tags sync
// @Param symbol path string true "ticker symbol"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Failure 409 {object} apiResponse
// @Router /api/sync/{symbol} [post]
func (h *SyncHandler) syncSymbol(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))

	result, err := h.Sync.SyncSymbol(c.Request.Context(), symbol, service.SyncOptions{})
	switch {
	case errors.Is(err, repository.ErrSyncInProgress):
		state, stateErr := h.Repo.GetSyncState(c.Request.Context(), symbol)
		if stateErr != nil {
			Error(c, http.StatusBadGateway, stateErr.Error(), nil)
			return
		}
		c.JSON(http.StatusConflict, apiResponse{Code: http.StatusConflict, Message: "sync already in progress", Data: state})
	case errors.Is(err, service.ErrUnknownSymbol):
		Error(c, http.StatusNotFound, "unknown symbol", nil)
	case err != nil:
		Error(c, http.StatusBadGateway, err.Error(), map[string]any{"partial": result})
	default:
		Ok(c, result, nil)
	}
}

// @Summary Per-symbol sync state, including the concurrency guard
// @Tags sync
// @Success 200 {object} apiResponse
// @Router /api/sync/state [get]
func (h *SyncHandler) state(c *gin.Context) {
	items, err := h.Repo.ListSyncStates(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

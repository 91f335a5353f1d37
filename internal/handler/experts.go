package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rottenstocks/internal/models"
	"rottenstocks/internal/repository"
)

type ExpertHandler struct {
	Repo repository.Repository
}

func (h *ExpertHandler) Register(r *gin.Engine) {
	group := r.Group("/api/experts")
	group.GET("", h.list)
	group.POST("", h.create)
	group.POST("/:id/ratings", h.addRating)
}

// @Summary List experts
// @Tags experts
// @Success 200 {object} apiResponse
// @Router /api/experts [get]
func (h *ExpertHandler) list(c *gin.Context) {
	items, err := h.Repo.ListExperts(c.Request.Context(), intQuery(c, "limit", 50), intQuery(c, "offset", 0))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

type createExpertRequest struct {
	Name            string  `json:"name" binding:"required"`
	Institution     *string `json:"institution"`
	Platform        *string `json:"platform"`
	InfluenceWeight float64 `json:"influence_weight"`
}

// @Summary Register an expert
// @Tags experts
// @Param request body createExpertRequest true "expert to register"
// @Success 201 {object} apiResponse
// @Router /api/experts [post]
func (h *ExpertHandler) create(c *gin.Context) {
	var req createExpertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	weight := req.InfluenceWeight
	if weight <= 0 {
		weight = 1
	}
	expert := &models.Expert{
		ID:                 uuid.NewString(),
		Name:               strings.TrimSpace(req.Name),
		Institution:        req.Institution,
		Platform:           req.Platform,
		VerificationStatus: "unverified",
		InfluenceWeight:    weight,
	}
	if err := h.Repo.CreateExpert(c.Request.Context(), expert); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Created(c, expert)
}

type addExpertRatingRequest struct {
	Symbol  string     `json:"symbol" binding:"required"`
	Score   float64    `json:"score"`
	RatedAt *time.Time `json:"rated_at"`
}

// @Summary Record an expert's rating for a stock
// @Tags experts
// @Param id path string true "expert id"
// @Param request body addExpertRatingRequest true "rating on the 0-100 scale"
// @Success 201 {object} apiResponse
// @Router /api/experts/{id}/ratings [post]
func (h *ExpertHandler) addRating(c *gin.Context) {
	var req addExpertRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if req.Score < 0 || req.Score > 100 {
		Error(c, http.StatusBadRequest, "score must be in 0..100", nil)
		return
	}

	expert, err := h.Repo.GetExpertByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if expert == nil {
		Error(c, http.StatusNotFound, "unknown expert", nil)
		return
	}

	stock, err := h.Repo.GetStockBySymbol(c.Request.Context(), strings.ToUpper(strings.TrimSpace(req.Symbol)))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if stock == nil {
		Error(c, http.StatusNotFound, "unknown symbol", nil)
		return
	}

	ratedAt := time.Now().UTC()
	if req.RatedAt != nil {
		ratedAt = req.RatedAt.UTC()
	}
	row := &models.ExpertRating{
		ExpertID: expert.ID,
		StockID:  stock.ID,
		Score:    req.Score,
		RatedAt:  ratedAt,
	}
	if err := h.Repo.InsertExpertRating(c.Request.Context(), row); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Created(c, row)
}

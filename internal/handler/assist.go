package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rentalsearch/internal/logger"
	"rentalsearch/internal/model"
	"rentalsearch/internal/service"
	"rentalsearch/internal/utils"
)

// AssistHandler serves orchestrated requests and the standalone capabilities
type AssistHandler struct {
	searchService *service.SearchService
}

// NewAssistHandler creates a new assist handler
func NewAssistHandler(searchService *service.SearchService) *AssistHandler {
	return &AssistHandler{
		searchService: searchService,
	}
}

// Assist handles POST /api/v1/assist
func (h *AssistHandler) Assist(c *gin.Context) {
	var req model.AssistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	response, err := h.searchService.Assist(c.Request.Context(), &req)
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("Assist failed", zap.String("query", req.Query), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Assist failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// Commute handles POST /api/v1/commute
func (h *AssistHandler) Commute(c *gin.Context) {
	var req model.CommuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.searchService.Commute(c.Request.Context(), &req))
}

type marketQuery struct {
	HousingType string   `form:"housing_type"`
	MinPrice    *float64 `form:"min_price"`
	MaxPrice    *float64 `form:"max_price"`
	MinBedrooms *int     `form:"min_bedrooms"`
	MaxBedrooms *int     `form:"max_bedrooms"`
}

// MarketSummary handles GET /api/v1/market/summary
func (h *AssistHandler) MarketSummary(c *gin.Context) {
	var q marketQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query: " + err.Error()})
		return
	}

	spec := model.FilterSpec{
		MinPrice:    q.MinPrice,
		MaxPrice:    q.MaxPrice,
		MinBedrooms: q.MinBedrooms,
		MaxBedrooms: q.MaxBedrooms,
	}
	if q.HousingType != "" {
		t, ok := utils.NormalizeHousingType(q.HousingType)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid housing_type"})
			return
		}
		spec.HousingType = model.HousingTypePtr(t)
	}

	c.JSON(http.StatusOK, h.searchService.MarketSummary(c.Request.Context(), &spec))
}

package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rentalsearch/internal/logger"
	"rentalsearch/internal/model"
	"rentalsearch/internal/service"
)

// SearchHandler handles search-related HTTP requests
type SearchHandler struct {
	searchService *service.SearchService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
	}
}

// Search handles POST /api/v1/search
func (h *SearchHandler) Search(c *gin.Context) {
	var req model.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	response, err := h.searchService.Search(c.Request.Context(), &req)
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("Search failed", zap.String("query", req.Query), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// SearchStream handles POST /api/v1/search/stream - SSE streaming search
func (h *SearchHandler) SearchStream(c *gin.Context) {
	var req model.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	sendSSE(c, "start", map[string]any{"query": req.Query})
	flusher.Flush()

	ctx := c.Request.Context()
	response, err := h.searchService.SearchStream(ctx, &req, func(event string, data any) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		sendSSE(c, event, data)
		flusher.Flush()
		return nil
	})
	if err != nil {
		logger.FromContext(c.Request.Context()).Warn("Streaming search aborted", zap.String("query", req.Query), zap.Error(err))
		sendSSE(c, "error", map[string]any{"error": err.Error()})
		flusher.Flush()
		return
	}

	sendSSE(c, "results", response)
	sendSSE(c, "done", nil)
	flusher.Flush()
}

// sendSSE sends a Server-Sent Event
func sendSSE(c *gin.Context, event string, data any) {
	if data == nil {
		fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", event)
		return
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		fmt.Fprintf(c.Writer, "event: error\ndata: {\"error\": \"JSON marshal failed\"}\n\n")
		return
	}
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, jsonData)
}

// GetListing handles GET /api/v1/listings/:id
func (h *SearchHandler) GetListing(c *gin.Context) {
	listing, err := h.searchService.GetListing(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrListingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listing: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, listing)
}

// SimilarListings handles GET /api/v1/listings/:id/similar
func (h *SearchHandler) SimilarListings(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = n
	}

	listings, err := h.searchService.SimilarListings(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		if errors.Is(err, service.ErrEmbeddingsUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to find similar listings: " + err.Error()})
		return
	}
	if listings == nil {
		listings = []model.Listing{}
	}

	c.JSON(http.StatusOK, gin.H{"listings": listings})
}

// Reload handles POST /api/v1/listings/reload
func (h *SearchHandler) Reload(c *gin.Context) {
	n, err := h.searchService.Reload(c.Request.Context())
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("Listing reload failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Reload failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"listings": n})
}

package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"rentalsearch/internal/model"
	"rentalsearch/internal/service"
)

// EmbeddingHandler handles embedding-related HTTP requests
type EmbeddingHandler struct {
	searchService *service.SearchService
	dimensions    int
}

// NewEmbeddingHandler creates a new embedding handler. dimensions <= 0 disables the size check.
func NewEmbeddingHandler(searchService *service.SearchService, dimensions int) *EmbeddingHandler {
	return &EmbeddingHandler{
		searchService: searchService,
		dimensions:    dimensions,
	}
}

// BatchUpdate handles POST /api/v1/embeddings/batch
func (h *EmbeddingHandler) BatchUpdate(c *gin.Context) {
	var req model.EmbeddingBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if len(req.Embeddings) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No embeddings provided"})
		return
	}

	if h.dimensions > 0 {
		for i, item := range req.Embeddings {
			if len(item.Embedding) != h.dimensions {
				c.JSON(http.StatusBadRequest, gin.H{
					"error": fmt.Sprintf("Invalid embedding dimension at index %d, expected %d", i, h.dimensions),
				})
				return
			}
		}
	}

	success, errs := h.searchService.UpdateEmbeddings(c.Request.Context(), req.Embeddings)

	response := model.EmbeddingBatchResponse{
		Success: success,
		Failed:  len(req.Embeddings) - success,
		Errors:  errs,
	}

	if len(errs) > 0 {
		c.JSON(http.StatusPartialContent, response)
		return
	}
	c.JSON(http.StatusOK, response)
}

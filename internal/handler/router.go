package handler

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"rentalsearch/internal/service"
)

// BuildInfo is reported by /health and /version
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// RouterConfig holds HTTP surface options
type RouterConfig struct {
	AllowedOrigins      string
	AllowedMethods      string
	AllowedHeaders      string
	MetricsEnabled      bool
	EmbeddingDimensions int
	Build               BuildInfo
}

// NewRouter wires every API route onto a gin engine
func NewRouter(searchService *service.SearchService, cfg RouterConfig, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(Recovery(logger))
	router.Use(RequestLogger(logger))
	if cfg.MetricsEnabled {
		router.Use(Metrics())
	}

	corsConfig := cors.DefaultConfig()
	if origins := splitList(cfg.AllowedOrigins, "*"); len(origins) == 1 && origins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	corsConfig.AllowMethods = splitList(cfg.AllowedMethods, "GET,POST,OPTIONS")
	corsConfig.AllowHeaders = splitList(cfg.AllowedHeaders, "Content-Type,Authorization")
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"service":    "rental-search",
			"version":    cfg.Build.Version,
			"build_time": cfg.Build.BuildTime,
			"git_commit": cfg.Build.GitCommit,
		})
	})

	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    cfg.Build.Version,
			"build_time": cfg.Build.BuildTime,
			"git_commit": cfg.Build.GitCommit,
		})
	})

	if cfg.MetricsEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	searchHandler := NewSearchHandler(searchService)
	assistHandler := NewAssistHandler(searchService)
	embeddingHandler := NewEmbeddingHandler(searchService, cfg.EmbeddingDimensions)
	feedbackHandler := NewFeedbackHandler(searchService)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/search", searchHandler.Search)
		apiV1.POST("/search/stream", searchHandler.SearchStream)
		apiV1.POST("/assist", assistHandler.Assist)
		apiV1.POST("/commute", assistHandler.Commute)
		apiV1.GET("/market/summary", assistHandler.MarketSummary)

		apiV1.GET("/listings/:id", searchHandler.GetListing)
		apiV1.GET("/listings/:id/similar", searchHandler.SimilarListings)
		apiV1.POST("/listings/reload", searchHandler.Reload)

		apiV1.POST("/embeddings/batch", embeddingHandler.BatchUpdate)
		apiV1.POST("/feedback", feedbackHandler.Submit)
	}

	return router
}

func splitList(raw, fallback string) []string {
	if strings.TrimSpace(raw) == "" {
		raw = fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rentalsearch/internal/model"
	"rentalsearch/internal/service"
	"rentalsearch/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testListings() []model.Listing {
	return []model.Listing{
		{ID: "sf-1", Title: "Mission room", Price: 1450, HousingType: model.HousingHouse, PrivateRoom: true},
		{ID: "sf-2", Title: "SoMa loft", Price: 2600, HousingType: model.HousingApartment},
		{ID: "sf-3", Title: "Sunset condo", Price: 1900, HousingType: model.HousingCondo},
		{ID: "bad", Title: "No price", Price: 0, HousingType: model.HousingUnknown},
	}
}

// newTestRouter builds the full router over a service without a language model
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	logger := zap.NewNop()

	scorer, err := service.NewSemanticScorer(nil, service.ScorerConfig{}, logger)
	require.NoError(t, err)

	svc, err := service.NewSearchService(
		store.NewFromListings(testListings()),
		service.NewCriteriaExtractor(nil, 0, logger),
		scorer,
		service.NewComposer(service.DefaultRankWeights),
		service.NewOrchestrator(nil, 0, logger),
		service.NewFallbackScorer(nil, service.NewSyntheticScorer(0), logger),
		service.SearchSettings{},
		logger,
	)
	require.NoError(t, err)
	t.Cleanup(svc.Release)

	return NewRouter(svc, RouterConfig{
		MetricsEnabled:      true,
		EmbeddingDimensions: 3,
		Build:               BuildInfo{Version: "test"},
	}, logger)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthAndVersion(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	w = doJSON(t, router, http.MethodGet, "/version", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":"test"`)
}

func TestRequestIDIsEchoed(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestSearchHandler(t *testing.T) {
	router := newTestRouter(t)

	t.Run("deterministic results", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/search", model.SearchRequest{
			Query:   "anything under 2000",
			Filters: &model.FilterSpec{MaxPrice: model.Float64Ptr(2000)},
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp model.SearchResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, model.PathDeterministic, resp.Path)
		assert.Equal(t, 4, resp.TotalListings)
		require.Len(t, resp.Results, 2)
		assert.Equal(t, "sf-1", resp.Results[0].Listing.ID)
		assert.Equal(t, 100, resp.Results[0].MatchPercentage)
	})

	t.Run("missing query", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/search", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSearchStreamHandler(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/search/stream", model.SearchRequest{Query: "anything"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/event-stream"))
	body := w.Body.String()
	var order []int
	for _, event := range []string{"start", "extracting", "filters", "filtered", "results", "done"} {
		idx := strings.Index(body, "event: "+event+"\n")
		require.GreaterOrEqual(t, idx, 0, event)
		order = append(order, idx)
	}
	assert.IsIncreasing(t, order)
}

func TestListingHandlers(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/listings/sf-3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sunset condo")

	w = doJSON(t, router, http.MethodGet, "/api/v1/listings/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/listings/sf-3/similar?limit=3", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/listings/sf-3/similar?limit=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/listings/reload", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code, "a preloaded store has no loader")
}

func TestAssistHandlers(t *testing.T) {
	router := newTestRouter(t)

	t.Run("assist falls back to housing search", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/assist", model.AssistRequest{Query: "somewhere nice"})
		require.Equal(t, http.StatusOK, w.Code)

		var resp model.AssistResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Plan)
		assert.Equal(t, model.IntentHousingSearch, resp.Plan.Intent)
		require.NotNil(t, resp.Search)
		assert.Equal(t, 3, resp.Search.MatchedCount)
		assert.NotEmpty(t, resp.Warnings)
	})

	t.Run("commute", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/commute", model.CommuteRequest{
			Origin:      "37.76,-122.42",
			Destination: "37.79,-122.40",
			TravelMode:  "bike",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp model.CommuteAnalysis
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, model.TravelBicycling, resp.Mode)
		assert.True(t, resp.Synthetic)
		assert.GreaterOrEqual(t, resp.Rating, 1)
	})

	t.Run("commute requires both ends", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/commute", map[string]string{"origin": "a"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("market summary", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/market/summary?max_price=2000", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp model.MarketSummary
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.TotalListings)
		assert.Equal(t, 1675.0, resp.AveragePrice)
	})

	t.Run("market summary rejects unknown housing type", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/market/summary?housing_type=yurt", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestFeedbackHandler(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/feedback", model.FeedbackRequest{
		SearchID: "s1", ListingID: "sf-1", Action: "CLICK",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/feedback", model.FeedbackRequest{
		SearchID: "s1", ListingID: "sf-1", Action: "share",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEmbeddingHandler(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/embeddings/batch", model.EmbeddingBatchRequest{
		Embeddings: []model.EmbeddingItem{{ListingID: "sf-1", Embedding: []float32{1, 2}}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "dimension mismatch")

	w = doJSON(t, router, http.MethodPost, "/api/v1/embeddings/batch", model.EmbeddingBatchRequest{
		Embeddings: []model.EmbeddingItem{{ListingID: "sf-1", Embedding: []float32{1, 2, 3}}},
	})
	require.Equal(t, http.StatusPartialContent, w.Code, "no embedding store configured")

	var resp model.EmbeddingBatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Failed)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)
	doJSON(t, router, http.MethodGet, "/health", nil)

	w := doJSON(t, router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b ", "x"))
	assert.Equal(t, []string{"GET", "POST"}, splitList("", "GET,POST"))
}

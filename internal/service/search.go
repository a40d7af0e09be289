package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"rentalsearch/internal/metrics"
	"rentalsearch/internal/model"
)

// ErrEmbeddingsUnavailable is returned when no embedding store is configured
var ErrEmbeddingsUnavailable = errors.New("embedding store not configured")

// ListingPool is the read side of the listing store
type ListingPool interface {
	Snapshot() []model.Listing
	Get(id string) (model.Listing, bool)
	Reload(ctx context.Context) (int, error)
}

// SearchLogger persists searches and feedback
type SearchLogger interface {
	LogSearch(ctx context.Context, entry model.SearchLog) error
	LogFeedback(ctx context.Context, searchID, listingID, action string) error
}

// EmbeddingStore persists listing embeddings and answers nearest-neighbour lookups
type EmbeddingStore interface {
	BatchUpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string)
	SimilarListings(ctx context.Context, listingID string, limit int) ([]model.Listing, error)
}

// SearchSettings tunes the caller-facing pipeline
type SearchSettings struct {
	DefaultMaxResults     int
	MaxResultsLimit       int
	DeterministicCap      int
	AvailableCapabilities []string
	DefaultTravelMode     string
	CommuteConcurrency    int
}

// SearchEventCallback is called for streaming search events
type SearchEventCallback func(event string, data any) error

// Stream event names
const (
	EventExtracting = "extracting"
	EventFilters    = "filters"
	EventFiltered   = "filtered"
	EventScoring    = "scoring"
	EventCommute    = "commute"
)

// SearchService runs the query pipeline against the listing store
type SearchService struct {
	pool         ListingPool
	extractor    *CriteriaExtractor
	scorer       *SemanticScorer
	composer     *Composer
	orchestrator *Orchestrator
	commute      CommuteScorer
	commutePool  *ants.Pool
	searchLog    SearchLogger
	embeddings   EmbeddingStore
	settings     SearchSettings
	logger       *zap.Logger
}

// Option configures optional SearchService collaborators
type Option func(*SearchService)

// WithSearchLogger persists searches and feedback
func WithSearchLogger(l SearchLogger) Option {
	return func(s *SearchService) { s.searchLog = l }
}

// WithEmbeddingStore enables embedding updates and similar-listing lookups
func WithEmbeddingStore(e EmbeddingStore) Option {
	return func(s *SearchService) { s.embeddings = e }
}

// NewSearchService creates a new search service. Call Release when done.
func NewSearchService(
	pool ListingPool,
	extractor *CriteriaExtractor,
	scorer *SemanticScorer,
	composer *Composer,
	orchestrator *Orchestrator,
	commute CommuteScorer,
	settings SearchSettings,
	logger *zap.Logger,
	opts ...Option,
) (*SearchService, error) {
	if settings.DefaultMaxResults <= 0 {
		settings.DefaultMaxResults = DefaultMaxResults
	}
	if settings.MaxResultsLimit < settings.DefaultMaxResults {
		settings.MaxResultsLimit = settings.DefaultMaxResults
	}
	if settings.DeterministicCap <= 0 {
		settings.DeterministicCap = DefaultDeterministicCap
	}
	if settings.CommuteConcurrency <= 0 {
		settings.CommuteConcurrency = 4
	}
	settings.DefaultTravelMode = NormalizeTravelMode(settings.DefaultTravelMode, model.TravelTransit)

	commutePool, err := ants.NewPool(settings.CommuteConcurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to create commute pool: %w", err)
	}

	s := &SearchService{
		pool:         pool,
		extractor:    extractor,
		scorer:       scorer,
		composer:     composer,
		orchestrator: orchestrator,
		commute:      commute,
		commutePool:  commutePool,
		settings:     settings,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Release frees worker pools
func (s *SearchService) Release() {
	s.commutePool.Release()
	s.scorer.Release()
}

// Search performs a complete search: extraction, filtering, optional semantic scoring, composition
func (s *SearchService) Search(ctx context.Context, req *model.SearchRequest) (*model.SearchResponse, error) {
	return s.search(ctx, req, nil, true)
}

// SearchStream performs a search and reports each pipeline stage through callback.
// A callback error aborts the search.
func (s *SearchService) SearchStream(ctx context.Context, req *model.SearchRequest, callback SearchEventCallback) (*model.SearchResponse, error) {
	return s.search(ctx, req, callback, true)
}

// search runs the pipeline. withCommute is false when a later plan step rates commutes.
func (s *SearchService) search(
	ctx context.Context,
	req *model.SearchRequest,
	callback SearchEventCallback,
	withCommute bool,
) (*model.SearchResponse, error) {
	startTime := time.Now()
	emit := func(event string, data any) error {
		if callback == nil {
			return nil
		}
		return callback(event, data)
	}

	query := strings.TrimSpace(req.Query)
	options := req.Options
	if options == nil {
		options = &model.SearchOptions{}
	}
	maxResults := s.resolveMaxResults(options.MaxResults)

	listings := s.pool.Snapshot()

	if err := emit(EventExtracting, map[string]any{"status": "Understanding your query..."}); err != nil {
		return nil, err
	}

	extracted := s.extractor.ExtractFilters(ctx, query)
	applied := extracted.Merge(normalizeOverride(req.Filters))
	semantic := s.extractor.HasResidualRequirement(ctx, query)

	if err := emit(EventFilters, map[string]any{
		"filters":            applied,
		"semantic_requested": semantic,
	}); err != nil {
		return nil, err
	}

	filtered, stats := FilterWithStats(listings, applied)
	if err := emit(EventFiltered, map[string]any{
		"total_listings": len(listings),
		"filtered_count": len(filtered),
		"rejections":     stats.Rejections,
	}); err != nil {
		return nil, err
	}

	resp := &model.SearchResponse{
		SearchID:          uuid.NewString(),
		TotalListings:     len(listings),
		FilteredCount:     len(filtered),
		AppliedFilters:    applied,
		FilterRejections:  stats.Rejections,
		SemanticRequested: semantic,
	}

	var matches []model.MatchResult
	switch {
	case len(filtered) == 0:
		resp.Path = model.PathNone
		resp.Message = "No listings match the requested filters"
	case semantic:
		if err := emit(EventScoring, map[string]any{
			"status":     "Scoring listings against your requirements...",
			"candidates": len(filtered),
		}); err != nil {
			return nil, err
		}
		resp.Path = model.PathSemantic
		matches = s.scorer.Score(ctx, filtered, query, maxResults)
		if len(matches) == 0 {
			resp.Message = "No listings matched your requirements closely enough"
		}
	default:
		resp.Path = model.PathDeterministic
		limit := s.settings.DeterministicCap
		if options.MaxResults > 0 {
			limit = min(limit, maxResults)
		}
		matches = Summarize(filtered, applied, limit)
	}

	var commutes map[string]*model.CommuteAnalysis
	destination := strings.TrimSpace(options.Destination)
	if destination == "" && applied.Destination != nil {
		destination = *applied.Destination
	}
	if withCommute && destination != "" && len(matches) > 0 {
		if err := emit(EventCommute, map[string]any{
			"status":      "Rating commutes...",
			"destination": destination,
		}); err != nil {
			return nil, err
		}
		commutes = s.analyzeCommutes(ctx, matches, destination, options.TravelMode)
	}

	resp.Results = s.composer.Compose(matches, commutes)
	resp.MatchedCount = len(resp.Results)
	resp.Took = time.Since(startTime).Milliseconds()

	metrics.SearchesTotal.WithLabelValues(resp.Path).Inc()
	s.logger.Info("Search completed",
		zap.String("search_id", resp.SearchID),
		zap.String("path", resp.Path),
		zap.Int("total", resp.TotalListings),
		zap.Int("filtered", resp.FilteredCount),
		zap.Int("matched", resp.MatchedCount),
		zap.Int64("took_ms", resp.Took))

	s.logSearchAsync(query, resp)
	return resp, nil
}

// Assist classifies the request, builds a plan and executes its steps in order
func (s *SearchService) Assist(ctx context.Context, req *model.AssistRequest) (*model.AssistResponse, error) {
	startTime := time.Now()
	query := strings.TrimSpace(req.Query)

	c := s.orchestrator.Classify(ctx, query)
	if req.Origin != "" {
		c.Origin = req.Origin
	}
	if req.Destination != "" {
		c.Destination = req.Destination
	}
	if req.TravelMode != "" {
		c.TravelMode = req.TravelMode
	}

	plan := BuildPlan(c, query)
	plan.Warnings = ValidatePlan(plan, c, s.settings.AvailableCapabilities)

	resp := &model.AssistResponse{Plan: &plan}
	resp.Warnings = append(resp.Warnings, plan.Warnings...)

	for _, step := range plan.Steps {
		switch step.Capability {
		case model.CapabilityHousingSearch:
			search, err := s.search(ctx, &model.SearchRequest{
				Query:   query,
				Filters: req.Filters,
				Options: &model.SearchOptions{MaxResults: req.MaxResults},
			}, nil, !planHasCommute(plan))
			if err != nil {
				return nil, fmt.Errorf("housing search step: %w", err)
			}
			resp.Search = search

		case model.CapabilityCommuteScorer:
			if c.Destination == "" && resp.Search != nil && resp.Search.AppliedFilters.Destination != nil {
				c.Destination = *resp.Search.AppliedFilters.Destination
			}
			if c.Destination == "" {
				resp.Warnings = append(resp.Warnings, "commute step skipped: no destination")
				continue
			}
			if resp.Search != nil {
				// Housing results narrow the commute evaluation set.
				commutes := s.analyzeCommutes(ctx, resp.Search.Results, c.Destination, c.TravelMode)
				resp.Search.Results = s.composer.Compose(resp.Search.Results, commutes)
				continue
			}
			if c.Origin == "" {
				resp.Warnings = append(resp.Warnings, "commute step skipped: no origin")
				continue
			}
			resp.Commute = s.Commute(ctx, &model.CommuteRequest{
				Origin:      c.Origin,
				Destination: c.Destination,
				TravelMode:  c.TravelMode,
			})

		case model.CapabilityHousingSummary:
			spec := s.extractor.ExtractFilters(ctx, query).Merge(normalizeOverride(req.Filters))
			resp.Market = s.marketSummary(spec)

		default:
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("unknown capability %q skipped", step.Capability))
		}
	}

	resp.Took = time.Since(startTime).Milliseconds()
	return resp, nil
}

// Commute analyzes one trip; failures of the routing service degrade to a labelled estimate
func (s *SearchService) Commute(ctx context.Context, req *model.CommuteRequest) *model.CommuteAnalysis {
	mode := NormalizeTravelMode(req.TravelMode, s.settings.DefaultTravelMode)
	analysis, err := s.commute.Analyze(ctx, req.Origin, req.Destination, mode)
	if err != nil || analysis == nil {
		s.logger.Warn("Commute analysis failed", zap.Error(err))
		analysis, _ = NewSyntheticScorer(0).Analyze(ctx, req.Origin, req.Destination, mode)
	}
	return analysis
}

// MarketSummary returns price statistics, optionally restricted by filters
func (s *SearchService) MarketSummary(_ context.Context, filters *model.FilterSpec) *model.MarketSummary {
	var spec model.FilterSpec
	if filters != nil {
		spec = *filters
	}
	return s.marketSummary(spec)
}

func (s *SearchService) marketSummary(spec model.FilterSpec) *model.MarketSummary {
	listings := s.pool.Snapshot()
	if !spec.IsEmpty() {
		listings = Filter(listings, spec)
	}
	return SummarizeMarket(listings)
}

// GetListing retrieves a single listing by ID from the current snapshot
func (s *SearchService) GetListing(_ context.Context, listingID string) (*model.Listing, error) {
	listing, ok := s.pool.Get(listingID)
	if !ok {
		return nil, ErrListingNotFound
	}
	return &listing, nil
}

// SimilarListings returns listings nearest to listingID by embedding
func (s *SearchService) SimilarListings(ctx context.Context, listingID string, limit int) ([]model.Listing, error) {
	if s.embeddings == nil {
		return nil, ErrEmbeddingsUnavailable
	}
	if limit <= 0 {
		limit = s.settings.DefaultMaxResults
	}
	return s.embeddings.SimilarListings(ctx, listingID, min(limit, s.settings.MaxResultsLimit))
}

// Reload refreshes the listing snapshot
func (s *SearchService) Reload(ctx context.Context) (int, error) {
	return s.pool.Reload(ctx)
}

// UpdateEmbeddings updates embeddings for multiple listings
func (s *SearchService) UpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string) {
	if s.embeddings == nil {
		return 0, []string{ErrEmbeddingsUnavailable.Error()}
	}
	return s.embeddings.BatchUpdateEmbeddings(ctx, items)
}

// LogFeedback logs user feedback/action
func (s *SearchService) LogFeedback(ctx context.Context, searchID, listingID, action string) error {
	s.logger.Info("Feedback received",
		zap.String("search_id", searchID),
		zap.String("listing_id", listingID),
		zap.String("action", action))

	if s.searchLog == nil {
		return nil
	}
	return s.searchLog.LogFeedback(ctx, searchID, listingID, action)
}

// analyzeCommutes rates each result's commute concurrently, keyed by listing id
func (s *SearchService) analyzeCommutes(
	ctx context.Context,
	results []model.MatchResult,
	destination string,
	mode string,
) map[string]*model.CommuteAnalysis {
	mode = NormalizeTravelMode(mode, s.settings.DefaultTravelMode)
	analyses := make([]*model.CommuteAnalysis, len(results))

	var wg sync.WaitGroup
	for i, r := range results {
		i, origin := i, r.Listing.Origin()
		wg.Add(1)
		task := func() {
			defer wg.Done()
			analyses[i] = s.Commute(ctx, &model.CommuteRequest{
				Origin:      origin,
				Destination: destination,
				TravelMode:  mode,
			})
		}
		if err := s.commutePool.Submit(task); err != nil {
			go task()
		}
	}
	wg.Wait()

	out := make(map[string]*model.CommuteAnalysis, len(results))
	for i, r := range results {
		if analyses[i] != nil {
			out[r.Listing.ID] = analyses[i]
		}
	}
	return out
}

func planHasCommute(plan model.OrchestrationPlan) bool {
	for _, step := range plan.Steps {
		if step.Capability == model.CapabilityCommuteScorer {
			return true
		}
	}
	return false
}

func (s *SearchService) resolveMaxResults(requested int) int {
	if requested <= 0 {
		return s.settings.DefaultMaxResults
	}
	return min(requested, s.settings.MaxResultsLimit)
}

// logSearchAsync records the search without holding up the response
func (s *SearchService) logSearchAsync(query string, resp *model.SearchResponse) {
	if s.searchLog == nil {
		return
	}

	entry := model.SearchLog{
		SearchID:       resp.SearchID,
		Query:          query,
		Filters:        resp.AppliedFilters,
		Path:           resp.Path,
		ResultCount:    resp.MatchedCount,
		ListingIDs:     make([]string, 0, len(resp.Results)),
		ResponseTimeMs: resp.Took,
	}
	for _, r := range resp.Results {
		entry.ListingIDs = append(entry.ListingIDs, r.Listing.ID)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.searchLog.LogSearch(ctx, entry); err != nil {
			s.logger.Warn("Failed to log search", zap.String("search_id", entry.SearchID), zap.Error(err))
		}
	}()
}

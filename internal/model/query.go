package model

// MatchResult pairs a listing with a 0-100 match percentage and a rationale.
// Commute, WalkScore and FinalScore are filled by the result composer.
type MatchResult struct {
	Listing         Listing          `json:"listing"`
	MatchPercentage int              `json:"match_percentage"`
	Rationale       string           `json:"rationale"`
	Commute         *CommuteAnalysis `json:"commute,omitempty"`
	WalkScore       *int             `json:"walk_score,omitempty"`
	FinalScore      float64          `json:"final_score"`
}

// Ranking paths reported in SearchResponse.Path
const (
	PathDeterministic = "deterministic"
	PathSemantic      = "semantic"
	PathNone          = "none"
)

// SearchRequest represents a search query request
type SearchRequest struct {
	Query   string         `json:"query" binding:"required"`
	Filters *FilterSpec    `json:"filters,omitempty"`
	Options *SearchOptions `json:"options,omitempty"`
}

// SearchOptions represents search options
type SearchOptions struct {
	MaxResults  int    `json:"max_results"`
	Destination string `json:"destination,omitempty"`
	TravelMode  string `json:"travel_mode,omitempty"`
}

// SearchResponse represents a ranked search result with pipeline metadata
type SearchResponse struct {
	SearchID          string         `json:"search_id"`
	Results           []MatchResult  `json:"results"`
	TotalListings     int            `json:"total_listings"`
	FilteredCount     int            `json:"filtered_count"`
	MatchedCount      int            `json:"matched_count"`
	AppliedFilters    FilterSpec     `json:"applied_filters"`
	FilterRejections  map[string]int `json:"filter_rejections,omitempty"`
	Path              string         `json:"path"`
	SemanticRequested bool           `json:"semantic_requested"`
	Message           string         `json:"message,omitempty"`
	Took              int64          `json:"took_ms"` // Response time in milliseconds
}

// AssistRequest is a free-text request routed through the orchestrator
type AssistRequest struct {
	Query       string      `json:"query" binding:"required"`
	Filters     *FilterSpec `json:"filters,omitempty"`
	Origin      string      `json:"origin,omitempty"`
	Destination string      `json:"destination,omitempty"`
	TravelMode  string      `json:"travel_mode,omitempty"`
	MaxResults  int         `json:"max_results"`
}

// AssistResponse carries the plan and the output of every executed step
type AssistResponse struct {
	Plan     *OrchestrationPlan `json:"plan"`
	Search   *SearchResponse    `json:"search,omitempty"`
	Commute  *CommuteAnalysis   `json:"commute,omitempty"`
	Market   *MarketSummary     `json:"market,omitempty"`
	Warnings []string           `json:"warnings,omitempty"`
	Took     int64              `json:"took_ms"`
}

// CommuteRequest asks for a single origin/destination analysis
type CommuteRequest struct {
	Origin      string `json:"origin" binding:"required"`
	Destination string `json:"destination" binding:"required"`
	TravelMode  string `json:"travel_mode,omitempty"`
}

// MarketSummary holds price statistics over a listing set
type MarketSummary struct {
	TotalListings  int                 `json:"total_listings"`
	PricedListings int                 `json:"priced_listings"`
	AveragePrice   float64             `json:"average_price"`
	MedianPrice    float64             `json:"median_price"`
	MinPrice       float64             `json:"min_price"`
	MaxPrice       float64             `json:"max_price"`
	ByHousingType  map[HousingType]int `json:"by_housing_type"`
	Cheapest       *Listing            `json:"cheapest,omitempty"`
	MostExpensive  *Listing            `json:"most_expensive,omitempty"`
}

// SearchLog is the persisted record of one search
type SearchLog struct {
	SearchID       string
	Query          string
	Filters        FilterSpec
	Path           string
	ResultCount    int
	ListingIDs     []string
	ResponseTimeMs int64
}

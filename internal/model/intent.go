package model

// Intent is the whole-system classification of a user query
type Intent string

const (
	IntentHousingSearch   Intent = "housing_search"
	IntentCommuteAnalysis Intent = "commute_analysis"
	IntentMarketSummary   Intent = "market_summary"
	IntentCombinedSearch  Intent = "combined_search"
)

// Valid reports whether i is a known intent
func (i Intent) Valid() bool {
	switch i {
	case IntentHousingSearch, IntentCommuteAnalysis, IntentMarketSummary, IntentCombinedSearch:
		return true
	}
	return false
}

// Capabilities an orchestration plan can invoke
const (
	CapabilityHousingSearch  = "housing_search"
	CapabilityCommuteScorer  = "commute_scorer"
	CapabilityHousingSummary = "housing_summary"
)

// ExecutionOrder tells the executor how plan steps relate
type ExecutionOrder string

const (
	ExecutionSequential ExecutionOrder = "sequential"
	ExecutionParallel   ExecutionOrder = "parallel"
)

// IntentClassification is the parsed output of the classification call
type IntentClassification struct {
	Intent      Intent  `json:"intent"`
	Confidence  float64 `json:"confidence"`
	Origin      string  `json:"origin,omitempty"`
	Destination string  `json:"destination,omitempty"`
	TravelMode  string  `json:"travel_mode,omitempty"`
	Reasoning   string  `json:"reasoning,omitempty"`
}

// PlanStep names one capability invocation
type PlanStep struct {
	Capability string         `json:"capability"`
	Action     string         `json:"action"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// OrchestrationPlan is built fresh per query and never persisted
type OrchestrationPlan struct {
	Intent         Intent         `json:"intent"`
	Confidence     float64        `json:"confidence"`
	Steps          []PlanStep     `json:"steps"`
	Rationale      string         `json:"rationale"`
	ExecutionOrder ExecutionOrder `json:"execution_order"`
	Warnings       []string       `json:"warnings,omitempty"`
}

// Capabilities returns the capability names in step order
func (p *OrchestrationPlan) Capabilities() []string {
	names := make([]string, 0, len(p.Steps))
	for _, s := range p.Steps {
		names = append(names, s.Capability)
	}
	return names
}

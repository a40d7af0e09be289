package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"rentalsearch/internal/model"
	"rentalsearch/internal/utils"
)

// Orchestrator defaults
const (
	FallbackConfidence  = 0.3
	LowConfidenceCutoff = 0.7
)

// Plan step actions
const (
	ActionSearch    = "search"
	ActionAnalyze   = "analyze"
	ActionSummarize = "summarize"
)

// Orchestrator classifies whole-system intent and builds an execution plan
type Orchestrator struct {
	reasoner Reasoner
	timeout  time.Duration
	logger   *zap.Logger
}

// NewOrchestrator creates a query orchestrator
func NewOrchestrator(reasoner Reasoner, timeout time.Duration, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		reasoner: reasoner,
		timeout:  timeout,
		logger:   logger,
	}
}

// Classify asks the reasoner for the query intent.
// Any failure or unknown intent yields housing_search at FallbackConfidence.
func (o *Orchestrator) Classify(ctx context.Context, query string) model.IntentClassification {
	fallback := model.IntentClassification{
		Intent:     model.IntentHousingSearch,
		Confidence: FallbackConfidence,
		Reasoning:  "classification unavailable, defaulting to housing search",
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return fallback
	}

	text, err := callReasoner(ctx, o.reasoner, purposeIntent, buildIntentPrompt(query), o.timeout, o.logger)
	if err != nil {
		return fallback
	}

	var raw struct {
		Intent      string  `json:"intent"`
		Confidence  float64 `json:"confidence"`
		Origin      string  `json:"origin"`
		Destination string  `json:"destination"`
		TravelMode  string  `json:"travel_mode"`
		Reasoning   string  `json:"reasoning"`
	}
	if err := utils.ParseAIObject(text, &raw); err != nil {
		o.logger.Warn("Intent reply carried no usable JSON",
			zap.String("reply", utils.Truncate(text, 200)),
			zap.Error(err))
		return fallback
	}

	intent := model.Intent(strings.ToLower(strings.TrimSpace(raw.Intent)))
	if !intent.Valid() {
		o.logger.Warn("Unknown intent in classification reply", zap.String("intent", raw.Intent))
		return fallback
	}

	return model.IntentClassification{
		Intent:      intent,
		Confidence:  max(0, min(1, raw.Confidence)),
		Origin:      strings.TrimSpace(raw.Origin),
		Destination: strings.TrimSpace(raw.Destination),
		TravelMode:  strings.TrimSpace(raw.TravelMode),
		Reasoning:   raw.Reasoning,
	}
}

// BuildPlan is a total function of the classified intent. Every plan is sequential.
func BuildPlan(c model.IntentClassification, query string) model.OrchestrationPlan {
	plan := model.OrchestrationPlan{
		Intent:         c.Intent,
		Confidence:     c.Confidence,
		ExecutionOrder: model.ExecutionSequential,
	}

	searchStep := model.PlanStep{
		Capability: model.CapabilityHousingSearch,
		Action:     ActionSearch,
		Payload:    map[string]any{"query": query},
	}
	commuteStep := model.PlanStep{
		Capability: model.CapabilityCommuteScorer,
		Action:     ActionAnalyze,
		Payload:    commutePayload(c),
	}
	summaryStep := model.PlanStep{
		Capability: model.CapabilityHousingSummary,
		Action:     ActionSummarize,
		Payload:    map[string]any{"query": query},
	}

	switch c.Intent {
	case model.IntentCommuteAnalysis:
		plan.Steps = []model.PlanStep{commuteStep}
		plan.Rationale = "Commute question: evaluate travel to the destination"
	case model.IntentMarketSummary:
		plan.Steps = []model.PlanStep{summaryStep}
		plan.Rationale = "Market question: summarize rent statistics"
	case model.IntentCombinedSearch:
		commuteStep.Payload["scope"] = "housing_results"
		plan.Steps = []model.PlanStep{searchStep, commuteStep}
		plan.Rationale = "Find matching housing first, then rate the commute of each result"
	default:
		plan.Intent = model.IntentHousingSearch
		plan.Steps = []model.PlanStep{searchStep}
		plan.Rationale = "Housing search: filter and rank listings"
	}

	return plan
}

// ValidatePlan returns advisory warnings. A plan with warnings still executes.
func ValidatePlan(plan model.OrchestrationPlan, c model.IntentClassification, available []string) []string {
	var warnings []string

	if len(available) > 0 {
		avail := make(map[string]bool, len(available))
		for _, a := range available {
			avail[a] = true
		}
		for _, step := range plan.Steps {
			if !avail[step.Capability] {
				warnings = append(warnings, fmt.Sprintf("capability %q is not available", step.Capability))
			}
		}
	}

	if c.Confidence < LowConfidenceCutoff {
		warnings = append(warnings, fmt.Sprintf("low classification confidence (%.2f)", c.Confidence))
	}

	needsDestination := c.Intent == model.IntentCombinedSearch || c.Intent == model.IntentCommuteAnalysis
	if needsDestination && strings.TrimSpace(c.Destination) == "" {
		warnings = append(warnings, fmt.Sprintf("%s requested but no destination was found", c.Intent))
	}

	return warnings
}

// Plan classifies query, builds the plan and attaches warnings
func (o *Orchestrator) Plan(ctx context.Context, query string, available []string) (model.OrchestrationPlan, model.IntentClassification) {
	c := o.Classify(ctx, query)
	plan := BuildPlan(c, query)
	plan.Warnings = ValidatePlan(plan, c, available)

	o.logger.Info("Built orchestration plan",
		zap.String("intent", string(plan.Intent)),
		zap.Float64("confidence", plan.Confidence),
		zap.Strings("capabilities", plan.Capabilities()),
		zap.Strings("warnings", plan.Warnings))

	return plan, c
}

func commutePayload(c model.IntentClassification) map[string]any {
	payload := map[string]any{}
	if c.Origin != "" {
		payload["origin"] = c.Origin
	}
	if c.Destination != "" {
		payload["destination"] = c.Destination
	}
	if c.TravelMode != "" {
		payload["travel_mode"] = c.TravelMode
	}
	return payload
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rentalsearch/internal/model"
)

var allCapabilities = []string{
	model.CapabilityHousingSearch,
	model.CapabilityCommuteScorer,
	model.CapabilityHousingSummary,
}

func newTestOrchestrator(r Reasoner) *Orchestrator {
	return NewOrchestrator(r, time.Second, zap.NewNop())
}

func TestOrchestrator_Classify(t *testing.T) {
	tests := []struct {
		name     string
		reasoner Reasoner
		want     model.IntentClassification
	}{
		{
			name: "market summary",
			reasoner: &fakeReasoner{intent: reply(
				`{"intent": "market_summary", "confidence": 0.92, "reasoning": "asks for statistics"}`)},
			want: model.IntentClassification{
				Intent:     model.IntentMarketSummary,
				Confidence: 0.92,
				Reasoning:  "asks for statistics",
			},
		},
		{
			name: "combined with places",
			reasoner: &fakeReasoner{intent: reply(
				"```json\n" + `{"intent": "Combined_Search", "confidence": 1.4, "destination": " Stanford ", "travel_mode": "transit"}` + "\n```")},
			want: model.IntentClassification{
				Intent:      model.IntentCombinedSearch,
				Confidence:  1,
				Destination: "Stanford",
				TravelMode:  "transit",
			},
		},
		{
			name:     "unknown intent falls back",
			reasoner: &fakeReasoner{intent: reply(`{"intent": "weather", "confidence": 0.99}`)},
			want: model.IntentClassification{
				Intent:     model.IntentHousingSearch,
				Confidence: FallbackConfidence,
			},
		},
		{
			name:     "call failure falls back",
			reasoner: &fakeReasoner{intent: fail()},
			want: model.IntentClassification{
				Intent:     model.IntentHousingSearch,
				Confidence: FallbackConfidence,
			},
		},
		{
			name:     "no reasoner falls back",
			reasoner: nil,
			want: model.IntentClassification{
				Intent:     model.IntentHousingSearch,
				Confidence: FallbackConfidence,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newTestOrchestrator(tt.reasoner).Classify(context.Background(), "some request")
			if tt.want.Reasoning == "" {
				got.Reasoning = ""
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildPlan(t *testing.T) {
	tests := []struct {
		intent model.Intent
		caps   []string
	}{
		{model.IntentHousingSearch, []string{model.CapabilityHousingSearch}},
		{model.IntentCommuteAnalysis, []string{model.CapabilityCommuteScorer}},
		{model.IntentMarketSummary, []string{model.CapabilityHousingSummary}},
		{model.IntentCombinedSearch, []string{model.CapabilityHousingSearch, model.CapabilityCommuteScorer}},
	}

	for _, tt := range tests {
		t.Run(string(tt.intent), func(t *testing.T) {
			plan := BuildPlan(model.IntentClassification{Intent: tt.intent, Confidence: 0.9}, "q")

			assert.Equal(t, tt.intent, plan.Intent)
			assert.Equal(t, tt.caps, plan.Capabilities())
			assert.Equal(t, model.ExecutionSequential, plan.ExecutionOrder)
			assert.NotEmpty(t, plan.Rationale)
			assert.Equal(t, 0.9, plan.Confidence)
		})
	}
}

func TestBuildPlan_CombinedScopesCommuteToResults(t *testing.T) {
	plan := BuildPlan(model.IntentClassification{
		Intent:      model.IntentCombinedSearch,
		Destination: "Stanford",
	}, "2 bed near Stanford")

	require.Len(t, plan.Steps, 2)
	assert.Equal(t, "2 bed near Stanford", plan.Steps[0].Payload["query"])
	assert.Equal(t, "housing_results", plan.Steps[1].Payload["scope"])
	assert.Equal(t, "Stanford", plan.Steps[1].Payload["destination"])
}

func TestValidatePlan(t *testing.T) {
	tests := []struct {
		name      string
		c         model.IntentClassification
		available []string
		want      int
	}{
		{
			name:      "confident market summary",
			c:         model.IntentClassification{Intent: model.IntentMarketSummary, Confidence: 0.9},
			available: allCapabilities,
			want:      0,
		},
		{
			name:      "low confidence",
			c:         model.IntentClassification{Intent: model.IntentHousingSearch, Confidence: 0.5},
			available: allCapabilities,
			want:      1,
		},
		{
			name:      "combined without destination",
			c:         model.IntentClassification{Intent: model.IntentCombinedSearch, Confidence: 0.9},
			available: allCapabilities,
			want:      1,
		},
		{
			name:      "missing capability",
			c:         model.IntentClassification{Intent: model.IntentCommuteAnalysis, Confidence: 0.9, Destination: "x"},
			available: []string{model.CapabilityHousingSearch},
			want:      1,
		},
		{
			name:      "everything wrong",
			c:         model.IntentClassification{Intent: model.IntentCombinedSearch, Confidence: 0.2},
			available: []string{model.CapabilityHousingSummary},
			want:      4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := BuildPlan(tt.c, "q")
			assert.Len(t, ValidatePlan(plan, tt.c, tt.available), tt.want)
		})
	}
}

func TestOrchestrator_Plan(t *testing.T) {
	o := newTestOrchestrator(&fakeReasoner{intent: reply(`{"intent": "market_summary", "confidence": 0.95}`)})

	plan, c := o.Plan(context.Background(), "Show me market summary", allCapabilities)

	assert.Equal(t, model.IntentMarketSummary, c.Intent)
	assert.Equal(t, []string{model.CapabilityHousingSummary}, plan.Capabilities())
	assert.Equal(t, model.ExecutionSequential, plan.ExecutionOrder)
	assert.Empty(t, plan.Warnings)
}

func TestOrchestrator_PlanFallbackStillExecutes(t *testing.T) {
	plan, _ := newTestOrchestrator(nil).Plan(context.Background(), "anything", allCapabilities)

	assert.Equal(t, model.IntentHousingSearch, plan.Intent)
	assert.Equal(t, []string{model.CapabilityHousingSearch}, plan.Capabilities())
	assert.Len(t, plan.Warnings, 1)
}

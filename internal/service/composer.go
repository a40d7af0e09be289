package service

import (
	"math"
	"sort"

	"rentalsearch/internal/model"
)

// RankWeights blends the scoring dimensions of a result
type RankWeights struct {
	Match   float64
	Commute float64
	Walk    float64
}

// DefaultRankWeights favour the housing match over location signals
var DefaultRankWeights = RankWeights{Match: 0.6, Commute: 0.3, Walk: 0.1}

// Composer merges housing matches with commute and walkability scores
type Composer struct {
	weights RankWeights
}

// NewComposer creates a result composer with the given weights
func NewComposer(weights RankWeights) *Composer {
	return &Composer{weights: weights}
}

// Compose annotates copies of matches and orders them by final score, stable.
// commutes is keyed by listing id; listings without an entry are scored without commute.
func (c *Composer) Compose(matches []model.MatchResult, commutes map[string]*model.CommuteAnalysis) []model.MatchResult {
	out := make([]model.MatchResult, len(matches))
	for i, m := range matches {
		annotated := m
		if ca, ok := commutes[m.Listing.ID]; ok && ca != nil {
			copied := *ca
			annotated.Commute = &copied
		}
		if m.Listing.WalkScore != nil {
			walk := *m.Listing.WalkScore
			annotated.WalkScore = &walk
		}
		annotated.FinalScore = c.finalScore(annotated)
		out[i] = annotated
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].FinalScore > out[b].FinalScore
	})
	return out
}

// finalScore is the weighted mean of the dimensions present, on a 0-100 scale
func (c *Composer) finalScore(m model.MatchResult) float64 {
	sum := c.weights.Match * float64(m.MatchPercentage)
	total := c.weights.Match

	if m.Commute != nil {
		sum += c.weights.Commute * float64(m.Commute.Rating*10)
		total += c.weights.Commute
	}
	if m.WalkScore != nil {
		sum += c.weights.Walk * float64(clampPercent(*m.WalkScore))
		total += c.weights.Walk
	}

	if total == 0 {
		return float64(m.MatchPercentage)
	}
	return math.Round(sum/total*100) / 100
}

func clampPercent(v int) int {
	return max(0, min(100, v))
}

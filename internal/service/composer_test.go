package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentalsearch/internal/model"
)

func TestCompose(t *testing.T) {
	matches := []model.MatchResult{
		{Listing: listing("far", 1500), MatchPercentage: 90},
		{Listing: listing("near", 1500, withWalkScore(80)), MatchPercentage: 80},
		{Listing: listing("plain", 1500), MatchPercentage: 70},
	}
	commutes := map[string]*model.CommuteAnalysis{
		"far":  {Rating: 2},
		"near": {Rating: 10},
	}

	got := NewComposer(DefaultRankWeights).Compose(matches, commutes)

	require.Len(t, got, 3)
	// near: (0.6*80 + 0.3*100 + 0.1*80) / 1.0 = 86
	// plain: 70
	// far: (0.6*90 + 0.3*20) / 0.9 = 66.67
	assert.Equal(t, []string{"near", "plain", "far"}, resultIDs(got))
	assert.Equal(t, 86.0, got[0].FinalScore)
	assert.Equal(t, 70.0, got[1].FinalScore)
	assert.Equal(t, 66.67, got[2].FinalScore)
	assert.Equal(t, 80, *got[0].WalkScore)
	assert.Nil(t, got[1].Commute)

	assert.Nil(t, matches[0].Commute, "inputs are not annotated")
	assert.Zero(t, matches[0].FinalScore)
}

func TestCompose_StableOnTies(t *testing.T) {
	matches := []model.MatchResult{
		{Listing: listing("a", 1), MatchPercentage: 100},
		{Listing: listing("b", 1), MatchPercentage: 100},
		{Listing: listing("c", 1), MatchPercentage: 100},
	}

	got := NewComposer(DefaultRankWeights).Compose(matches, nil)

	assert.Equal(t, []string{"a", "b", "c"}, resultIDs(got))
	for _, r := range got {
		assert.Equal(t, 100.0, r.FinalScore)
	}
}

func TestCompose_WalkScoreClamped(t *testing.T) {
	matches := []model.MatchResult{{Listing: listing("a", 1, withWalkScore(150)), MatchPercentage: 100}}

	got := NewComposer(RankWeights{Match: 0.5, Walk: 0.5}).Compose(matches, nil)

	assert.Equal(t, 100.0, got[0].FinalScore)
}

func TestCompose_ZeroWeights(t *testing.T) {
	matches := []model.MatchResult{{Listing: listing("a", 1), MatchPercentage: 42}}

	got := NewComposer(RankWeights{}).Compose(matches, nil)

	assert.Equal(t, 42.0, got[0].FinalScore)
}

package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rentalsearch/internal/model"
)

func newTestScorer(t *testing.T, r Reasoner, groups int) *SemanticScorer {
	t.Helper()
	s, err := NewSemanticScorer(r, ScorerConfig{Groups: groups, CallTimeout: time.Second}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(s.Release)
	return s
}

func TestScore_ThresholdSortAndLimit(t *testing.T) {
	listings := numbered(10, 1500)
	r := &fakeReasoner{score: scoreByTitle(map[string]int{
		"Listing l00": 65,
		"Listing l03": 95,
		"Listing l05": 59,
		"Listing l07": 80,
		"Listing l09": 120,
	})}
	s := newTestScorer(t, r, 5)

	got, stats := s.ScoreWithStats(context.Background(), listings, "quiet place", 3)

	assert.Equal(t, []string{"l09", "l03", "l07"}, resultIDs(got))
	assert.Equal(t, []int{100, 95, 80}, []int{got[0].MatchPercentage, got[1].MatchPercentage, got[2].MatchPercentage})
	assert.Equal(t, "95% match: fits Listing l03", got[1].Rationale)
	assert.EqualValues(t, 5, r.calls.Load(), "one call per group")
	assert.Equal(t, 5, stats.Calls)
	assert.Equal(t, 5, stats.Outcomes[groupOK])
	assert.Equal(t, 1, stats.Discarded)
	assert.Equal(t, 3, stats.Kept)
}

func TestScore_DefaultMaxResults(t *testing.T) {
	scores := map[string]int{}
	for _, l := range numbered(10, 1500) {
		scores[l.Title] = 90
	}
	s := newTestScorer(t, &fakeReasoner{score: scoreByTitle(scores)}, 5)

	got := s.Score(context.Background(), numbered(10, 1500), "anything", 0)

	assert.Len(t, got, DefaultMaxResults)
	assert.Equal(t, []string{"l00", "l01", "l02", "l03", "l04"}, resultIDs(got), "ties keep group order")
}

func TestScore_FailedGroupsContributeNothing(t *testing.T) {
	listings := numbered(10, 1500)
	scoreAll := scoreByTitle(map[string]int{"Listing l01": 70, "Listing l08": 90})
	r := &fakeReasoner{score: func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "Listing l08"):
			return "", errFakeReasoner
		case strings.Contains(prompt, "Listing l04"):
			panic("boom")
		case strings.Contains(prompt, "Listing l06"):
			return "no array here", nil
		}
		return scoreAll(prompt)
	}}
	s := newTestScorer(t, r, 5)

	got, stats := s.ScoreWithStats(context.Background(), listings, "quiet", 5)

	assert.Equal(t, []string{"l01"}, resultIDs(got))
	assert.Equal(t, 2, stats.Outcomes[groupOK])
	assert.Equal(t, 2, stats.Outcomes[groupCallError])
	assert.Equal(t, 1, stats.Outcomes[groupParseError])
}

func TestScore_AllGroupsFail(t *testing.T) {
	s := newTestScorer(t, &fakeReasoner{score: fail()}, 5)

	got := s.Score(context.Background(), numbered(7, 1500), "quiet", 5)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestScore_NoCandidates(t *testing.T) {
	r := &fakeReasoner{score: reply("[]")}
	s := newTestScorer(t, r, 5)

	assert.Empty(t, s.Score(context.Background(), nil, "quiet", 5))
	assert.Zero(t, r.calls.Load())
}

func TestScore_DuplicateAndOutOfRangeIndexes(t *testing.T) {
	r := &fakeReasoner{score: reply(`[
		{"index": 1, "score": 90, "reason": "first"},
		{"index": 1, "score": 99, "reason": "again"},
		{"index": 0, "score": 99},
		{"index": 3, "score": 99}
	]`)}
	s := newTestScorer(t, r, 1)

	got, stats := s.ScoreWithStats(context.Background(), numbered(2, 1500), "quiet", 5)

	require.Len(t, got, 1)
	assert.Equal(t, "l00", got[0].Listing.ID)
	assert.Equal(t, 90, got[0].MatchPercentage)
	assert.Equal(t, 3, stats.Discarded)
}

func TestScore_TiesKeepCandidateOrder(t *testing.T) {
	r := &fakeReasoner{score: reply(`[
		{"index": 3, "score": 80, "reason": "c"},
		{"index": 1, "score": 80, "reason": "a"}
	]`)}
	s := newTestScorer(t, r, 1)

	got := s.Score(context.Background(), numbered(3, 1500), "quiet", 5)

	assert.Equal(t, []string{"l00", "l02"}, resultIDs(got))
}

func TestScore_RawValuesChecked(t *testing.T) {
	tests := []struct {
		name          string
		reply         string
		wantIDs       []string
		wantPct       int
		wantDiscarded int
	}{
		{
			name:          "score just under the floor",
			reply:         `[{"index": 1, "score": 59.5, "reason": "almost"}]`,
			wantIDs:       []string{},
			wantDiscarded: 1,
		},
		{
			name:          "fractional index",
			reply:         `[{"index": 1.5, "score": 90}]`,
			wantIDs:       []string{},
			wantDiscarded: 1,
		},
		{
			name:    "fractional score above the floor rounds",
			reply:   `[{"index": 2, "score": 60.4, "reason": "ok"}]`,
			wantIDs: []string{"l01"},
			wantPct: 60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScorer(t, &fakeReasoner{score: reply(tt.reply)}, 1)

			got, stats := s.ScoreWithStats(context.Background(), numbered(2, 1500), "quiet", 5)

			assert.Equal(t, tt.wantIDs, resultIDs(got))
			assert.Equal(t, tt.wantDiscarded, stats.Discarded)
			if len(got) > 0 {
				assert.Equal(t, tt.wantPct, got[0].MatchPercentage)
			}
		})
	}
}

func TestScore_ConcurrentCallers(t *testing.T) {
	scores := map[string]int{"Listing l02": 88}
	s := newTestScorer(t, &fakeReasoner{score: scoreByTitle(scores)}, 5)

	var wg sync.WaitGroup
	results := make([][]model.MatchResult, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.Score(context.Background(), numbered(10, 1500), "quiet", 5)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, []string{"l02"}, resultIDs(got))
	}
}

func TestPartition(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		count int
		sizes []int
	}{
		{name: "even", n: 10, count: 5, sizes: []int{2, 2, 2, 2, 2}},
		{name: "uneven omits empty tail", n: 12, count: 5, sizes: []int{3, 3, 3, 3}},
		{name: "fewer listings than groups", n: 3, count: 5, sizes: []int{1, 1, 1}},
		{name: "single group", n: 4, count: 1, sizes: []int{4}},
		{name: "empty", n: 0, count: 5, sizes: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listings := numbered(tt.n, 1000)
			groups := partition(listings, tt.count)

			var sizes []int
			var flat []model.Listing
			for _, g := range groups {
				sizes = append(sizes, len(g))
				flat = append(flat, g...)
			}
			assert.Equal(t, tt.sizes, sizes)
			assert.Equal(t, ids(listings), ids(flat), "groups are contiguous and cover the input")
		})
	}
}

func TestBuildScorePrompt(t *testing.T) {
	group := []model.Listing{
		listing("a", 1800, func(l *model.Listing) {
			l.Location = "Mission"
			l.Description = strings.Repeat("sunny ", 100)
		}),
		listing("b", 2100, withPrivateRoom(true)),
	}

	prompt := buildScorePrompt("quiet and sunny", group, 50)

	assert.Contains(t, prompt, `User query: "quiet and sunny"`)
	assert.Contains(t, prompt, "1. Listing a\n   Price: $1800/month | Location: Mission")
	assert.Contains(t, prompt, "2. Listing b\n   Price: $2100/month | Private room: yes")
	assert.NotContains(t, prompt, strings.Repeat("sunny ", 20))
}

package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"rentalsearch/internal/metrics"
	"rentalsearch/internal/model"
	"rentalsearch/internal/utils"
)

// Semantic scorer defaults
const (
	DefaultScoreGroups      = 5
	DefaultMinSemanticScore = 60
	DefaultMaxResults       = 5
	defaultDescriptionChars = 300
)

// Group outcomes, used for stats and metric labels
const (
	groupOK         = "ok"
	groupCallError  = "call_error"
	groupParseError = "parse_error"
	groupPanic      = "panic"
)

// ScorerConfig tunes the semantic scorer
type ScorerConfig struct {
	Groups              int           // number of contiguous groups, one reasoning call each
	PoolSize            int           // concurrent group calls; defaults to Groups
	MinScore            int           // entries below this never appear in output
	DescriptionMaxChars int           // description truncation per listing in the prompt
	CallTimeout         time.Duration // per group call
	DefaultMaxResults   int
}

// ScoreStats is merged from per-group accumulators after all groups finish
type ScoreStats struct {
	Groups    int            `json:"groups"`
	Calls     int            `json:"calls"`
	Outcomes  map[string]int `json:"outcomes"`
	Kept      int            `json:"kept"`
	Discarded int            `json:"discarded"`
}

type groupResult struct {
	matches   []model.MatchResult
	outcome   string
	discarded int
}

type scoreEntry struct {
	Index  float64 `json:"index"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// SemanticScorer scores candidate listings against a natural-language query
// by fanning contiguous groups out to concurrent reasoning calls.
type SemanticScorer struct {
	reasoner Reasoner
	pool     *ants.Pool
	cfg      ScorerConfig
	logger   *zap.Logger
}

// NewSemanticScorer creates a scorer with its own worker pool. Call Release when done.
func NewSemanticScorer(reasoner Reasoner, cfg ScorerConfig, logger *zap.Logger) (*SemanticScorer, error) {
	if cfg.Groups <= 0 {
		cfg.Groups = DefaultScoreGroups
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = cfg.Groups
	}
	if cfg.MinScore <= 0 {
		cfg.MinScore = DefaultMinSemanticScore
	}
	if cfg.DescriptionMaxChars <= 0 {
		cfg.DescriptionMaxChars = defaultDescriptionChars
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	if cfg.DefaultMaxResults <= 0 {
		cfg.DefaultMaxResults = DefaultMaxResults
	}

	pool, err := ants.NewPool(cfg.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create scorer pool: %w", err)
	}

	return &SemanticScorer{
		reasoner: reasoner,
		pool:     pool,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Release frees the worker pool. The scorer must not be used afterwards.
func (s *SemanticScorer) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// Score returns at most maxResults matches, sorted by match percentage descending.
// Failed groups contribute nothing; an empty result is a valid outcome.
func (s *SemanticScorer) Score(ctx context.Context, listings []model.Listing, query string, maxResults int) []model.MatchResult {
	results, _ := s.ScoreWithStats(ctx, listings, query, maxResults)
	return results
}

// ScoreWithStats is Score plus merged per-group stats
func (s *SemanticScorer) ScoreWithStats(
	ctx context.Context,
	listings []model.Listing,
	query string,
	maxResults int,
) ([]model.MatchResult, ScoreStats) {
	if maxResults <= 0 {
		maxResults = s.cfg.DefaultMaxResults
	}

	groups := partition(listings, s.cfg.Groups)
	stats := ScoreStats{
		Groups:   s.cfg.Groups,
		Calls:    len(groups),
		Outcomes: make(map[string]int),
	}
	if len(groups) == 0 {
		return []model.MatchResult{}, stats
	}

	// Each task writes only its own slot; no locking needed.
	perGroup := make([]groupResult, len(groups))
	var wg sync.WaitGroup

	for i, group := range groups {
		i, group := i, group
		wg.Add(1)
		task := func() {
			defer wg.Done()
			perGroup[i] = s.scoreGroup(ctx, i, group, query)
		}
		if err := s.pool.Submit(task); err != nil {
			s.logger.Warn("Scorer pool rejected task, running inline", zap.Int("group", i), zap.Error(err))
			go task()
		}
	}
	wg.Wait()

	merged := make([]model.MatchResult, 0, len(listings))
	for _, gr := range perGroup {
		stats.Outcomes[gr.outcome]++
		stats.Discarded += gr.discarded
		metrics.ScorerGroupsTotal.WithLabelValues(gr.outcome).Inc()
		merged = append(merged, gr.matches...)
	}

	sort.SliceStable(merged, func(a, b int) bool {
		return merged[a].MatchPercentage > merged[b].MatchPercentage
	})
	if len(merged) > maxResults {
		merged = merged[:maxResults]
	}
	stats.Kept = len(merged)

	s.logger.Debug("Semantic scoring finished",
		zap.Int("candidates", len(listings)),
		zap.Int("calls", stats.Calls),
		zap.Any("outcomes", stats.Outcomes),
		zap.Int("kept", stats.Kept))

	return merged, stats
}

// scoreGroup runs one reasoning call. Every failure, panics included, becomes an empty result.
func (s *SemanticScorer) scoreGroup(ctx context.Context, idx int, group []model.Listing, query string) (res groupResult) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("Scoring group panicked", zap.Int("group", idx), zap.Any("panic", rec))
			res = groupResult{outcome: groupPanic}
		}
	}()

	prompt := buildScorePrompt(query, group, s.cfg.DescriptionMaxChars)
	text, err := callReasoner(ctx, s.reasoner, purposeScore, prompt, s.cfg.CallTimeout, s.logger)
	if err != nil {
		return groupResult{outcome: groupCallError}
	}

	var entries []scoreEntry
	if err := utils.ParseAIArray(text, &entries); err != nil {
		s.logger.Warn("Scoring reply carried no usable JSON array",
			zap.Int("group", idx),
			zap.String("reply", utils.Truncate(text, 200)),
			zap.Error(err))
		return groupResult{outcome: groupParseError}
	}

	res.outcome = groupOK
	seen := make(map[int]bool, len(entries))
	positions := make([]int, 0, len(entries))
	for _, e := range entries {
		if e.Index != math.Trunc(e.Index) || e.Score < float64(s.cfg.MinScore) {
			res.discarded++
			continue
		}
		index := int(e.Index)
		if index < 1 || index > len(group) || seen[index] {
			res.discarded++
			continue
		}
		seen[index] = true
		score := int(math.Round(e.Score))
		if score > 100 {
			score = 100
		}

		positions = append(positions, index)
		res.matches = append(res.matches, model.MatchResult{
			Listing:         group[index-1],
			MatchPercentage: score,
			Rationale:       semanticRationale(score, e.Reason),
		})
	}

	// Candidate order, so equal scores keep the pool order after the merge sort
	sort.Sort(byPosition{positions: positions, matches: res.matches})
	return res
}

type byPosition struct {
	positions []int
	matches   []model.MatchResult
}

func (b byPosition) Len() int           { return len(b.positions) }
func (b byPosition) Less(i, j int) bool { return b.positions[i] < b.positions[j] }
func (b byPosition) Swap(i, j int) {
	b.positions[i], b.positions[j] = b.positions[j], b.positions[i]
	b.matches[i], b.matches[j] = b.matches[j], b.matches[i]
}

// partition splits listings into at most n contiguous groups of ceil(len/n).
// Groups that would be empty are not returned.
func partition(listings []model.Listing, n int) [][]model.Listing {
	if len(listings) == 0 || n <= 0 {
		return nil
	}
	size := (len(listings) + n - 1) / n

	groups := make([][]model.Listing, 0, n)
	for g := 0; g < n; g++ {
		start := g * size
		if start >= len(listings) {
			break
		}
		end := min(start+size, len(listings))
		groups = append(groups, listings[start:end])
	}
	return groups
}

func semanticRationale(score int, reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fmt.Sprintf("%d%% match", score)
	}
	return fmt.Sprintf("%d%% match: %s", score, reason)
}

package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"rentalsearch/internal/cache"
	"rentalsearch/internal/config"
	"rentalsearch/internal/metrics"
	"rentalsearch/internal/service"
)

// BuildReasoner assembles the reasoning chain: OpenAI -> Redis cache (optional).
// The returned func closes the cache connection.
func BuildReasoner(cfg *config.Config, logger *zap.Logger) (service.Reasoner, func()) {
	noop := func() {}
	client := service.NewOpenAIClient(&cfg.OpenAI, logger)
	if !client.IsEnabled() {
		logger.Warn("OpenAI is disabled: queries fall back to unfiltered deterministic search",
			zap.String("hint", "set OPENAI_API_KEY to enable language reasoning"))
		return nil, noop
	}

	logger.Info("OpenAI client initialized",
		zap.String("api_base", cfg.OpenAI.APIBase),
		zap.String("chat_model", cfg.OpenAI.ChatModel),
		zap.Float64("temperature", cfg.OpenAI.ChatTemperature),
		zap.Int("max_tokens", cfg.OpenAI.ChatMaxTokens))

	if !cfg.Redis.Enabled {
		return client, noop
	}

	redisStore, err := cache.NewRedisStore(cache.Config{
		Addrs:    cfg.Redis.Addrs,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Warn("Reasoning cache disabled", zap.Error(err))
		return client, noop
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := redisStore.Ping(pingCtx); err != nil {
		logger.Warn("Reasoning cache unreachable, continuing without it", zap.Error(err))
		redisStore.Close()
		return client, noop
	}

	logger.Info("Reasoning cache enabled", zap.Strings("addrs", cfg.Redis.Addrs))
	cached := service.NewCachedReasoner(
		client,
		redisStore,
		client.Model(),
		time.Duration(cfg.Redis.TTLSeconds)*time.Second,
		metrics.ReasonerCacheTotal,
		logger,
	)
	return cached, redisStore.Close
}

// BuildSearchService wires the query pipeline. The returned cleanup releases
// worker pools and the reasoning cache connection.
func BuildSearchService(
	cfg *config.Config,
	pool service.ListingPool,
	logger *zap.Logger,
	opts ...service.Option,
) (*service.SearchService, func(), error) {
	reasoner, closeReasoner := BuildReasoner(cfg, logger)
	callTimeout := time.Duration(cfg.Search.ReasonerTimeoutSecs) * time.Second

	extractor := service.NewCriteriaExtractor(reasoner, callTimeout, logger)
	orchestrator := service.NewOrchestrator(reasoner, callTimeout, logger)
	composer := service.NewComposer(service.RankWeights{
		Match:   cfg.Ranking.WeightMatch,
		Commute: cfg.Ranking.WeightCommute,
		Walk:    cfg.Ranking.WeightWalk,
	})

	scorer, err := service.NewSemanticScorer(reasoner, service.ScorerConfig{
		Groups:              cfg.Search.ScoreGroups,
		PoolSize:            cfg.Search.ScorerPoolSize,
		MinScore:            cfg.Search.MinSemanticScore,
		DescriptionMaxChars: cfg.Search.DescriptionMaxChars,
		CallTimeout:         callTimeout,
		DefaultMaxResults:   cfg.Search.DefaultMaxResults,
	}, logger)
	if err != nil {
		closeReasoner()
		return nil, nil, err
	}

	var primary service.CommuteScorer
	if cfg.Commute.Enabled {
		primary = service.NewDistanceMatrixScorer(
			cfg.Commute.APIBase,
			cfg.Commute.APIKey,
			cfg.Commute.DefaultMode,
			time.Duration(cfg.Commute.TimeoutSecs)*time.Second,
		)
	} else {
		logger.Warn("Commute routing disabled: commute ratings are synthetic estimates")
	}
	commute := service.NewFallbackScorer(primary, service.NewSyntheticScorer(cfg.Commute.FallbackMeters), logger)

	svc, err := service.NewSearchService(
		pool,
		extractor,
		scorer,
		composer,
		orchestrator,
		commute,
		service.SearchSettings{
			DefaultMaxResults:     cfg.Search.DefaultMaxResults,
			MaxResultsLimit:       cfg.Search.MaxResultsLimit,
			DeterministicCap:      cfg.Search.DeterministicCap,
			AvailableCapabilities: cfg.Search.AvailableCapabilities,
			DefaultTravelMode:     cfg.Commute.DefaultMode,
			CommuteConcurrency:    cfg.Commute.MaxConcurrency,
		},
		logger,
		opts...,
	)
	if err != nil {
		scorer.Release()
		closeReasoner()
		return nil, nil, err
	}

	cleanup := func() {
		svc.Release()
		closeReasoner()
	}
	return svc, cleanup, nil
}

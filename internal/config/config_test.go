package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t, "LISTING_SOURCE", "SCORER_GROUPS", "OPENAI_API_KEY", "COMMUTE_API_KEY",
		"REDIS_ADDRS", "AVAILABLE_CAPABILITIES", "SEARCH_DETERMINISTIC_CAP", "METRICS_ENABLED",
		"RANK_WEIGHT_MATCH", "DATABASE_URL", "POSTGRESQL_URI", "PG_DSN")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SourcePostgres, cfg.Source.Kind)
	assert.Equal(t, 5, cfg.Search.ScoreGroups)
	assert.Equal(t, 10, cfg.Search.DeterministicCap)
	assert.Equal(t, 60, cfg.Search.MinSemanticScore)
	assert.Equal(t, []string{"housing_search", "commute_scorer", "housing_summary"}, cfg.Search.AvailableCapabilities)
	assert.Equal(t, 0.6, cfg.Ranking.WeightMatch)
	assert.True(t, cfg.Server.MetricsEnabled)
	assert.False(t, cfg.OpenAI.Enabled)
	assert.False(t, cfg.Commute.Enabled)
	assert.False(t, cfg.Redis.Enabled)
	assert.Nil(t, cfg.Redis.Addrs)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LISTING_SOURCE", "FILE")
	t.Setenv("LISTING_FILE", "/tmp/snap.yaml")
	t.Setenv("SCORER_GROUPS", "3")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("REDIS_ADDRS", "redis-a:6379, redis-b:6379")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("RANK_WEIGHT_WALK", "0.25")
	t.Setenv("SEARCH_MAX_RESULTS_LIMIT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SourceFile, cfg.Source.Kind)
	assert.Equal(t, "/tmp/snap.yaml", cfg.Source.FilePath)
	assert.Equal(t, 3, cfg.Search.ScoreGroups)
	assert.True(t, cfg.OpenAI.Enabled)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"redis-a:6379", "redis-b:6379"}, cfg.Redis.Addrs)
	assert.False(t, cfg.Server.MetricsEnabled)
	assert.Equal(t, 0.25, cfg.Ranking.WeightWalk)
	assert.Equal(t, 50, cfg.Search.MaxResultsLimit, "invalid values fall back to the default")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Source: SourceConfig{Kind: SourceFile},
			Search: SearchConfig{ScoreGroups: 5, DefaultMaxResults: 5},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown source", mutate: func(c *Config) { c.Source.Kind = "s3" }, wantErr: true},
		{name: "zero groups", mutate: func(c *Config) { c.Search.ScoreGroups = 0 }, wantErr: true},
		{name: "zero max results", mutate: func(c *Config) { c.Search.DefaultMaxResults = 0 }, wantErr: true},
		{name: "negative weight", mutate: func(c *Config) { c.Ranking.WeightCommute = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetPostgreSQLDSN(t *testing.T) {
	cfg := &Config{PostgreSQL: PostgreSQLConfig{
		Host: "db", Port: 5433, User: "u", Password: "p", Database: "rent", SSLMode: "disable",
	}}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=rent sslmode=disable", cfg.GetPostgreSQLDSN())

	cfg.PostgreSQL.DSN = "postgres://x"
	assert.Equal(t, "postgres://x", cfg.GetPostgreSQLDSN())
}

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/warren/internal/allocation"
	"github.com/dyluth/warren/pkg/kv"
	"github.com/dyluth/warren/pkg/scenario"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, "warren.yml", `version: "1.0"
survey:
  group: "B"
  order: [6, 0]
  pool_tag: "ALT"
  default_b: 0
  amount: 50000
storage:
  backend: "sqlite"
  path: "responses.db"
ingest:
  url: "https://collect.example.com"
`)

	config, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "1.0", config.Version)
	assert.Equal(t, "B", config.Survey.Group)
	assert.Equal(t, 0, *config.Survey.DefaultB)
	assert.Equal(t, 50000.0, config.Survey.Amount)
	assert.Equal(t, "USD", config.Survey.Currency)
	assert.Equal(t, BackendSQLite, config.Storage.Backend)
	assert.Equal(t, "responses.db", config.Storage.Path)
	assert.Equal(t, kv.DefaultStorageName, config.Storage.Name)
	assert.Equal(t, DefaultSecretEnv, config.Ingest.SecretEnv)
	assert.Equal(t, 30, config.Ingest.TimeoutSeconds)

	opts := config.Survey.ScenarioOptions()
	assert.Equal(t, scenario.GroupB, opts.GroupKey)
	assert.Equal(t, scenario.OrderHighFirst, opts.BlockOrder)
	assert.Equal(t, scenario.Tag("ALT"), opts.StorageTag)
}

func TestLoad_TOML(t *testing.T) {
	configPath := writeConfig(t, "warren.toml", `version = "1.0"

[survey]
group = "C"
require_reason_on_confirm = true

[storage]
backend = "redis"
redis_addr = "redis:6379"
`)

	config, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "C", config.Survey.Group)
	assert.True(t, config.Survey.ReasonAll)
	assert.True(t, config.Survey.Policy().RequireReasonOnConfirm)
	assert.Equal(t, "redis:6379", config.Storage.RedisAddr)
}

func TestLoad_FileNotFound(t *testing.T) {
	config, err := Load("/nonexistent/warren.yml")
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "warren.yml", `version: "1.0"
survey:
  - this is invalid
    yaml syntax
`)

	config, err := Load(configPath)
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoad_InvalidTOML(t *testing.T) {
	configPath := writeConfig(t, "warren.toml", "version = \n")

	_, err := Load(configPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse TOML")
}

func TestDefault(t *testing.T) {
	config := Default()
	assert.Equal(t, BackendMemory, config.Storage.Backend)
	assert.Equal(t, allocation.DefaultValue, *config.Survey.DefaultB)
	assert.Equal(t, allocation.DefaultAmount, config.Survey.Amount)
	assert.Equal(t, []string{"BASE"}, config.Survey.ReasonTags)

	opts := config.Survey.ScenarioOptions()
	assert.Empty(t, opts.GroupKey)
	assert.Equal(t, scenario.BlockOrder{}, opts.BlockOrder)

	policy := config.Survey.Policy()
	assert.False(t, policy.RequireReasonOnConfirm)
	assert.Equal(t, []scenario.Tag{scenario.TagBase}, policy.ReasonTags)
}

func TestValidate_Errors(t *testing.T) {
	bad := func(v int) *int { return &v }

	tests := []struct {
		name    string
		config  WarrenConfig
		wantErr string
	}{
		{"unsupported version", WarrenConfig{Version: "2.0"}, "unsupported version: 2.0"},
		{"unknown group", WarrenConfig{Version: "1.0", Survey: &SurveyConfig{Group: "D"}}, "survey.group"},
		{"short order", WarrenConfig{Version: "1.0", Survey: &SurveyConfig{Order: []int{0}}}, "two entries"},
		{"bad order", WarrenConfig{Version: "1.0", Survey: &SurveyConfig{Order: []int{0, 0}}}, "survey.order"},
		{"default_b too high", WarrenConfig{Version: "1.0", Survey: &SurveyConfig{DefaultB: bad(101)}}, "default_b"},
		{"reserved pool tag", WarrenConfig{Version: "1.0", Survey: &SurveyConfig{PoolTag: "SANITY"}}, "survey.pool_tag"},
		{"negative amount", WarrenConfig{Version: "1.0", Survey: &SurveyConfig{Amount: -1}}, "survey.amount"},
		{"unknown backend", WarrenConfig{Version: "1.0", Storage: &StorageConfig{Backend: "etcd"}}, "invalid storage.backend"},
		{"bad url", WarrenConfig{Version: "1.0", Ingest: &IngestConfig{URL: "ftp://x"}}, "ingest.url"},
		{"negative timeout", WarrenConfig{Version: "1.0", Ingest: &IngestConfig{TimeoutSeconds: -5}}, "timeout_seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStorageDefaults(t *testing.T) {
	redisCfg := &StorageConfig{Backend: BackendRedis}
	require.NoError(t, redisCfg.Validate())
	assert.Equal(t, "localhost:6379", redisCfg.RedisAddr)

	sqliteCfg := &StorageConfig{Backend: BackendSQLite}
	require.NoError(t, sqliteCfg.Validate())
	assert.Equal(t, "warren.db", sqliteCfg.Path)
}

func TestStorageOpen(t *testing.T) {
	ctx := context.Background()

	memory := &StorageConfig{Backend: BackendMemory}
	store, err := memory.Open()
	require.NoError(t, err)
	assert.Nil(t, store)

	sqliteCfg := &StorageConfig{Backend: BackendSQLite, Path: filepath.Join(t.TempDir(), "warren.db")}
	store, err = sqliteCfg.Open()
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "k", "v"))
	require.NoError(t, store.Close())

	mr := miniredis.RunT(t)
	redisCfg := &StorageConfig{Backend: BackendRedis, RedisAddr: mr.Addr()}
	store, err = redisCfg.Open()
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Ping(ctx))
}

func TestSessionConfig(t *testing.T) {
	config := Default()
	config.Survey.Group = "A"

	cfg := config.SessionConfig("resp-9", "12345")
	assert.Equal(t, "resp-9", cfg.ID)
	assert.Equal(t, "12345", cfg.Seed)
	assert.Equal(t, scenario.GroupA, cfg.Options.GroupKey)
	assert.Equal(t, kv.DefaultStorageName, cfg.StorageName)
	require.NotNil(t, cfg.DefaultValue)
	assert.Equal(t, allocation.DefaultValue, *cfg.DefaultValue)
}

func TestIngestSecret(t *testing.T) {
	t.Setenv("WARREN_TEST_SECRET", "shh")
	i := &IngestConfig{SecretEnv: "WARREN_TEST_SECRET"}
	require.NoError(t, i.Validate())
	assert.Equal(t, "shh", i.Secret())
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"github.com/dyluth/warren/internal/allocation"
	"github.com/dyluth/warren/internal/followup"
	"github.com/dyluth/warren/internal/session"
	"github.com/dyluth/warren/pkg/kv"
	"github.com/dyluth/warren/pkg/scenario"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// DefaultSecretEnv names the variable holding the ingestion secret.
const DefaultSecretEnv = "INGEST_SECRET"

// WarrenConfig represents the top-level warren.yml configuration
type WarrenConfig struct {
	Version string         `yaml:"version" toml:"version"`
	Survey  *SurveyConfig  `yaml:"survey,omitempty" toml:"survey,omitempty"`
	Storage *StorageConfig `yaml:"storage,omitempty" toml:"storage,omitempty"`
	Ingest  *IngestConfig  `yaml:"ingest,omitempty" toml:"ingest,omitempty"`
}

// SurveyConfig tunes flow construction and the allocation screens
type SurveyConfig struct {
	Group       string   `yaml:"group,omitempty" toml:"group,omitempty"` // A, B, C or empty for seeded
	Order       []int    `yaml:"order,omitempty" toml:"order,omitempty"` // [0, 6], [6, 0] or empty for seeded
	PoolTag     string   `yaml:"pool_tag,omitempty" toml:"pool_tag,omitempty"`
	DefaultB    *int     `yaml:"default_b,omitempty" toml:"default_b,omitempty"`
	Amount      float64  `yaml:"amount,omitempty" toml:"amount,omitempty"`
	Currency    string   `yaml:"currency,omitempty" toml:"currency,omitempty"`
	ReasonTags  []string `yaml:"reason_tags,omitempty" toml:"reason_tags,omitempty"`
	ReasonAll   bool     `yaml:"require_reason_on_confirm,omitempty" toml:"require_reason_on_confirm,omitempty"`
	AcceptAdmin bool     `yaml:"accept_admin_commands,omitempty" toml:"accept_admin_commands,omitempty"`
}

// StorageConfig selects where sessions are kept
type StorageConfig struct {
	Backend   string `yaml:"backend,omitempty" toml:"backend,omitempty"` // memory, redis or sqlite
	RedisAddr string `yaml:"redis_addr,omitempty" toml:"redis_addr,omitempty"`
	RedisDB   int    `yaml:"redis_db,omitempty" toml:"redis_db,omitempty"`
	Path      string `yaml:"path,omitempty" toml:"path,omitempty"` // SQLite database file
	Name      string `yaml:"name,omitempty" toml:"name,omitempty"` // row collection name
}

// IngestConfig points at the collection endpoint
type IngestConfig struct {
	URL            string `yaml:"url,omitempty" toml:"url,omitempty"`
	SecretEnv      string `yaml:"secret_env,omitempty" toml:"secret_env,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty" toml:"timeout_seconds,omitempty"`
}

// Default returns the validated configuration used when no file is given.
func Default() *WarrenConfig {
	c := &WarrenConfig{Version: "1.0"}
	if err := c.Validate(); err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return c
}

// Validate performs strict validation on the configuration and fills in
// defaults for omitted sections
func (c *WarrenConfig) Validate() error {
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if c.Survey == nil {
		c.Survey = &SurveyConfig{}
	}
	if err := c.Survey.Validate(); err != nil {
		return err
	}

	if c.Storage == nil {
		c.Storage = &StorageConfig{}
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}

	if c.Ingest == nil {
		c.Ingest = &IngestConfig{}
	}
	return c.Ingest.Validate()
}

// Validate checks the survey section and applies its defaults
func (s *SurveyConfig) Validate() error {
	if s.Group != "" {
		if err := scenario.GroupKey(s.Group).Validate(); err != nil {
			return fmt.Errorf("survey.group: %w", err)
		}
	}
	if len(s.Order) > 0 {
		if len(s.Order) != 2 {
			return fmt.Errorf("survey.order must have two entries, got %d", len(s.Order))
		}
		if err := (scenario.BlockOrder{s.Order[0], s.Order[1]}).Validate(); err != nil {
			return fmt.Errorf("survey.order: %w", err)
		}
	}
	if s.PoolTag == "" {
		s.PoolTag = string(scenario.TagPool)
	}
	if err := scenario.Tag(s.PoolTag).ValidatePoolTag(); err != nil {
		return fmt.Errorf("survey.pool_tag: %w", err)
	}
	if s.DefaultB == nil {
		v := allocation.DefaultValue
		s.DefaultB = &v
	}
	if *s.DefaultB < 0 || *s.DefaultB > 100 {
		return fmt.Errorf("survey.default_b must be between 0 and 100, got %d", *s.DefaultB)
	}
	if s.Amount == 0 {
		s.Amount = allocation.DefaultAmount
	}
	if s.Amount < 0 {
		return fmt.Errorf("survey.amount must be positive, got %v", s.Amount)
	}
	if s.Currency == "" {
		s.Currency = "USD"
	}
	if s.ReasonTags == nil {
		s.ReasonTags = []string{string(scenario.TagBase)}
	}
	return nil
}

// Validate checks the storage section and applies its defaults
func (s *StorageConfig) Validate() error {
	if s.Backend == "" {
		s.Backend = BackendMemory
	}
	switch s.Backend {
	case BackendMemory:
	case BackendRedis:
		if s.RedisAddr == "" {
			s.RedisAddr = "localhost:6379"
		}
	case BackendSQLite:
		if s.Path == "" {
			s.Path = "warren.db"
		}
	default:
		return fmt.Errorf("invalid storage.backend: %s (must be 'memory', 'redis' or 'sqlite')", s.Backend)
	}
	if s.Name == "" {
		s.Name = kv.DefaultStorageName
	}
	return nil
}

// Validate checks the ingest section and applies its defaults
func (i *IngestConfig) Validate() error {
	if i.URL != "" && !strings.HasPrefix(i.URL, "http://") && !strings.HasPrefix(i.URL, "https://") {
		return fmt.Errorf("ingest.url must be an http(s) URL, got %q", i.URL)
	}
	if i.SecretEnv == "" {
		i.SecretEnv = DefaultSecretEnv
	}
	if i.TimeoutSeconds == 0 {
		i.TimeoutSeconds = 30
	}
	if i.TimeoutSeconds < 0 {
		return fmt.Errorf("ingest.timeout_seconds must be positive, got %d", i.TimeoutSeconds)
	}
	return nil
}

// Secret reads the ingestion secret from the configured variable.
func (i *IngestConfig) Secret() string {
	return os.Getenv(i.SecretEnv)
}

// ScenarioOptions converts the survey section into flow builder options.
func (s *SurveyConfig) ScenarioOptions() scenario.Options {
	opts := scenario.Options{
		GroupKey:   scenario.GroupKey(s.Group),
		StorageTag: scenario.Tag(s.PoolTag),
	}
	if len(s.Order) == 2 {
		opts.BlockOrder = scenario.BlockOrder{s.Order[0], s.Order[1]}
	}
	return opts
}

// Policy converts the survey section into the follow-up policy.
func (s *SurveyConfig) Policy() followup.Policy {
	p := followup.Policy{RequireReasonOnConfirm: s.ReasonAll, ReasonTags: []scenario.Tag{}}
	for _, t := range s.ReasonTags {
		p.ReasonTags = append(p.ReasonTags, scenario.Tag(t))
	}
	return p
}

// SessionConfig assembles the configuration of one respondent session.
func (c *WarrenConfig) SessionConfig(id, seed string) session.Config {
	return session.Config{
		ID:           id,
		Seed:         seed,
		Options:      c.Survey.ScenarioOptions(),
		Policy:       c.Survey.Policy(),
		StorageName:  c.Storage.Name,
		DefaultValue: c.Survey.DefaultB,
		Amount:       c.Survey.Amount,
	}
}

// Open connects to the configured backend. The memory backend returns nil,
// which keeps sessions in process.
func (s *StorageConfig) Open() (kv.Store, error) {
	switch s.Backend {
	case BackendRedis:
		store, err := kv.NewRedisStore(&redis.Options{Addr: s.RedisAddr, DB: s.RedisDB})
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendSQLite:
		store, err := kv.NewSQLiteStore(s.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, nil
	}
}

// Load reads and validates warren.yml (or a .toml file) from the specified path
func Load(path string) (*WarrenConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config WarrenConfig
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), &config); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

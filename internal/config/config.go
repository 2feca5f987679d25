package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the recall API configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Database    DatabaseConfig    `yaml:"database"`
	MemoryStore MemoryStoreConfig `yaml:"memory_store"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Auth        AuthConfig        `yaml:"auth"`
	Search      SearchConfig      `yaml:"search"`
	Injection   InjectionConfig   `yaml:"injection"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds the search backend (Redis Query Engine) connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	WriteTimeoutMS   int      `yaml:"write_timeout_ms"` // 0 keeps the client default
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	HNSWM            int      `yaml:"hnsw_m"`
	HNSWEFConstruct  int      `yaml:"hnsw_ef_construction"`
}

// MemoryStoreConfig holds the SQLite memory store settings.
type MemoryStoreConfig struct {
	Path string `yaml:"path"` // file path or ":memory:"
}

// EmbeddingConfig holds the OpenAI-compatible embedding provider settings.
type EmbeddingConfig struct {
	Provider         string `yaml:"provider"`
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
	CacheQueries     bool   `yaml:"cache_queries"`
}

// SearchConfig holds hybrid search tuning.
type SearchConfig struct {
	SemanticWeight     float64 `yaml:"semantic_weight"`
	KeywordWeight      float64 `yaml:"keyword_weight"`
	TimeoutMS          int     `yaml:"timeout_ms"`
	RecencyBoostDays   int     `yaml:"recency_boost_days"`
	RecencyBoostFactor float64 `yaml:"recency_boost_factor"`
	DefaultLimit       int     `yaml:"default_limit"`
	CandidateMultiple  int     `yaml:"candidate_multiple"` // provider top_k = limit * multiple
	BM25Scale          float64 `yaml:"bm25_scale"`         // tanh(raw/scale) normalization
}

// InjectionConfig holds memory injection tuning.
type InjectionConfig struct {
	CacheTTLSeconds           int `yaml:"cache_ttl_seconds"`
	CacheSweepIntervalSeconds int `yaml:"cache_sweep_interval_seconds"` // 0 disables the sweep
	MaxInstructions           int `yaml:"max_instructions"`
	MaxMemories               int `yaml:"max_memories"`
}

// DefaultSearchConfig returns the documented search defaults.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		SemanticWeight:     0.7,
		KeywordWeight:      0.3,
		TimeoutMS:          200,
		RecencyBoostDays:   30,
		RecencyBoostFactor: 1.10,
		DefaultLimit:       5,
		CandidateMultiple:  3,
		BM25Scale:          10,
	}
}

// DefaultInjectionConfig returns the documented injection defaults.
func DefaultInjectionConfig() InjectionConfig {
	return InjectionConfig{
		CacheTTLSeconds:           300,
		CacheSweepIntervalSeconds: 600,
		MaxInstructions:           5,
		MaxMemories:               10,
	}
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML bytes, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	cfg := Config{
		Search:    DefaultSearchConfig(),
		Injection: DefaultInjectionConfig(),
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
// Search weights are left alone: a zero weight is a legitimate choice.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.HNSWM <= 0 {
		c.Database.HNSWM = 16
	}
	if c.Database.HNSWEFConstruct <= 0 {
		c.Database.HNSWEFConstruct = 200
	}
	if c.MemoryStore.Path == "" {
		c.MemoryStore.Path = "recall.db"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}

	def := DefaultSearchConfig()
	if c.Search.TimeoutMS == 0 {
		c.Search.TimeoutMS = def.TimeoutMS
	}
	if c.Search.RecencyBoostFactor == 0 {
		c.Search.RecencyBoostFactor = def.RecencyBoostFactor
	}
	if c.Search.DefaultLimit == 0 {
		c.Search.DefaultLimit = def.DefaultLimit
	}
	if c.Search.CandidateMultiple <= 0 {
		c.Search.CandidateMultiple = def.CandidateMultiple
	}
	if c.Search.BM25Scale <= 0 {
		c.Search.BM25Scale = def.BM25Scale
	}

	idef := DefaultInjectionConfig()
	if c.Injection.CacheTTLSeconds == 0 {
		c.Injection.CacheTTLSeconds = idef.CacheTTLSeconds
	}
	if c.Injection.MaxInstructions <= 0 {
		c.Injection.MaxInstructions = idef.MaxInstructions
	}
	if c.Injection.MaxMemories <= 0 {
		c.Injection.MaxMemories = idef.MaxMemories
	}
}

// Validate checks the configuration for structural errors that prevent startup.
// Tuning problems are reported by Issues instead.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Database.DB < 0 {
		return fmt.Errorf("database.db must not be negative, got %d", c.Database.DB)
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	return nil
}

// Issues returns the tuning validation report for search and injection settings.
func (c *Config) Issues() []string {
	issues := c.Search.Validate()
	return append(issues, c.Injection.Validate()...)
}

// weightSumTolerance is how far semantic_weight+keyword_weight may drift from 1.0.
const weightSumTolerance = 0.01

// Validate returns a list of tuning issues. An empty list means the settings are sound.
// Weights are reported, never renormalized.
func (s SearchConfig) Validate() []string {
	var issues []string
	if s.SemanticWeight < 0 {
		issues = append(issues, fmt.Sprintf("search.semantic_weight must not be negative, got %g", s.SemanticWeight))
	}
	if s.KeywordWeight < 0 {
		issues = append(issues, fmt.Sprintf("search.keyword_weight must not be negative, got %g", s.KeywordWeight))
	}
	if sum := s.SemanticWeight + s.KeywordWeight; math.Abs(sum-1.0) > weightSumTolerance {
		issues = append(issues, fmt.Sprintf("search weights should sum to 1.0, got %g", sum))
	}
	if s.TimeoutMS <= 0 {
		issues = append(issues, fmt.Sprintf("search.timeout_ms must be positive, got %d", s.TimeoutMS))
	}
	if s.RecencyBoostDays < 0 {
		issues = append(issues, fmt.Sprintf("search.recency_boost_days must not be negative, got %d", s.RecencyBoostDays))
	}
	if s.RecencyBoostFactor < 1.0 {
		issues = append(issues, fmt.Sprintf("search.recency_boost_factor should be >= 1.0, got %g", s.RecencyBoostFactor))
	}
	if s.DefaultLimit <= 0 {
		issues = append(issues, fmt.Sprintf("search.default_limit must be positive, got %d", s.DefaultLimit))
	}
	return issues
}

// Validate returns a list of injection tuning issues.
func (i InjectionConfig) Validate() []string {
	var issues []string
	if i.CacheTTLSeconds <= 0 {
		issues = append(issues, fmt.Sprintf("injection.cache_ttl_seconds must be positive, got %d", i.CacheTTLSeconds))
	}
	if i.CacheSweepIntervalSeconds < 0 {
		issues = append(issues, fmt.Sprintf(
			"injection.cache_sweep_interval_seconds must not be negative, got %d", i.CacheSweepIntervalSeconds))
	}
	return issues
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

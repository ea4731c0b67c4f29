package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/simdex/internal/domain/options"
	"github.com/kailas-cloud/simdex/internal/tokenizer"
)

// Config holds the simdex API configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Database    DatabaseConfig    `yaml:"database"`
	Recommender RecommenderConfig `yaml:"recommender"`
	Tokenizer   TokenizerConfig   `yaml:"tokenizer"`
	Auth        AuthConfig        `yaml:"auth"`
	Storage     StorageConfig     `yaml:"storage"`
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
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxBodyBytes    int64 `yaml:"max_body_bytes"`
}

// DatabaseConfig holds snapshot database connection settings.
type DatabaseConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// RecommenderConfig holds training options.
type RecommenderConfig struct {
	MaxVectorSize       int     `yaml:"max_vector_size"`       // 0 = default (100)
	MaxSimilarDocuments int     `yaml:"max_similar_documents"` // 0 = unbounded
	MinScore            float64 `yaml:"min_score"`
	Workers             int     `yaml:"workers"` // 0 = GOMAXPROCS
	TrainTimeoutSec     int     `yaml:"train_timeout_sec"`
}

// TokenizerConfig holds default tokenizer settings.
type TokenizerConfig struct {
	NGramMax       int      `yaml:"ngram_max"`
	MinTokenLength int      `yaml:"min_token_length"`
	CacheSize      int      `yaml:"cache_size"`
	Stopwords      []string `yaml:"stopwords"` // extra stopwords on top of the built-in list
}

// StorageConfig holds snapshot storage settings.
type StorageConfig struct {
	KeyPrefix    string `yaml:"key_prefix"`
	SnapshotName string `yaml:"snapshot_name"`
}

// Options builds validated recommender options from the file values.
func (r RecommenderConfig) Options() (options.Options, error) {
	maxSimilar := r.MaxSimilarDocuments
	if maxSimilar == 0 {
		maxSimilar = options.Unbounded
	}
	opts, err := options.New(r.MaxVectorSize, maxSimilar, r.MinScore)
	if err != nil {
		return options.Options{}, fmt.Errorf("recommender: %w", err)
	}
	return opts, nil
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 64 << 20
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Recommender.MaxVectorSize == 0 {
		c.Recommender.MaxVectorSize = options.DefaultMaxVectorSize
	}
	if c.Recommender.TrainTimeoutSec <= 0 {
		c.Recommender.TrainTimeoutSec = 300
	}
	if c.Tokenizer.NGramMax <= 0 {
		c.Tokenizer.NGramMax = tokenizer.DefaultNGramMax
	}
	if c.Tokenizer.MinTokenLength <= 0 {
		c.Tokenizer.MinTokenLength = tokenizer.DefaultMinTokenLength
	}
	if c.Tokenizer.CacheSize <= 0 {
		c.Tokenizer.CacheSize = tokenizer.DefaultCacheSize
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "simdex:"
	}
	if c.Storage.SnapshotName == "" {
		c.Storage.SnapshotName = "default"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.Enabled {
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required")
		}
		switch c.Database.Driver {
		case "valkey", "redis":
		default:
			return fmt.Errorf("database.driver must be \"valkey\" or \"redis\", got %q", c.Database.Driver)
		}
	}
	if c.Recommender.Workers < 0 {
		return fmt.Errorf("recommender.workers must not be negative, got %d", c.Recommender.Workers)
	}
	if _, err := c.Recommender.Options(); err != nil {
		return err
	}
	if c.Tokenizer.NGramMax > tokenizer.MaxNGram {
		return fmt.Errorf("tokenizer.ngram_max must be at most %d, got %d", tokenizer.MaxNGram, c.Tokenizer.NGramMax)
	}
	return nil
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

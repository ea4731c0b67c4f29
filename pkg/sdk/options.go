package simdex

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/simdex/internal/domain/options"
)

// Option configures the Recommender.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	maxVectorSize       int
	maxSimilarDocuments int
	minScore            float64

	tokenizer Tokenizer
	ngramMax  int
	stopwords []string
	cacheSize int
	workers   int

	driver       string // "valkey" or "redis"; empty disables storage
	addrs        []string
	password     string
	keyPrefix    string
	snapshotName string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		maxVectorSize:       options.DefaultMaxVectorSize,
		maxSimilarDocuments: options.Unbounded,
		minScore:            options.DefaultMinScore,
		keyPrefix:           "simdex:",
		snapshotName:        "default",
	}
}

// WithMaxVectorSize limits how many terms each document vector keeps. Default: 100.
func WithMaxVectorSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxVectorSize = n
	})
}

// WithMaxSimilarDocuments limits how many neighbors each document keeps.
// Default: Unbounded.
func WithMaxSimilarDocuments(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxSimilarDocuments = n
	})
}

// WithMinScore drops neighbors scoring at or below s. Default: 0.
func WithMinScore(s float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.minScore = s
	})
}

// WithTokenizer replaces the built-in tokenizer.
// WithNGrams and WithStopwords have no effect when it is set.
func WithTokenizer(t Tokenizer) Option {
	return optionFunc(func(c *clientConfig) {
		c.tokenizer = t
	})
}

// WithNGrams makes the built-in tokenizer also emit n-grams up to n words.
func WithNGrams(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.ngramMax = n
	})
}

// WithStopwords adds words to the built-in English stopword list.
func WithStopwords(words ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.stopwords = append(c.stopwords, words...)
	})
}

// WithTokenCache sets the size of the token LRU cache. Default: 10000.
func WithTokenCache(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheSize = size
	})
}

// WithWorkers sets the number of goroutines scoring document pairs.
// Default: GOMAXPROCS.
func WithWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.workers = n
	})
}

// WithValkey enables snapshot storage in a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis enables snapshot storage in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithSnapshotName sets the name Persist and Restore use. Default: "default".
func WithSnapshotName(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.snapshotName = name
	})
}

// WithKeyPrefix sets the storage key prefix. Default: "simdex:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

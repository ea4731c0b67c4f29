package options

import (
	"math"

	"github.com/kailas-cloud/simdex/internal/domain"
)

// Recommender option defaults.
const (
	DefaultMaxVectorSize = 100
	// Unbounded disables the per-document neighbor limit.
	Unbounded       = math.MaxInt
	DefaultMinScore = 0.0
)

// Options is a validated recommender configuration. It is immutable once built.
type Options struct {
	maxVectorSize       int
	maxSimilarDocuments int
	minScore            float64
}

// New validates and builds recommender options.
// maxVectorSize and maxSimilarDocuments must be positive, minScore must be within [0, 1].
func New(maxVectorSize, maxSimilarDocuments int, minScore float64) (Options, error) {
	if maxVectorSize <= 0 {
		return Options{}, domain.NewConfigurationError("max_vector_size", "must be a positive integer")
	}
	if maxSimilarDocuments <= 0 {
		return Options{}, domain.NewConfigurationError("max_similar_documents", "must be a positive integer")
	}
	if math.IsNaN(minScore) || minScore < 0 || minScore > 1 {
		return Options{}, domain.NewConfigurationError("min_score", "must be a number between 0 and 1")
	}
	return Options{
		maxVectorSize:       maxVectorSize,
		maxSimilarDocuments: maxSimilarDocuments,
		minScore:            minScore,
	}, nil
}

// Default returns the options used when nothing is configured.
func Default() Options {
	return Options{
		maxVectorSize:       DefaultMaxVectorSize,
		maxSimilarDocuments: Unbounded,
		minScore:            DefaultMinScore,
	}
}

// MaxVectorSize returns the maximum number of terms kept per feature vector.
func (o Options) MaxVectorSize() int { return o.maxVectorSize }

// MaxSimilarDocuments returns the maximum neighbors kept per document.
func (o Options) MaxSimilarDocuments() int { return o.maxSimilarDocuments }

// MinScore returns the exclusive lower bound for retained scores.
func (o Options) MinScore() float64 { return o.minScore }

// IsZero reports whether o was never built through New or Default.
func (o Options) IsZero() bool { return o.maxVectorSize == 0 }

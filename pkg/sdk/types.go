package simdex

import (
	"github.com/kailas-cloud/simdex/internal/domain/index"
	"github.com/kailas-cloud/simdex/internal/domain/options"
	domsnap "github.com/kailas-cloud/simdex/internal/domain/snapshot"
	trainuc "github.com/kailas-cloud/simdex/internal/usecase/train"
)

// All requests every remaining entry from SimilarDocuments.
const All = index.All

// Unbounded disables the per-document neighbor limit.
const Unbounded = options.Unbounded

// Tokenizer turns document text into ordered feature terms.
// Implementations must be safe for concurrent use.
type Tokenizer interface {
	Tokenize(text string) []string
}

// Document is one training input.
type Document struct {
	ID      string
	Content string
}

// SimilarDocument is one ranked neighbor.
type SimilarDocument struct {
	ID    string
	Score float64
}

// Options is the recommender configuration.
type Options struct {
	MaxVectorSize       int
	MaxSimilarDocuments int
	MinScore            float64
}

// State is the recommender lifecycle state.
type State string

// State constants.
const (
	StateUnconfigured State = "unconfigured"
	StateConfigured   State = "configured"
	StateTrained      State = "trained"
)

func stateFromDomain(s trainuc.State) State {
	return State(s.String())
}

func optionsFromDomain(o options.Options) Options {
	return Options{
		MaxVectorSize:       o.MaxVectorSize(),
		MaxSimilarDocuments: o.MaxSimilarDocuments(),
		MinScore:            o.MinScore(),
	}
}

func (o Options) toDomain() (options.Options, error) {
	return options.New(o.MaxVectorSize, o.MaxSimilarDocuments, o.MinScore) //nolint:wrapcheck // typed domain error
}

// Snapshot is an exported recommender state: its options and every ranked list.
// A Snapshot is immutable and safe to share.
type Snapshot struct {
	snap domsnap.Snapshot
}

// Options returns the configuration the snapshot was trained with.
func (s Snapshot) Options() Options { return optionsFromDomain(s.snap.Options) }

// Len returns the number of documents in the snapshot.
func (s Snapshot) Len() int { return s.snap.Index.Len() }

// IDs returns document ids in training order.
func (s Snapshot) IDs() []string { return s.snap.Index.IDs() }

// Similar returns the full ranked list stored for id.
func (s Snapshot) Similar(id string) []SimilarDocument {
	return toSimilar(s.snap.Index.Query(id, 0, index.All))
}

func toSimilar(es []index.Edge) []SimilarDocument {
	out := make([]SimilarDocument, len(es))
	for i, e := range es {
		out[i] = SimilarDocument{ID: e.ID, Score: e.Score}
	}
	return out
}

// Package train orchestrates training runs and serves the resulting index.
package train

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/simdex/internal/domain"
	"github.com/kailas-cloud/simdex/internal/domain/document"
	"github.com/kailas-cloud/simdex/internal/domain/index"
	"github.com/kailas-cloud/simdex/internal/domain/options"
	"github.com/kailas-cloud/simdex/internal/domain/snapshot"
	"github.com/kailas-cloud/simdex/internal/metrics"
	"github.com/kailas-cloud/simdex/internal/usecase/rank"
	"github.com/kailas-cloud/simdex/internal/usecase/similarity"
	"github.com/kailas-cloud/simdex/internal/usecase/vectorize"
)

// Training modes, used as log fields and metric labels.
const (
	ModeSingle        = "single"
	ModeBidirectional = "bidirectional"
)

// ErrStorageDisabled is returned by Persist and Restore without a SnapshotStore.
var ErrStorageDisabled = errors.New("snapshot storage disabled")

// Config wires a Service.
type Config struct {
	Options      options.Options // zero means options.Default()
	Tokenizer    Tokenizer
	Engine       *similarity.Engine // nil means similarity.New(0)
	Store        SnapshotStore      // nil disables persistence
	SnapshotName string
	Logger       *zap.Logger // nil means zap.NewNop()
}

// view is one immutable published state. Readers load it without locking.
type view struct {
	opts      options.Options
	idx       index.Index
	state     State
	trainedAt time.Time
}

// Page is one window of a document's ranked list.
type Page struct {
	Items []index.Edge
	Start int
	Total int
}

// Service trains recommendation indexes and answers similarity queries.
// Writers (Configure, Train, TrainBidirectional, Import, Restore) are
// serialized; queries read the last published view and never block.
type Service struct {
	tok    Tokenizer
	engine *similarity.Engine
	store  SnapshotStore
	name   string
	logger *zap.Logger

	mu  sync.Mutex
	cur atomic.Pointer[view]
}

// New creates a Service in the Configured state.
func New(cfg Config) (*Service, error) {
	if cfg.Tokenizer == nil {
		return nil, errors.New("train: tokenizer is required")
	}
	opts := cfg.Options
	if opts.IsZero() {
		opts = options.Default()
	}
	if _, err := options.New(opts.MaxVectorSize(), opts.MaxSimilarDocuments(), opts.MinScore()); err != nil {
		return nil, fmt.Errorf("train options: %w", err)
	}
	engine := cfg.Engine
	if engine == nil {
		engine = similarity.New(0)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		tok:    cfg.Tokenizer,
		engine: engine,
		store:  cfg.Store,
		name:   cfg.SnapshotName,
		logger: logger,
	}
	s.cur.Store(&view{opts: opts, idx: index.Empty(), state: Configured})
	return s, nil
}

func (s *Service) load() *view {
	if v := s.cur.Load(); v != nil {
		return v
	}
	return &view{idx: index.Empty(), state: Unconfigured}
}

// State returns the current lifecycle state.
func (s *Service) State() State { return s.load().state }

// Options returns the active configuration.
func (s *Service) Options() options.Options { return s.load().opts }

// Ready reports whether an index has been published by training or import.
func (s *Service) Ready() bool { return !s.load().trainedAt.IsZero() }

// TrainedAt returns when the current index was published; zero if never.
func (s *Service) TrainedAt() time.Time { return s.load().trainedAt }

// Configure replaces the configuration. The service returns to Configured;
// the previous index keeps answering queries until the next training run.
func (s *Service) Configure(opts options.Options) error {
	if _, err := options.New(opts.MaxVectorSize(), opts.MaxSimilarDocuments(), opts.MinScore()); err != nil {
		return fmt.Errorf("configure: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.load()
	s.cur.Store(&view{opts: opts, idx: prev.idx, state: Configured, trainedAt: prev.trainedAt})
	s.logger.Info("Recommender configured",
		zap.Int("max_vector_size", opts.MaxVectorSize()),
		zap.Int("max_similar_documents", opts.MaxSimilarDocuments()),
		zap.Float64("min_score", opts.MinScore()),
	)
	return nil
}

// Train rebuilds the index from one corpus: every document is compared with
// every other. On any error the previous index stays published.
func (s *Service) Train(ctx context.Context, docs []document.Document) error {
	if err := document.CheckUnique(docs); err != nil {
		s.reject(ModeSingle, err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	opts := s.load().opts
	return s.run(ctx, ModeSingle, len(docs), func() (*similarity.Graph, error) {
		vs := vectorize.Vectorize(s.process(docs), opts.MaxVectorSize())
		return s.engine.BuildGraph(ctx, vs) //nolint:wrapcheck // wrapped by run
	})
}

// TrainBidirectional rebuilds the index from two corpora: documents are only
// compared across corpora. Each corpus is weighted against its own statistics.
func (s *Service) TrainBidirectional(ctx context.Context, as, bs []document.Document) error {
	if err := document.CheckUnique(as); err != nil {
		err = fmt.Errorf("source: %w", err)
		s.reject(ModeBidirectional, err)
		return err
	}
	if err := document.CheckUnique(bs); err != nil {
		err = fmt.Errorf("target: %w", err)
		s.reject(ModeBidirectional, err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	opts := s.load().opts
	return s.run(ctx, ModeBidirectional, len(as)+len(bs), func() (*similarity.Graph, error) {
		va := vectorize.Vectorize(s.process(as), opts.MaxVectorSize())
		vb := vectorize.Vectorize(s.process(bs), opts.MaxVectorSize())
		return s.engine.BuildCrossGraph(ctx, va, vb) //nolint:wrapcheck // wrapped by run
	})
}

// run builds a graph, ranks it and publishes the result. Caller holds s.mu.
func (s *Service) run(ctx context.Context, mode string, docs int, build func() (*similarity.Graph, error)) error {
	start := time.Now()
	opts := s.load().opts

	if err := ctx.Err(); err != nil {
		return s.fail(mode, docs, start, fmt.Errorf("train %s: %w", mode, err))
	}
	g, err := build()
	if err != nil {
		return s.fail(mode, docs, start, fmt.Errorf("train %s: %w", mode, err))
	}
	idx := rank.Rank(g, opts.MinScore(), opts.MaxSimilarDocuments())

	now := time.Now()
	s.cur.Store(&view{opts: opts, idx: idx, state: Trained, trainedAt: now})
	duration := now.Sub(start)

	metrics.TrainingRunsTotal.WithLabelValues(mode, "ok").Inc()
	metrics.TrainingDuration.WithLabelValues(mode).Observe(duration.Seconds())
	metrics.TrainingDocuments.WithLabelValues(mode).Set(float64(docs))
	metrics.SimilarityPairsTotal.WithLabelValues(mode).Add(float64(g.Pairs()))

	s.logger.Info("Training completed",
		zap.String("mode", mode),
		zap.Int("documents", docs),
		zap.Int("pairs", g.Pairs()),
		zap.Int("edges", idx.Edges()),
		zap.Duration("duration", duration),
		zap.String("status", "ok"),
	)

	if s.store != nil {
		if err := s.persist(ctx, &snapshot.Snapshot{Options: opts, Index: idx}); err != nil {
			s.logger.Warn("Snapshot not persisted after training", zap.Error(err))
		}
	}
	return nil
}

func (s *Service) fail(mode string, docs int, start time.Time, err error) error {
	metrics.TrainingRunsTotal.WithLabelValues(mode, "error").Inc()
	s.logger.Error("Training failed",
		zap.String("mode", mode),
		zap.Int("documents", docs),
		zap.Duration("duration", time.Since(start)),
		zap.String("status", "error"),
		zap.Error(err),
	)
	return err
}

func (s *Service) reject(mode string, err error) {
	metrics.TrainingRunsTotal.WithLabelValues(mode, "rejected").Inc()
	s.logger.Warn("Training input rejected", zap.String("mode", mode), zap.Error(err))
}

func (s *Service) process(docs []document.Document) []document.Processed {
	out := make([]document.Processed, len(docs))
	for i := range docs {
		out[i] = document.Processed{ID: docs[i].ID(), Tokens: s.tok.Tokenize(docs[i].Content())}
	}
	return out
}

// SimilarDocuments returns up to size entries of id's ranked list starting at
// start. An unknown id yields an empty page.
func (s *Service) SimilarDocuments(id string, start, size int) Page {
	v := s.load()
	if start < 0 {
		start = 0
	}
	return Page{
		Items: v.idx.Query(id, start, size),
		Start: start,
		Total: v.idx.Total(id),
	}
}

// Export returns the active configuration and index.
func (s *Service) Export() snapshot.Snapshot {
	v := s.load()
	return snapshot.Snapshot{Options: v.opts, Index: v.idx}
}

// Import replaces configuration and index in one step. The snapshot is
// validated first; an invalid snapshot changes nothing.
func (s *Service) Import(snap *snapshot.Snapshot) error {
	if err := snapshot.Validate(snap); err != nil {
		return fmt.Errorf("import: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cur.Store(&view{opts: snap.Options, idx: snap.Index, state: Trained, trainedAt: time.Now()})
	s.logger.Info("Snapshot imported", zap.Int("documents", snap.Index.Len()))
	return nil
}

// Persist saves the current index to the snapshot store.
func (s *Service) Persist(ctx context.Context) error {
	if s.store == nil {
		return ErrStorageDisabled
	}
	v := s.load()
	if v.state != Trained && v.idx.Len() == 0 {
		return domain.ErrNotTrained
	}
	return s.persist(ctx, &snapshot.Snapshot{Options: v.opts, Index: v.idx})
}

func (s *Service) persist(ctx context.Context, snap *snapshot.Snapshot) error {
	if err := s.store.Save(ctx, s.name, snap); err != nil {
		metrics.SnapshotOperationsTotal.WithLabelValues("save", "error").Inc()
		return fmt.Errorf("persist snapshot %q: %w", s.name, err)
	}
	metrics.SnapshotOperationsTotal.WithLabelValues("save", "ok").Inc()
	return nil
}

// Discard removes the persisted snapshot. The active index is not affected.
// A missing snapshot returns domain.ErrSnapshotNotFound.
func (s *Service) Discard(ctx context.Context) error {
	if s.store == nil {
		return ErrStorageDisabled
	}
	if err := s.store.Delete(ctx, s.name); err != nil {
		status := "error"
		if errors.Is(err, domain.ErrSnapshotNotFound) {
			status = "miss"
		}
		metrics.SnapshotOperationsTotal.WithLabelValues("delete", status).Inc()
		return fmt.Errorf("discard snapshot %q: %w", s.name, err)
	}
	metrics.SnapshotOperationsTotal.WithLabelValues("delete", "ok").Inc()
	s.logger.Info("Snapshot discarded", zap.String("name", s.name))
	return nil
}

// Restore loads the named snapshot from the store and imports it.
// A missing snapshot returns domain.ErrSnapshotNotFound and changes nothing.
func (s *Service) Restore(ctx context.Context) error {
	if s.store == nil {
		return ErrStorageDisabled
	}
	snap, err := s.store.Load(ctx, s.name)
	if err != nil {
		status := "error"
		if errors.Is(err, domain.ErrSnapshotNotFound) {
			status = "miss"
		}
		metrics.SnapshotOperationsTotal.WithLabelValues("load", status).Inc()
		return fmt.Errorf("restore snapshot %q: %w", s.name, err)
	}
	if err := s.Import(&snap); err != nil {
		metrics.SnapshotOperationsTotal.WithLabelValues("load", "error").Inc()
		return fmt.Errorf("restore snapshot %q: %w", s.name, err)
	}
	metrics.SnapshotOperationsTotal.WithLabelValues("load", "ok").Inc()
	return nil
}

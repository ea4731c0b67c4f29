package simdex

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/simdex/internal/db"
	dbRedis "github.com/kailas-cloud/simdex/internal/db/redis"
	"github.com/kailas-cloud/simdex/internal/domain"
	domdoc "github.com/kailas-cloud/simdex/internal/domain/document"
	"github.com/kailas-cloud/simdex/internal/domain/options"
	domsnap "github.com/kailas-cloud/simdex/internal/domain/snapshot"
	snapshotrepo "github.com/kailas-cloud/simdex/internal/repository/snapshot"
	"github.com/kailas-cloud/simdex/internal/tokenizer"
	healthuc "github.com/kailas-cloud/simdex/internal/usecase/health"
	"github.com/kailas-cloud/simdex/internal/usecase/similarity"
	trainuc "github.com/kailas-cloud/simdex/internal/usecase/train"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interface, swapped out in tests.
type trainUseCase interface {
	State() trainuc.State
	Options() options.Options
	Configure(opts options.Options) error
	Train(ctx context.Context, docs []domdoc.Document) error
	TrainBidirectional(ctx context.Context, as, bs []domdoc.Document) error
	SimilarDocuments(id string, start, size int) trainuc.Page
	Export() domsnap.Snapshot
	Import(snap *domsnap.Snapshot) error
	Persist(ctx context.Context) error
	Restore(ctx context.Context) error
	Discard(ctx context.Context) error
}

// Recommender is the simdex SDK entry point. It is safe for concurrent use:
// training calls are serialized and queries never block on them.
type Recommender struct {
	store     db.Store
	svc       trainUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Recommender. Invalid option values fail with a
// *ConfigurationError. With WithValkey or WithRedis, New connects to the
// database and waits until it answers.
func New(opts ...Option) (*Recommender, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	o, err := options.New(cfg.maxVectorSize, cfg.maxSimilarDocuments, cfg.minScore)
	if err != nil {
		return nil, fmt.Errorf("simdex: %w", err)
	}
	if cfg.ngramMax > tokenizer.MaxNGram {
		return nil, fmt.Errorf("simdex: %w",
			domain.NewConfigurationError("ngram_max", fmt.Sprintf("must be at most %d", tokenizer.MaxNGram)))
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	tok, err := buildTokenizer(cfg)
	if err != nil {
		return nil, err
	}

	var store db.Store
	if cfg.driver != "" {
		store, err = createStore(cfg)
		if err != nil {
			return nil, err
		}
		if err := store.WaitForReady(context.Background(), defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("simdex: database not ready: %w", err)
		}
	}

	return wireRecommender(store, tok, o, cfg, obs)
}

func buildTokenizer(cfg *clientConfig) (Tokenizer, error) {
	if cfg.tokenizer != nil {
		return cfg.tokenizer, nil
	}
	var stopwords []string
	if len(cfg.stopwords) > 0 {
		stopwords = tokenizer.WithStopwords(cfg.stopwords...)
	}
	base := tokenizer.New(tokenizer.Config{NGramMax: cfg.ngramMax, Stopwords: stopwords})
	cached, err := tokenizer.NewCached(base, cfg.cacheSize, nil)
	if err != nil {
		return nil, fmt.Errorf("simdex: %w", err)
	}
	return cached, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("simdex: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("simdex: unknown driver %q", cfg.driver)
	}
}

func wireRecommender(
	store db.Store, tok Tokenizer, o options.Options, cfg *clientConfig, obs *observer,
) (*Recommender, error) {
	// Pass nil interfaces (not typed nil pointers) when storage is disabled.
	var snapshots trainuc.SnapshotStore
	var pinger healthuc.DBPinger
	if store != nil {
		snapshots = snapshotrepo.New(store, cfg.keyPrefix)
		pinger = store
	}

	svc, err := trainuc.New(trainuc.Config{
		Options:      o,
		Tokenizer:    tok,
		Engine:       similarity.New(cfg.workers),
		Store:        snapshots,
		SnapshotName: cfg.snapshotName,
		Logger:       zap.NewNop(),
	})
	if err != nil {
		return nil, fmt.Errorf("simdex: %w", err)
	}

	return &Recommender{
		store:     store,
		svc:       svc,
		healthSvc: healthuc.New(pinger, svc),
		obs:       obs,
	}, nil
}

// Close releases the storage connection, if any.
func (r *Recommender) Close() {
	if r.store != nil {
		r.store.Close()
	}
}

// State returns the lifecycle state.
func (r *Recommender) State() State { return stateFromDomain(r.svc.State()) }

// Options returns the active configuration.
func (r *Recommender) Options() Options { return optionsFromDomain(r.svc.Options()) }

// SetOptions replaces the configuration. The current index keeps answering
// queries until the next training run applies the new values.
func (r *Recommender) SetOptions(o Options) (err error) {
	start := time.Now()
	defer func() { r.obs.observe("set_options", start, err) }()

	opts, err := o.toDomain()
	if err != nil {
		return fmt.Errorf("simdex: %w", err)
	}
	if err = r.svc.Configure(opts); err != nil {
		return fmt.Errorf("simdex: %w", err)
	}
	return nil
}

// Train rebuilds the index from one corpus. On error the previous index stays active.
func (r *Recommender) Train(ctx context.Context, docs []Document) (err error) {
	start := time.Now()
	defer func() { r.obs.observe("train", start, err, "documents", len(docs)) }()

	ds, err := toDomainDocs(docs)
	if err != nil {
		return err
	}
	if err = r.svc.Train(ctx, ds); err != nil {
		return fmt.Errorf("simdex: %w", err)
	}
	r.obs.indexed(len(docs))
	return nil
}

// TrainBidirectional rebuilds the index so that documents of as are only
// related to documents of bs and vice versa.
func (r *Recommender) TrainBidirectional(ctx context.Context, as, bs []Document) (err error) {
	start := time.Now()
	defer func() {
		r.obs.observe("train_bidirectional", start, err, "source", len(as), "target", len(bs))
	}()

	da, err := toDomainDocs(as)
	if err != nil {
		return fmt.Errorf("source: %w", err)
	}
	dbs, err := toDomainDocs(bs)
	if err != nil {
		return fmt.Errorf("target: %w", err)
	}
	if err = r.svc.TrainBidirectional(ctx, da, dbs); err != nil {
		return fmt.Errorf("simdex: %w", err)
	}
	r.indexedNow()
	return nil
}

func (r *Recommender) indexedNow() {
	snap := r.svc.Export()
	r.obs.indexed(snap.Index.Len())
}

// SimilarDocuments returns up to size neighbors of id starting at rank start.
// Unknown ids and out-of-range windows yield an empty slice. Use All for size
// to read to the end.
func (r *Recommender) SimilarDocuments(id string, start, size int) []SimilarDocument {
	return toSimilar(r.svc.SimilarDocuments(id, start, size).Items)
}

// Total returns the length of id's ranked list.
func (r *Recommender) Total(id string) int {
	return r.svc.SimilarDocuments(id, 0, 0).Total
}

// Export returns the active configuration and index.
func (r *Recommender) Export() Snapshot {
	return Snapshot{snap: r.svc.Export()}
}

// Import replaces configuration and index with s.
func (r *Recommender) Import(s Snapshot) (err error) {
	start := time.Now()
	defer func() { r.obs.observe("import", start, err, "documents", s.Len()) }()

	if err = r.svc.Import(&s.snap); err != nil {
		return fmt.Errorf("simdex: %w", err)
	}
	r.obs.indexed(s.Len())
	return nil
}

// MarshalSnapshot exports the active state as JSON.
func (r *Recommender) MarshalSnapshot() ([]byte, error) {
	snap := r.svc.Export()
	data, err := domsnap.Encode(&snap)
	if err != nil {
		return nil, fmt.Errorf("simdex: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshot imports a JSON snapshot produced by MarshalSnapshot.
// A malformed or inconsistent snapshot is rejected with ErrInvalidInput.
func (r *Recommender) UnmarshalSnapshot(data []byte) error {
	snap, err := domsnap.Decode(data)
	if err != nil {
		r.obs.observe("import", time.Now(), err)
		return fmt.Errorf("simdex: %w", err)
	}
	return r.Import(Snapshot{snap: snap})
}

// Persist saves the active state to the configured storage.
func (r *Recommender) Persist(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { r.obs.observe("persist", start, err) }()

	if err = r.svc.Persist(ctx); err != nil {
		return fmt.Errorf("simdex: %w", err)
	}
	return nil
}

// Restore loads the state saved by Persist. It returns ErrSnapshotNotFound
// when nothing was saved under the configured name.
func (r *Recommender) Restore(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { r.obs.observe("restore", start, err) }()

	if err = r.svc.Restore(ctx); err != nil {
		return fmt.Errorf("simdex: %w", err)
	}
	r.indexedNow()
	return nil
}

// DiscardPersisted removes the snapshot saved by Persist. The active index
// keeps answering queries.
func (r *Recommender) DiscardPersisted(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { r.obs.observe("discard", start, err) }()

	if err = r.svc.Discard(ctx); err != nil {
		return fmt.Errorf("simdex: %w", err)
	}
	return nil
}

// DocumentsFromJSON decodes a JSON array of {"id": ..., "content": ...}
// records. Numeric ids are accepted and kept in their JSON text form.
func DocumentsFromJSON(data []byte) ([]Document, error) {
	ds, err := domdoc.DecodeList(data)
	if err != nil {
		return nil, fmt.Errorf("simdex: %w", err)
	}
	out := make([]Document, len(ds))
	for i := range ds {
		out[i] = Document{ID: ds[i].ID(), Content: ds[i].Content()}
	}
	return out, nil
}

func toDomainDocs(docs []Document) ([]domdoc.Document, error) {
	out := make([]domdoc.Document, len(docs))
	for i, d := range docs {
		doc, err := domdoc.New(d.ID, d.Content)
		if err != nil {
			return nil, fmt.Errorf("simdex: %w",
				domain.NewInputShapeError(i, domdoc.FieldID, "is required"))
		}
		out[i] = doc
	}
	return out, nil
}

// Package similarity scores document pairs by cosine similarity and collects
// the scores into a candidate graph. It does not filter or sort.
package similarity

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/simdex/internal/domain/index"
	"github.com/kailas-cloud/simdex/internal/domain/vector"
)

// ErrDuplicateID is returned when one vector set holds the same ID twice.
var ErrDuplicateID = errors.New("similarity: duplicate document id")

// Engine builds candidate graphs, scoring rows on a fixed number of workers.
type Engine struct {
	workers int
}

// New creates an Engine. workers <= 0 uses GOMAXPROCS.
func New(workers int) *Engine {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{workers: workers}
}

// Workers returns the configured parallelism.
func (e *Engine) Workers() int { return e.workers }

// BuildGraph scores every unordered pair of vs once and records the score on
// both documents. A document's edges are ordered by the other document's
// position in vs. IDs must be unique.
func (e *Engine) BuildGraph(ctx context.Context, vs []vector.Vector) (*Graph, error) {
	n := len(vs)
	g := newGraph(n)
	for i := range vs {
		g.slot(vs[i].ID())
	}
	if g.Len() != n {
		return nil, ErrDuplicateID
	}

	// rows[i][j] = score(i, j) for j < i.
	rows := make([][]float64, n)
	err := e.scoreRows(ctx, n, func(i int) {
		row := make([]float64, i)
		for j := 0; j < i; j++ {
			row[j] = vector.Cosine(&vs[i], &vs[j])
		}
		rows[i] = row
	})
	if err != nil {
		return nil, fmt.Errorf("score pairs: %w", err)
	}

	for k := 0; k < n; k++ {
		g.edges[k] = make([]index.Edge, 0, n-1)
		for j := 0; j < k; j++ {
			g.add(k, vs[j].ID(), rows[k][j])
		}
		for i := k + 1; i < n; i++ {
			g.add(k, vs[i].ID(), rows[i][k])
		}
	}
	g.pairs = n * (n - 1) / 2
	return g, nil
}

// BuildCrossGraph scores every pair (a, b) with a from as and b from bs, and
// records the score on both sides. No pair inside as or inside bs is scored.
// The graph keys are the union of both ID sets: as first, then bs not in as.
// Pairs with equal IDs are skipped so no document points at itself. An ID in
// both sets owns one slot; when both of its roles reach the same neighbor, the
// edge is kept once, at its first position, with the higher score.
func (e *Engine) BuildCrossGraph(ctx context.Context, as, bs []vector.Vector) (*Graph, error) {
	// rows[i][j] = score(as[i], bs[j]).
	rows := make([][]float64, len(as))
	err := e.scoreRows(ctx, len(as), func(i int) {
		row := make([]float64, len(bs))
		for j := range bs {
			if as[i].ID() == bs[j].ID() {
				continue
			}
			row[j] = vector.Cosine(&as[i], &bs[j])
		}
		rows[i] = row
	})
	if err != nil {
		return nil, fmt.Errorf("score cross pairs: %w", err)
	}

	g := newGraph(len(as) + len(bs))
	for i := range as {
		g.slot(as[i].ID())
	}
	for j := range bs {
		g.slot(bs[j].ID())
	}

	pairs := 0
	for i := range as {
		from := g.slot(as[i].ID())
		for j := range bs {
			if as[i].ID() == bs[j].ID() {
				continue
			}
			g.add(from, bs[j].ID(), rows[i][j])
			pairs++
		}
	}
	inA := make(map[string]struct{}, len(as))
	for i := range as {
		inA[as[i].ID()] = struct{}{}
	}
	for j := range bs {
		from := g.slot(bs[j].ID())
		var seen map[string]int
		if _, shared := inA[bs[j].ID()]; shared {
			seen = g.positions(from)
		}
		for i := range as {
			if as[i].ID() == bs[j].ID() {
				continue
			}
			if k, ok := seen[as[i].ID()]; ok {
				g.raise(from, k, rows[i][j])
				continue
			}
			g.add(from, as[i].ID(), rows[i][j])
		}
	}
	g.pairs = pairs
	return g, nil
}

// scoreRows runs score(i) for i in [0, n) on e.workers goroutines. Rows are
// dealt round-robin so long and short rows spread evenly. Each row is written by
// exactly one goroutine. The context is checked before every row.
func (e *Engine) scoreRows(ctx context.Context, n int, score func(i int)) error {
	workers := e.workers
	if workers > n {
		workers = n
	}
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := w; i < n; i += workers {
				if err := gctx.Err(); err != nil {
					return err //nolint:wrapcheck // wrapped by caller
				}
				score(i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err //nolint:wrapcheck // wrapped by caller
	}
	return ctx.Err() //nolint:wrapcheck // wrapped by caller
}

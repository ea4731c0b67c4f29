package similarity

import (
	"context"
	"errors"
	"math"
	"runtime"
	"testing"

	"github.com/kailas-cloud/simdex/internal/domain/index"
	"github.com/kailas-cloud/simdex/internal/domain/vector"
)

func vec(id string, weights map[string]float64) vector.Vector {
	return vector.New(id, weights)
}

func edgeIDs(es []index.Edge) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.ID
	}
	return out
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func scoreOf(es []index.Edge, id string) (float64, bool) {
	for _, e := range es {
		if e.ID == id {
			return e.Score, true
		}
	}
	return 0, false
}

func TestBuildGraph_SymmetricAndOrdered(t *testing.T) {
	vs := []vector.Vector{
		vec("a", map[string]float64{"x": 1, "y": 2}),
		vec("b", map[string]float64{"x": 1}),
		vec("c", map[string]float64{"y": 1, "z": 3}),
		vec("d", map[string]float64{"q": 1}),
	}
	for _, workers := range []int{1, 2, 3, 8} {
		g, err := New(workers).BuildGraph(context.Background(), vs)
		if err != nil {
			t.Fatalf("workers=%d: unexpected error: %v", workers, err)
		}
		if g.Len() != 4 {
			t.Fatalf("Len() = %d, want 4", g.Len())
		}
		if g.Pairs() != 6 {
			t.Errorf("Pairs() = %d, want 6", g.Pairs())
		}
		if !sameStrings(g.IDs(), []string{"a", "b", "c", "d"}) {
			t.Errorf("IDs() = %v", g.IDs())
		}
		if got := edgeIDs(g.Edges("c")); !sameStrings(got, []string{"a", "b", "d"}) {
			t.Errorf("edges of c = %v, want input order without self", got)
		}
		for _, from := range g.IDs() {
			for _, e := range g.Edges(from) {
				if e.ID == from {
					t.Errorf("self edge on %s", from)
				}
				back, ok := scoreOf(g.Edges(e.ID), from)
				if !ok || back != e.Score {
					t.Errorf("asymmetric score %s<->%s: %v vs %v", from, e.ID, e.Score, back)
				}
			}
		}
		if s, _ := scoreOf(g.Edges("a"), "d"); s != 0 {
			t.Errorf("disjoint vectors should score 0, got %v", s)
		}
		want := 1 / math.Sqrt(5)
		if s, _ := scoreOf(g.Edges("a"), "b"); math.Abs(s-want) > 1e-12 {
			t.Errorf("score(a,b) = %v, want %v", s, want)
		}
	}
}

func TestBuildGraph_SmallInputs(t *testing.T) {
	e := New(0)
	g, err := e.BuildGraph(context.Background(), nil)
	if err != nil || g.Len() != 0 || g.Pairs() != 0 {
		t.Fatalf("empty input: len=%d pairs=%d err=%v", g.Len(), g.Pairs(), err)
	}
	g, err = e.BuildGraph(context.Background(), []vector.Vector{vec("solo", map[string]float64{"x": 1})})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Len() != 1 || len(g.Edges("solo")) != 0 {
		t.Errorf("single document should have no edges, got %v", g.Edges("solo"))
	}
	if g.Edges("missing") != nil {
		t.Error("unknown id should have nil edges")
	}
}

func TestBuildGraph_DuplicateID(t *testing.T) {
	vs := []vector.Vector{
		vec("a", map[string]float64{"x": 1}),
		vec("a", map[string]float64{"y": 1}),
	}
	_, err := New(1).BuildGraph(context.Background(), vs)
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}

func TestBuildCrossGraph(t *testing.T) {
	as := []vector.Vector{
		vec("a1", map[string]float64{"x": 1}),
		vec("a2", map[string]float64{"y": 1}),
	}
	bs := []vector.Vector{
		vec("b1", map[string]float64{"x": 1}),
		vec("b2", map[string]float64{"x": 1, "y": 1}),
		vec("b3", map[string]float64{"z": 1}),
	}
	g, err := New(2).BuildCrossGraph(context.Background(), as, bs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sameStrings(g.IDs(), []string{"a1", "a2", "b1", "b2", "b3"}) {
		t.Errorf("IDs() = %v", g.IDs())
	}
	if g.Pairs() != 6 {
		t.Errorf("Pairs() = %d, want 6", g.Pairs())
	}
	if got := edgeIDs(g.Edges("a1")); !sameStrings(got, []string{"b1", "b2", "b3"}) {
		t.Errorf("edges of a1 = %v", got)
	}
	if got := edgeIDs(g.Edges("b2")); !sameStrings(got, []string{"a1", "a2"}) {
		t.Errorf("edges of b2 = %v, want only corpus A", got)
	}
	if s, _ := scoreOf(g.Edges("a1"), "b1"); s != 1 {
		t.Errorf("identical vectors should score 1, got %v", s)
	}
	if s, _ := scoreOf(g.Edges("b1"), "a1"); s != 1 {
		t.Errorf("reverse edge should carry the same score, got %v", s)
	}
}

func TestBuildCrossGraph_SharedID(t *testing.T) {
	as := []vector.Vector{
		vec("x", map[string]float64{"k": 1}),
		vec("a", map[string]float64{"k": 1}),
	}
	bs := []vector.Vector{
		vec("x", map[string]float64{"k": 2}),
		vec("b", map[string]float64{"k": 1}),
	}
	g, err := New(1).BuildCrossGraph(context.Background(), as, bs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sameStrings(g.IDs(), []string{"x", "a", "b"}) {
		t.Errorf("IDs() = %v, shared id should occupy one slot", g.IDs())
	}
	// x as A sees b; x as B sees a. Both land on the single slot, A role first.
	if got := edgeIDs(g.Edges("x")); !sameStrings(got, []string{"b", "a"}) {
		t.Errorf("edges of x = %v", got)
	}
	if g.Pairs() != 3 {
		t.Errorf("Pairs() = %d, want 3", g.Pairs())
	}
}

func TestBuildCrossGraph_TwoSharedIDs(t *testing.T) {
	as := []vector.Vector{
		vec("x", map[string]float64{"p": 1}),
		vec("y", map[string]float64{"p": 1, "r": 1, "s": 1}),
	}
	bs := []vector.Vector{
		vec("x", map[string]float64{"p": 1, "b": 1}),
		vec("y", map[string]float64{"p": 1, "c": 1}),
	}
	g, err := New(2).BuildCrossGraph(context.Background(), as, bs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sameStrings(g.IDs(), []string{"x", "y"}) {
		t.Fatalf("IDs() = %v", g.IDs())
	}

	// x(A)-y(B) scores 1/sqrt(2); x(B)-y(A) scores 1/sqrt(6). Each side keeps one edge at the higher score.
	want := 1 / math.Sqrt2
	for _, id := range []string{"x", "y"} {
		es := g.Edges(id)
		if len(es) != 1 {
			t.Fatalf("edges of %s = %v, want a single edge", id, es)
		}
		if math.Abs(es[0].Score-want) > 1e-9 {
			t.Errorf("edge score of %s = %v, want %v", id, es[0].Score, want)
		}
	}
	if g.Edges("x")[0].ID != "y" || g.Edges("y")[0].ID != "x" {
		t.Errorf("unexpected neighbors: x=%v y=%v", g.Edges("x"), g.Edges("y"))
	}
	if g.Pairs() != 2 {
		t.Errorf("Pairs() = %d, want 2", g.Pairs())
	}
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	vs := []vector.Vector{
		vec("a", map[string]float64{"x": 1}),
		vec("b", map[string]float64{"x": 1}),
	}
	if _, err := New(2).BuildGraph(ctx, vs); !errors.Is(err, context.Canceled) {
		t.Errorf("BuildGraph: expected context.Canceled, got %v", err)
	}
	if _, err := New(2).BuildCrossGraph(ctx, vs[:1], vs[1:]); !errors.Is(err, context.Canceled) {
		t.Errorf("BuildCrossGraph: expected context.Canceled, got %v", err)
	}
}

func TestNew_Workers(t *testing.T) {
	if got := New(3).Workers(); got != 3 {
		t.Errorf("Workers() = %d, want 3", got)
	}
	if got := New(0).Workers(); got != runtime.GOMAXPROCS(0) {
		t.Errorf("Workers() = %d, want GOMAXPROCS", got)
	}
}

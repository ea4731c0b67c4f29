package simdex

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func scenario() []Document {
	return []Document{
		{ID: "1000001", Content: "hello world hello boy"},
		{ID: "1000002", Content: "I go to school by bus. Hello!"},
		{ID: "1000003", Content: "I am king of the world"},
		{ID: "1000004", Content: "King and Queen are funny"},
	}
}

func ids(items []SimilarDocument) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
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

func mustNew(t *testing.T, opts ...Option) *Recommender {
	t.Helper()
	rec, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(rec.Close)
	return rec
}

func TestRecommender_Train(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := mustNew(t, WithPrometheus(reg))

	if err := rec.Train(context.Background(), scenario()); err != nil {
		t.Fatalf("Train: %v", err)
	}
	if rec.State() != StateTrained {
		t.Errorf("State = %s, want trained", rec.State())
	}

	if got := ids(rec.SimilarDocuments("1000003", 0, All)); !equalIDs(got, []string{"1000004", "1000001"}) {
		t.Errorf("similar(1000003) = %v, want [1000004 1000001]", got)
	}
	if got := ids(rec.SimilarDocuments("1000002", 0, All)); !equalIDs(got, []string{"1000001"}) {
		t.Errorf("similar(1000002) = %v, want [1000001]", got)
	}
	if got := rec.Total("1000001"); got != 2 {
		t.Errorf("Total(1000001) = %d, want 2", got)
	}
	if got := rec.SimilarDocuments("1000003", 1, 5); len(got) != 1 || got[0].ID != "1000001" {
		t.Errorf("page from 1 = %v", got)
	}
	if got := rec.SimilarDocuments("missing", 0, All); len(got) != 0 {
		t.Errorf("unknown id should yield nothing, got %v", got)
	}

	m := rec.obs.metrics
	if got := testutil.ToFloat64(m.operations.WithLabelValues("train", "ok")); got != 1 {
		t.Errorf("train ok count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.documents); got != 4 {
		t.Errorf("indexed documents = %v, want 4", got)
	}
}

func TestRecommender_TrainRejectsInput(t *testing.T) {
	rec := mustNew(t)
	if err := rec.Train(context.Background(), scenario()); err != nil {
		t.Fatalf("Train: %v", err)
	}

	err := rec.Train(context.Background(), []Document{{ID: "", Content: "x"}})
	var shapeErr *InputShapeError
	if !errors.As(err, &shapeErr) || shapeErr.Index != 0 {
		t.Fatalf("expected InputShapeError at 0, got %v", err)
	}

	err = rec.Train(context.Background(), []Document{{ID: "a", Content: "x"}, {ID: "a", Content: "y"}})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for duplicates, got %v", err)
	}

	if got := rec.Total("1000003"); got != 2 {
		t.Errorf("previous index should survive rejected input, Total = %d", got)
	}
}

func TestRecommender_TrainCancelled(t *testing.T) {
	rec := mustNew(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := rec.Train(ctx, scenario()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if rec.State() == StateTrained {
		t.Error("cancelled run must not publish an index")
	}
}

func TestRecommender_TrainBidirectional(t *testing.T) {
	rec := mustNew(t)
	products := []Document{
		{ID: "p1", Content: "red apple pie"},
		{ID: "p2", Content: "blue ocean waves"},
	}
	articles := []Document{
		{ID: "a1", Content: "apple pie recipe"},
		{ID: "a2", Content: "ocean waves surfing"},
		{ID: "a3", Content: "red apple orchard"},
	}
	if err := rec.TrainBidirectional(context.Background(), products, articles); err != nil {
		t.Fatalf("TrainBidirectional: %v", err)
	}

	for _, id := range []string{"p1", "p2"} {
		for _, s := range rec.SimilarDocuments(id, 0, All) {
			if strings.HasPrefix(s.ID, "p") {
				t.Errorf("%s relates to %s from its own corpus", id, s.ID)
			}
		}
	}
	if got := ids(rec.SimilarDocuments("p2", 0, All)); !equalIDs(got, []string{"a2"}) {
		t.Errorf("similar(p2) = %v, want [a2]", got)
	}
	if got := ids(rec.SimilarDocuments("a3", 0, All)); !equalIDs(got, []string{"p1"}) {
		t.Errorf("similar(a3) = %v, want [p1]", got)
	}

	err := rec.TrainBidirectional(context.Background(), products, []Document{{ID: ""}})
	if !errors.Is(err, ErrInvalidInput) || !strings.Contains(err.Error(), "target") {
		t.Errorf("expected target input error, got %v", err)
	}
}

func TestRecommender_SetOptions(t *testing.T) {
	rec := mustNew(t)
	if err := rec.Train(context.Background(), scenario()); err != nil {
		t.Fatalf("Train: %v", err)
	}

	if err := rec.SetOptions(Options{MaxVectorSize: 100, MaxSimilarDocuments: 1, MinScore: 0}); err != nil {
		t.Fatalf("SetOptions: %v", err)
	}
	if rec.State() != StateConfigured {
		t.Errorf("State = %s, want configured", rec.State())
	}
	if got := rec.Total("1000003"); got != 2 {
		t.Errorf("old index should answer until retrained, Total = %d", got)
	}

	if err := rec.Train(context.Background(), scenario()); err != nil {
		t.Fatalf("Train: %v", err)
	}
	if got := ids(rec.SimilarDocuments("1000003", 0, All)); !equalIDs(got, []string{"1000004"}) {
		t.Errorf("similar(1000003) = %v, want [1000004]", got)
	}

	err := rec.SetOptions(Options{MaxVectorSize: 0, MaxSimilarDocuments: 1})
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
	if rec.Options().MaxSimilarDocuments != 1 {
		t.Error("rejected options must not be applied")
	}
}

func TestRecommender_ExportImport(t *testing.T) {
	src := mustNew(t, WithMinScore(0.1))
	if err := src.Train(context.Background(), scenario()); err != nil {
		t.Fatalf("Train: %v", err)
	}
	snap := src.Export()
	if snap.Len() != 4 {
		t.Errorf("snapshot Len = %d, want 4", snap.Len())
	}
	if !equalIDs(snap.IDs(), []string{"1000001", "1000002", "1000003", "1000004"}) {
		t.Errorf("snapshot IDs = %v", snap.IDs())
	}
	if snap.Options().MinScore != 0.1 {
		t.Errorf("snapshot MinScore = %v", snap.Options().MinScore)
	}

	dst := mustNew(t)
	if err := dst.Import(snap); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if dst.State() != StateTrained {
		t.Errorf("State = %s, want trained", dst.State())
	}
	if dst.Options().MinScore != 0.1 {
		t.Errorf("imported MinScore = %v, want 0.1", dst.Options().MinScore)
	}
	for _, id := range snap.IDs() {
		if !equalIDs(ids(dst.SimilarDocuments(id, 0, All)), ids(snap.Similar(id))) {
			t.Errorf("list for %s differs after import", id)
		}
	}
}

func TestRecommender_MarshalSnapshot(t *testing.T) {
	src := mustNew(t)
	if err := src.Train(context.Background(), scenario()); err != nil {
		t.Fatalf("Train: %v", err)
	}
	data, err := src.MarshalSnapshot()
	if err != nil {
		t.Fatalf("MarshalSnapshot: %v", err)
	}

	dst := mustNew(t)
	if err := dst.UnmarshalSnapshot(data); err != nil {
		t.Fatalf("UnmarshalSnapshot: %v", err)
	}
	want := src.SimilarDocuments("1000001", 0, All)
	got := dst.SimilarDocuments("1000001", 0, All)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d: got %+v, want %+v", i, got[i], want[i])
		}
	}

	if err := dst.UnmarshalSnapshot([]byte(`{"options":{}}`)); !errors.Is(err, ErrInvalidInput) &&
		!errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("expected rejection, got %v", err)
	}
	if err := dst.UnmarshalSnapshot([]byte(`not json`)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if dst.Total("1000001") != len(want) {
		t.Error("rejected snapshot must not replace the index")
	}
}

func TestRecommender_StorageDisabled(t *testing.T) {
	rec := mustNew(t)
	if err := rec.Persist(context.Background()); !errors.Is(err, ErrStorageDisabled) {
		t.Errorf("Persist: expected ErrStorageDisabled, got %v", err)
	}
	if err := rec.Restore(context.Background()); !errors.Is(err, ErrStorageDisabled) {
		t.Errorf("Restore: expected ErrStorageDisabled, got %v", err)
	}
	if err := rec.DiscardPersisted(context.Background()); !errors.Is(err, ErrStorageDisabled) {
		t.Errorf("DiscardPersisted: expected ErrStorageDisabled, got %v", err)
	}
}

func TestRecommender_Health(t *testing.T) {
	rec := mustNew(t)
	h := rec.Health(context.Background())
	if h.Status != "degraded" || h.Checks["index"] != "error" {
		t.Errorf("untrained health = %+v", h)
	}
	if _, ok := h.Checks["database"]; ok {
		t.Error("database check should be absent without storage")
	}

	if err := rec.Train(context.Background(), scenario()); err != nil {
		t.Fatalf("Train: %v", err)
	}
	if h := rec.Health(context.Background()); h.Status != "ok" {
		t.Errorf("trained health = %+v", h)
	}
}

func TestDocumentsFromJSON(t *testing.T) {
	docs, err := DocumentsFromJSON([]byte(`[{"id": 1000001, "content": "a"}, {"id": "x", "content": "b", "extra": 1}]`))
	if err != nil {
		t.Fatalf("DocumentsFromJSON: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "1000001" || docs[1].ID != "x" || docs[1].Content != "b" {
		t.Errorf("unexpected documents: %+v", docs)
	}

	_, err = DocumentsFromJSON([]byte(`[{"id": "a", "content": "x", "vector": [1]}]`))
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for reserved field, got %v", err)
	}
}

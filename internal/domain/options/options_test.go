package options

import (
	"errors"
	"math"
	"testing"

	"github.com/kailas-cloud/simdex/internal/domain"
)

func TestDefault(t *testing.T) {
	o := Default()
	if o.MaxVectorSize() != DefaultMaxVectorSize {
		t.Errorf("MaxVectorSize() = %d, want %d", o.MaxVectorSize(), DefaultMaxVectorSize)
	}
	if o.MaxSimilarDocuments() != Unbounded {
		t.Errorf("MaxSimilarDocuments() = %d, want unbounded", o.MaxSimilarDocuments())
	}
	if o.MinScore() != 0 {
		t.Errorf("MinScore() = %f", o.MinScore())
	}
	if o.IsZero() {
		t.Error("IsZero() = true for defaults")
	}
}

func TestNew_Valid(t *testing.T) {
	o, err := New(10, 5, 0.25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.MaxVectorSize() != 10 || o.MaxSimilarDocuments() != 5 || o.MinScore() != 0.25 {
		t.Errorf("unexpected options: %+v", o)
	}
}

func TestNew_Boundaries(t *testing.T) {
	for _, score := range []float64{0, 1} {
		if _, err := New(1, 1, score); err != nil {
			t.Errorf("min_score=%v: unexpected error: %v", score, err)
		}
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		vec, docs int
		score     float64
		field     string
	}{
		{"negative vector size", -1, 10, 0, "max_vector_size"},
		{"zero vector size", 0, 10, 0, "max_vector_size"},
		{"negative similar documents", 10, -1, 0, "max_similar_documents"},
		{"zero similar documents", 10, 0, 0, "max_similar_documents"},
		{"negative min score", 10, 10, -0.1, "min_score"},
		{"min score above one", 10, 10, 1.5, "min_score"},
		{"NaN min score", 10, 10, math.NaN(), "min_score"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.vec, tc.docs, tc.score)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, domain.ErrInvalidConfiguration) {
				t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
			}
			var ce *domain.ConfigurationError
			if !errors.As(err, &ce) || ce.Field != tc.field {
				t.Errorf("expected field %q, got %v", tc.field, err)
			}
		})
	}
}

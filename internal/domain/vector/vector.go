// Package vector holds sparse term-weight feature vectors and the cosine
// similarity used to compare them.
package vector

import (
	"math"
	"sort"
)

// Term is a single term-weight pair.
type Term struct {
	Word   string
	Weight float64
}

// Vector is a sparse feature vector of one document. Terms are kept sorted by
// Word for merge-join, and the Euclidean norm is computed once at construction.
type Vector struct {
	id    string
	terms []Term
	norm  float64
}

// New builds a Vector from a term-weight map. Zero, negative and non-finite
// weights are dropped: the vector only stores positive weights.
func New(id string, weights map[string]float64) Vector {
	terms := make([]Term, 0, len(weights))
	for w, x := range weights {
		if x > 0 && !math.IsInf(x, 1) {
			terms = append(terms, Term{Word: w, Weight: x})
		}
	}
	return FromTerms(id, terms)
}

// FromTerms builds a Vector from terms in any order. The slice is owned by the
// Vector afterwards. Duplicate words are not merged; callers pass unique words.
func FromTerms(id string, terms []Term) Vector {
	sort.Slice(terms, func(i, j int) bool { return terms[i].Word < terms[j].Word })
	var sum float64
	for _, t := range terms {
		sum += t.Weight * t.Weight
	}
	return Vector{id: id, terms: terms, norm: math.Sqrt(sum)}
}

// ID returns the owning document identifier.
func (v *Vector) ID() string { return v.id }

// Len returns the number of stored terms.
func (v *Vector) Len() int { return len(v.terms) }

// Norm returns the Euclidean norm.
func (v *Vector) Norm() float64 { return v.norm }

// Terms returns the terms sorted by word.
func (v *Vector) Terms() []Term { return v.terms }

// Weight returns the weight of word, 0 when absent.
func (v *Vector) Weight(word string) float64 {
	i := sort.Search(len(v.terms), func(i int) bool { return v.terms[i].Word >= word })
	if i < len(v.terms) && v.terms[i].Word == word {
		return v.terms[i].Weight
	}
	return 0
}

// Dot returns the dot product over shared terms.
func Dot(a, b *Vector) float64 {
	var dot float64
	i, j := 0, 0
	for i < len(a.terms) && j < len(b.terms) {
		switch {
		case a.terms[i].Word == b.terms[j].Word:
			dot += a.terms[i].Weight * b.terms[j].Weight
			i++
			j++
		case a.terms[i].Word < b.terms[j].Word:
			i++
		default:
			j++
		}
	}
	return dot
}

// Cosine returns the cosine similarity of a and b in [0, 1].
// Vectors without terms are unrelated to everything: the result is 0.
func Cosine(a, b *Vector) float64 {
	if a.norm == 0 || b.norm == 0 {
		return 0
	}
	s := Dot(a, b) / (a.norm * b.norm)
	switch {
	case s > 1:
		return 1
	case s < 0 || math.IsNaN(s):
		return 0
	}
	return s
}

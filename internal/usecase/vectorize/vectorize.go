// Package vectorize converts token sequences into TF-IDF weighted sparse
// vectors. IDF statistics are computed over exactly the documents passed to
// one Vectorize call.
package vectorize

import (
	"math"
	"sort"

	"github.com/kailas-cloud/simdex/internal/domain/document"
	"github.com/kailas-cloud/simdex/internal/domain/vector"
)

// Corpus holds document frequencies for one vectorization universe.
type Corpus struct {
	numDocs int
	docFreq map[string]int
}

// NewCorpus counts, for every term, the number of documents containing it.
func NewCorpus(docs []document.Processed) Corpus {
	df := make(map[string]int)
	for _, d := range docs {
		seen := make(map[string]struct{}, len(d.Tokens))
		for _, t := range d.Tokens {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}
	return Corpus{numDocs: len(docs), docFreq: df}
}

// NumDocs returns the number of documents in the corpus.
func (c Corpus) NumDocs() int { return c.numDocs }

// DocFreq returns how many documents contain term.
func (c Corpus) DocFreq(term string) int { return c.docFreq[term] }

// IDF returns 1 + ln(N / (1 + df)). For any term of the corpus df <= N, so the
// value is at least 1 - ln 2 and never negative or undefined.
func (c Corpus) IDF(term string) float64 {
	if c.numDocs == 0 {
		return 0
	}
	return 1 + math.Log(float64(c.numDocs)/float64(1+c.docFreq[term]))
}

// Vectorize weights every document's terms by tf × idf over docs and keeps the
// maxVectorSize heaviest terms of each. Equal weights keep first-occurrence order.
// The result has one vector per input document, in input order.
func Vectorize(docs []document.Processed, maxVectorSize int) []vector.Vector {
	corpus := NewCorpus(docs)
	out := make([]vector.Vector, len(docs))
	for i, d := range docs {
		out[i] = corpus.Vector(d, maxVectorSize)
	}
	return out
}

// Vector builds the weighted vector of one document against c.
func (c Corpus) Vector(d document.Processed, maxVectorSize int) vector.Vector {
	counts := make(map[string]int, len(d.Tokens))
	order := make([]string, 0, len(d.Tokens))
	for _, t := range d.Tokens {
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
	}

	terms := make([]vector.Term, 0, len(order))
	for _, t := range order {
		if w := float64(counts[t]) * c.IDF(t); w > 0 {
			terms = append(terms, vector.Term{Word: t, Weight: w})
		}
	}

	sort.SliceStable(terms, func(i, j int) bool { return terms[i].Weight > terms[j].Weight })
	if maxVectorSize > 0 && len(terms) > maxVectorSize {
		terms = terms[:maxVectorSize]
	}
	return vector.FromTerms(d.ID, terms)
}

package index

import "math"

// All requests every remaining entry of a ranked list.
const All = math.MaxInt

// Edge points at a similar document.
type Edge struct {
	ID    string
	Score float64
}

// Index maps document IDs to their ranked similar documents (descending score).
// An Index is never mutated after construction; a retrain builds a new one.
type Index struct {
	ids   []string
	lists map[string][]Edge
}

// New creates an Index. ids fixes the key order used by IDs; every id must have
// an entry in lists (possibly empty) and lists must not hold other keys.
// The Index takes ownership of both arguments.
func New(ids []string, lists map[string][]Edge) Index {
	for _, id := range ids {
		if lists[id] == nil {
			lists[id] = []Edge{}
		}
	}
	return Index{ids: ids, lists: lists}
}

// Empty returns an index without documents.
func Empty() Index {
	return Index{lists: map[string][]Edge{}}
}

// Query returns up to size edges of id's ranked list, starting at offset start.
// Unknown IDs and out-of-range offsets yield an empty slice. Negative start is
// treated as 0 and negative size as 0.
func (ix Index) Query(id string, start, size int) []Edge {
	list, ok := ix.lists[id]
	if !ok {
		return []Edge{}
	}
	if start < 0 {
		start = 0
	}
	if size < 0 {
		size = 0
	}
	if start >= len(list) {
		return []Edge{}
	}
	end := len(list)
	if size < end-start {
		end = start + size
	}
	out := make([]Edge, end-start)
	copy(out, list[start:end])
	return out
}

// Has reports whether id is a key of the index.
func (ix Index) Has(id string) bool {
	_, ok := ix.lists[id]
	return ok
}

// Total returns the length of id's ranked list, 0 when absent.
func (ix Index) Total(id string) int { return len(ix.lists[id]) }

// IDs returns the keys in training order.
func (ix Index) IDs() []string {
	out := make([]string, len(ix.ids))
	copy(out, ix.ids)
	return out
}

// Len returns the number of keys.
func (ix Index) Len() int { return len(ix.ids) }

// Edges returns the number of stored edges across all lists.
func (ix Index) Edges() int {
	n := 0
	for _, l := range ix.lists {
		n += len(l)
	}
	return n
}

// Range calls fn for every key in training order until fn returns false.
// fn must not modify the list.
func (ix Index) Range(fn func(id string, list []Edge) bool) {
	for _, id := range ix.ids {
		if !fn(id, ix.lists[id]) {
			return
		}
	}
}

package similarity

import "github.com/kailas-cloud/simdex/internal/domain/index"

// Graph holds raw, unfiltered candidate edges per document. Each document owns
// one slot; slots follow the order in which documents were first seen.
type Graph struct {
	ids   []string
	slots map[string]int
	edges [][]index.Edge
	pairs int
}

func newGraph(capacity int) *Graph {
	return &Graph{
		ids:   make([]string, 0, capacity),
		slots: make(map[string]int, capacity),
		edges: make([][]index.Edge, 0, capacity),
	}
}

// slot returns the slot of id, allocating one on first sight.
func (g *Graph) slot(id string) int {
	if s, ok := g.slots[id]; ok {
		return s
	}
	s := len(g.ids)
	g.slots[id] = s
	g.ids = append(g.ids, id)
	g.edges = append(g.edges, nil)
	return s
}

func (g *Graph) add(from int, to string, score float64) {
	g.edges[from] = append(g.edges[from], index.Edge{ID: to, Score: score})
}

// positions maps each neighbor already recorded on slot from to its position.
func (g *Graph) positions(from int) map[string]int {
	out := make(map[string]int, len(g.edges[from]))
	for k, e := range g.edges[from] {
		out[e.ID] = k
	}
	return out
}

// raise lifts the score of edge k on slot from to score if it is higher.
func (g *Graph) raise(from, k int, score float64) {
	if score > g.edges[from][k].Score {
		g.edges[from][k].Score = score
	}
}

// IDs returns the document IDs in slot order.
func (g *Graph) IDs() []string { return g.ids }

// Edges returns the candidate edges of id in generation order.
func (g *Graph) Edges(id string) []index.Edge {
	s, ok := g.slots[id]
	if !ok {
		return nil
	}
	return g.edges[s]
}

// Len returns the number of documents.
func (g *Graph) Len() int { return len(g.ids) }

// Pairs returns the number of document pairs scored to build the graph.
func (g *Graph) Pairs() int { return g.pairs }

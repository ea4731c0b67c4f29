// Package rank turns a raw candidate graph into a recommendation index.
package rank

import (
	"sort"

	"github.com/kailas-cloud/simdex/internal/domain/index"
)

// Candidates is the raw, unfiltered graph produced by similarity scoring.
type Candidates interface {
	IDs() []string
	Edges(id string) []index.Edge
}

// Rank keeps edges scoring strictly above minScore, orders each list by
// descending score and cuts it to maxSimilar entries. Equal scores keep their
// generation order. Every document of g stays a key, possibly with an empty list.
// maxSimilar <= 0 means no limit.
func Rank(g Candidates, minScore float64, maxSimilar int) index.Index {
	ids := append([]string(nil), g.IDs()...)
	lists := make(map[string][]index.Edge, len(ids))

	for _, id := range ids {
		edges := g.Edges(id)
		kept := make([]index.Edge, 0, len(edges))
		for _, e := range edges {
			if e.Score > minScore {
				kept = append(kept, e)
			}
		}

		sort.SliceStable(kept, func(i, j int) bool {
			return kept[i].Score > kept[j].Score
		})

		if maxSimilar > 0 && len(kept) > maxSimilar {
			kept = kept[:maxSimilar:maxSimilar]
		}
		lists[id] = kept
	}

	return index.New(ids, lists)
}

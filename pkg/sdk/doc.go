// Package simdex embeds the simdex content-similarity recommender in a Go
// program. Documents are tokenized, weighted with TF-IDF and compared by
// cosine similarity; every document keeps a ranked list of its most similar
// peers that can be paged, exported and imported.
//
// # In-process use
//
//	rec, _ := simdex.New(simdex.WithMaxSimilarDocuments(10), simdex.WithMinScore(0.05))
//	_ = rec.Train(ctx, []simdex.Document{
//	    {ID: "1", Content: "hello world"},
//	    {ID: "2", Content: "hello there"},
//	})
//	similar := rec.SimilarDocuments("1", 0, simdex.All)
//
// # Two corpora
//
// TrainBidirectional only relates documents across the two inputs, e.g.
// products to articles:
//
//	_ = rec.TrainBidirectional(ctx, products, articles)
//
// # Snapshots
//
// Export and Import move a trained index between processes; MarshalSnapshot
// and UnmarshalSnapshot do the same through JSON. With WithValkey or WithRedis
// the recommender also persists snapshots itself (Persist, Restore).
package simdex

package train

import (
	"context"

	"github.com/kailas-cloud/simdex/internal/domain/snapshot"
)

// Tokenizer turns raw document content into ordered feature terms.
type Tokenizer interface {
	Tokenize(text string) []string
}

// SnapshotStore persists exported snapshots by name.
type SnapshotStore interface {
	Save(ctx context.Context, name string, s *snapshot.Snapshot) error
	Load(ctx context.Context, name string) (snapshot.Snapshot, error)
	Delete(ctx context.Context, name string) error
}

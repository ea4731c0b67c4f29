// Package snapshot stores encoded recommendation snapshots in a key-value store.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/simdex/internal/db"
	"github.com/kailas-cloud/simdex/internal/domain"
	domsnap "github.com/kailas-cloud/simdex/internal/domain/snapshot"
)

const keySegment = "snapshot:"

// store is the consumer interface for snapshot storage (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo persists snapshots as JSON under <prefix>snapshot:<name>.
type Repo struct {
	store  store
	prefix string
}

// New creates a snapshot repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

func (r *Repo) key(name string) string {
	return r.prefix + keySegment + name
}

func checkName(name string) error {
	if name == "" {
		return domain.NewInputShapeError(-1, "snapshot name", "is required")
	}
	if strings.ContainsAny(name, "*?[]") {
		return domain.NewInputShapeError(-1, "snapshot name", "must not contain glob characters")
	}
	return nil
}

// Save encodes s and stores it under name, replacing any previous snapshot.
func (r *Repo) Save(ctx context.Context, name string, s *domsnap.Snapshot) error {
	if err := checkName(name); err != nil {
		return err
	}
	data, err := domsnap.Encode(s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := r.store.Set(ctx, r.key(name), data); err != nil {
		return fmt.Errorf("set snapshot: %w", err)
	}
	return nil
}

// Load reads and decodes the snapshot stored under name.
// Returns domain.ErrSnapshotNotFound if nothing is stored.
func (r *Repo) Load(ctx context.Context, name string) (domsnap.Snapshot, error) {
	if err := checkName(name); err != nil {
		return domsnap.Snapshot{}, err
	}
	data, err := r.store.Get(ctx, r.key(name))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domsnap.Snapshot{}, domain.ErrSnapshotNotFound
		}
		return domsnap.Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	s, err := domsnap.Decode(data)
	if err != nil {
		return domsnap.Snapshot{}, fmt.Errorf("decode snapshot %q: %w", name, err)
	}
	return s, nil
}

// Delete removes the snapshot stored under name.
// Returns domain.ErrSnapshotNotFound if nothing is stored.
func (r *Repo) Delete(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	ok, err := r.store.Exists(ctx, r.key(name))
	if err != nil {
		return fmt.Errorf("check snapshot: %w", err)
	}
	if !ok {
		return domain.ErrSnapshotNotFound
	}
	if err := r.store.Del(ctx, r.key(name)); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// List returns the names of all stored snapshots, sorted.
func (r *Repo) List(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, r.key("*"))
	if err != nil {
		return nil, fmt.Errorf("scan snapshots: %w", err)
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		if name, ok := strings.CutPrefix(k, r.prefix+keySegment); ok && name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

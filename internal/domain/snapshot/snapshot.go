// Package snapshot defines the exported form of a trained recommender: its
// options plus the full similarity index, and the JSON codec for it.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/kailas-cloud/simdex/internal/domain"
	"github.com/kailas-cloud/simdex/internal/domain/index"
	"github.com/kailas-cloud/simdex/internal/domain/options"
)

// Snapshot is a complete, self-contained copy of a recommender's state.
type Snapshot struct {
	Options options.Options
	Index   index.Index
}

type optionsDTO struct {
	MaxVectorSize       int     `json:"max_vector_size"`
	MaxSimilarDocuments int     `json:"max_similar_documents"`
	MinScore            float64 `json:"min_score"`
}

type edgeDTO struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

type snapshotDTO struct {
	Options *optionsDTO  `json:"options"`
	Index   *orderedList `json:"index"`
}

// orderedList is a JSON object whose key order is preserved in both directions.
type orderedList struct {
	ids   []string
	lists map[string][]edgeDTO
}

func (o *orderedList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range o.ids {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, fmt.Errorf("marshal id: %w", err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		list := o.lists[id]
		if list == nil {
			list = []edgeDTO{}
		}
		val, err := json.Marshal(list)
		if err != nil {
			return nil, fmt.Errorf("marshal list %q: %w", id, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (o *orderedList) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err //nolint:wrapcheck // surfaced as input error by Decode
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("index must be an object")
	}
	o.lists = make(map[string][]edgeDTO)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err //nolint:wrapcheck // surfaced as input error by Decode
		}
		id, ok := tok.(string)
		if !ok {
			return fmt.Errorf("index key must be a string")
		}
		if _, dup := o.lists[id]; dup {
			return fmt.Errorf("duplicate index key %q", id)
		}
		var list []edgeDTO
		if err := dec.Decode(&list); err != nil {
			return fmt.Errorf("index %q: %w", id, err)
		}
		if list == nil {
			list = []edgeDTO{}
		}
		o.ids = append(o.ids, id)
		o.lists[id] = list
	}
	if _, err := dec.Token(); err != nil {
		return err //nolint:wrapcheck // surfaced as input error by Decode
	}
	return nil
}

// Encode serializes s as JSON.
func Encode(s *Snapshot) ([]byte, error) {
	ol := &orderedList{lists: make(map[string][]edgeDTO, s.Index.Len())}
	s.Index.Range(func(id string, list []index.Edge) bool {
		dto := make([]edgeDTO, len(list))
		for i, e := range list {
			dto[i] = edgeDTO{ID: e.ID, Score: e.Score}
		}
		ol.ids = append(ol.ids, id)
		ol.lists[id] = dto
		return true
	})

	opts := s.Options
	if opts.IsZero() {
		opts = options.Default()
	}
	data, err := json.Marshal(snapshotDTO{
		Options: &optionsDTO{
			MaxVectorSize:       opts.MaxVectorSize(),
			MaxSimilarDocuments: opts.MaxSimilarDocuments(),
			MinScore:            opts.MinScore(),
		},
		Index: ol,
	})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses and validates a JSON snapshot. Options are validated with the
// same rules as freshly configured options; every ranked list must hold scores
// in [0, 1] in descending order and no self reference.
func Decode(data []byte) (Snapshot, error) {
	var dto snapshotDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return Snapshot{}, domain.NewInputShapeError(-1, "", "malformed snapshot: "+err.Error())
	}
	if dto.Options == nil {
		return Snapshot{}, domain.NewInputShapeError(-1, "options", "is required")
	}
	if dto.Index == nil {
		return Snapshot{}, domain.NewInputShapeError(-1, "index", "is required")
	}

	opts, err := options.New(dto.Options.MaxVectorSize, dto.Options.MaxSimilarDocuments, dto.Options.MinScore)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot options: %w", err)
	}

	lists := make(map[string][]index.Edge, len(dto.Index.ids))
	for _, id := range dto.Index.ids {
		list, err := convertList(id, dto.Index.lists[id])
		if err != nil {
			return Snapshot{}, err
		}
		lists[id] = list
	}

	return Snapshot{Options: opts, Index: index.New(dto.Index.ids, lists)}, nil
}

// Validate checks an in-memory snapshot against the same rules Decode applies.
func Validate(s *Snapshot) error {
	if s.Options.IsZero() {
		return domain.NewInputShapeError(-1, "options", "is required")
	}
	if _, err := options.New(
		s.Options.MaxVectorSize(), s.Options.MaxSimilarDocuments(), s.Options.MinScore(),
	); err != nil {
		return fmt.Errorf("snapshot options: %w", err)
	}
	var verr error
	s.Index.Range(func(id string, list []index.Edge) bool {
		verr = checkList(id, list)
		return verr == nil
	})
	return verr
}

func convertList(id string, dto []edgeDTO) ([]index.Edge, error) {
	list := make([]index.Edge, len(dto))
	for i, e := range dto {
		list[i] = index.Edge{ID: e.ID, Score: e.Score}
	}
	if err := checkList(id, list); err != nil {
		return nil, err
	}
	return list, nil
}

func checkList(id string, list []index.Edge) error {
	field := "index." + id
	seen := make(map[string]struct{}, len(list))
	for i, e := range list {
		if e.ID == id {
			return domain.NewInputShapeError(-1, field, "contains a self reference")
		}
		if _, dup := seen[e.ID]; dup {
			return domain.NewInputShapeError(-1, field, fmt.Sprintf("lists %q more than once", e.ID))
		}
		seen[e.ID] = struct{}{}
		if math.IsNaN(e.Score) || e.Score < 0 || e.Score > 1 {
			return domain.NewInputShapeError(-1, field, fmt.Sprintf("score %v out of range", e.Score))
		}
		if i > 0 && list[i-1].Score < e.Score {
			return domain.NewInputShapeError(-1, field, "is not sorted by descending score")
		}
	}
	return nil
}

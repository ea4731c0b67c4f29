package snapshot

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/kailas-cloud/simdex/internal/domain"
	"github.com/kailas-cloud/simdex/internal/domain/index"
	"github.com/kailas-cloud/simdex/internal/domain/options"
)

func sampleSnapshot(t *testing.T) Snapshot {
	t.Helper()
	opts, err := options.New(50, 10, 0.1)
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	ix := index.New([]string{"z", "a", "m"}, map[string][]index.Edge{
		"z": {{ID: "a", Score: 0.8}, {ID: "m", Score: 0.3}},
		"a": {{ID: "z", Score: 0.8}},
		"m": {{ID: "z", Score: 0.3}},
	})
	return Snapshot{Options: opts, Index: ix}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	src := sampleSnapshot(t)
	data, err := Encode(&src)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Options != src.Options {
		t.Errorf("options: got %+v, want %+v", got.Options, src.Options)
	}
	if !reflect.DeepEqual(got.Index.IDs(), []string{"z", "a", "m"}) {
		t.Errorf("key order not preserved: %v", got.Index.IDs())
	}
	for _, id := range src.Index.IDs() {
		for start := 0; start < 3; start++ {
			for size := 0; size < 3; size++ {
				want := src.Index.Query(id, start, size)
				have := got.Index.Query(id, start, size)
				if !reflect.DeepEqual(have, want) {
					t.Errorf("Query(%q,%d,%d): got %v, want %v", id, start, size, have, want)
				}
			}
		}
	}
}

func TestEncode_Format(t *testing.T) {
	src := sampleSnapshot(t)
	data, err := Encode(&src)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"options":{"max_vector_size":50,"max_similar_documents":10,"min_score":0.1},` +
		`"index":{"z":[{"id":"a","score":0.8},{"id":"m","score":0.3}],"a":[{"id":"z","score":0.8}],` +
		`"m":[{"id":"z","score":0.3}]}}`
	if string(data) != want {
		t.Errorf("unexpected encoding:\ngot:  %s\nwant: %s", data, want)
	}
}

func TestEncode_EmptyListsAndDefaults(t *testing.T) {
	s := Snapshot{Index: index.New([]string{"a"}, map[string][]index.Edge{})}
	data, err := Encode(&s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(data), `"index":{"a":[]}`) {
		t.Errorf("expected empty list for a, got %s", data)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Options != options.Default() {
		t.Errorf("expected default options, got %+v", got.Options)
	}
	if !got.Index.Has("a") {
		t.Error("key a lost in round trip")
	}
}

func TestDecode_InvalidOptions(t *testing.T) {
	tests := []string{
		`{"options":{"max_vector_size":-1,"max_similar_documents":5,"min_score":0},"index":{}}`,
		`{"options":{"max_vector_size":5,"max_similar_documents":-1,"min_score":0},"index":{}}`,
		`{"options":{"max_vector_size":5,"max_similar_documents":5,"min_score":2},"index":{}}`,
	}
	for _, data := range tests {
		_, err := Decode([]byte(data))
		if !errors.Is(err, domain.ErrInvalidConfiguration) {
			t.Errorf("%s: expected ErrInvalidConfiguration, got %v", data, err)
		}
	}
}

func TestDecode_Corrupt(t *testing.T) {
	opts := `"options":{"max_vector_size":5,"max_similar_documents":5,"min_score":0}`
	tests := []struct {
		name string
		data string
	}{
		{"not json", `garbage`},
		{"missing options", `{"index":{}}`},
		{"missing index", `{` + opts + `}`},
		{"index is array", `{` + opts + `,"index":[]}`},
		{"duplicate key", `{` + opts + `,"index":{"a":[],"a":[]}}`},
		{"self reference", `{` + opts + `,"index":{"a":[{"id":"a","score":0.5}]}}`},
		{"score above one", `{` + opts + `,"index":{"a":[{"id":"b","score":1.5}]}}`},
		{"negative score", `{` + opts + `,"index":{"a":[{"id":"b","score":-0.5}]}}`},
		{"duplicate neighbor", `{` + opts + `,"index":{"a":[{"id":"b","score":0.5},{"id":"b","score":0.5}]}}`},
		{"unsorted", `{` + opts + `,"index":{"a":[{"id":"b","score":0.1},{"id":"c","score":0.5}]}}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.data))
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	s := sampleSnapshot(t)
	if err := Validate(&s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := Snapshot{
		Options: options.Default(),
		Index: index.New([]string{"a"}, map[string][]index.Edge{
			"a": {{ID: "a", Score: 0.4}},
		}),
	}
	if err := Validate(&bad); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for self reference, got %v", err)
	}

	if err := Validate(&Snapshot{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for missing options, got %v", err)
	}
}

package index

import (
	"reflect"
	"testing"
)

func sample() Index {
	return New([]string{"a", "b", "c"}, map[string][]Edge{
		"a": {{ID: "b", Score: 0.9}, {ID: "c", Score: 0.5}, {ID: "d", Score: 0.1}},
		"b": {{ID: "a", Score: 0.9}},
		"c": nil,
	})
}

func TestQuery(t *testing.T) {
	ix := sample()
	tests := []struct {
		name        string
		id          string
		start, size int
		want        []string
	}{
		{"all", "a", 0, All, []string{"b", "c", "d"}},
		{"first page", "a", 0, 2, []string{"b", "c"}},
		{"second page", "a", 2, 2, []string{"d"}},
		{"offset past end", "a", 5, 2, []string{}},
		{"zero size", "a", 0, 0, []string{}},
		{"negative start clamps", "a", -3, 1, []string{"b"}},
		{"negative size clamps", "a", 0, -1, []string{}},
		{"unknown id", "zzz", 0, All, []string{}},
		{"empty list", "c", 0, All, []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ix.Query(tc.id, tc.start, tc.size)
			if got == nil {
				t.Fatal("Query returned nil, want empty slice")
			}
			ids := make([]string, len(got))
			for i, e := range got {
				ids[i] = e.ID
			}
			if !reflect.DeepEqual(ids, tc.want) {
				t.Errorf("got %v, want %v", ids, tc.want)
			}
		})
	}
}

func TestQuery_PaginationConsistency(t *testing.T) {
	ix := sample()
	for n := 0; n <= 4; n++ {
		for m := 0; m <= 4; m++ {
			joined := append(ix.Query("a", 0, n), ix.Query("a", n, m)...)
			want := ix.Query("a", 0, n+m)
			if !reflect.DeepEqual(joined, want) {
				t.Errorf("n=%d m=%d: got %v, want %v", n, m, joined, want)
			}
		}
	}
}

func TestQuery_ReturnsCopy(t *testing.T) {
	ix := sample()
	got := ix.Query("a", 0, All)
	got[0].Score = -1
	if ix.Query("a", 0, 1)[0].Score != 0.9 {
		t.Error("Query result aliases internal storage")
	}
}

func TestKeysAndCounts(t *testing.T) {
	ix := sample()
	if !reflect.DeepEqual(ix.IDs(), []string{"a", "b", "c"}) {
		t.Errorf("IDs() = %v", ix.IDs())
	}
	if !ix.Has("c") {
		t.Error("Has(c) = false, want true for empty list")
	}
	if ix.Has("d") {
		t.Error("Has(d) = true")
	}
	if ix.Len() != 3 || ix.Edges() != 4 || ix.Total("a") != 3 {
		t.Errorf("Len=%d Edges=%d Total(a)=%d", ix.Len(), ix.Edges(), ix.Total("a"))
	}

	var seen []string
	ix.Range(func(id string, _ []Edge) bool {
		seen = append(seen, id)
		return id != "b"
	})
	if !reflect.DeepEqual(seen, []string{"a", "b"}) {
		t.Errorf("Range visited %v", seen)
	}
}

func TestEmpty(t *testing.T) {
	ix := Empty()
	if ix.Len() != 0 || len(ix.Query("a", 0, All)) != 0 {
		t.Error("empty index should have no entries")
	}
}

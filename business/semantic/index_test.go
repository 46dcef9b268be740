//go:build !integration

package semantic

import "testing"

func TestIndexAdd(t *testing.T) {
	x := NewIndex()

	added, err := x.Add([]int64{1, 2, 1}, [][]float32{{1, 0}, {0, 1}, {1, 1}})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if added != 2 || x.Len() != 2 {
		t.Fatalf("added=%d len=%d, want 2/2", added, x.Len())
	}

	v, _ := x.Vector(1)
	if v[0] != 1 || v[1] != 0 {
		t.Errorf("duplicate id overwrote the first vector: %v", v)
	}

	if _, err := x.Add([]int64{3}, [][]float32{{1, 0, 0}}); err == nil {
		t.Error("expected dimension mismatch")
	}
	if x.Len() != 2 {
		t.Errorf("failed Add changed the index: len=%d", x.Len())
	}

	if _, err := x.Add([]int64{3}, nil); err == nil {
		t.Error("expected length mismatch")
	}
}

func TestIndexSearch(t *testing.T) {
	x := NewIndex()
	if _, err := x.Add([]int64{5, 6, 7}, [][]float32{{0, 1}, {1, 0}, {0.6, 0.8}}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		query []float32
		k     int
		want  []int64
	}{
		{"x axis", []float32{1, 0}, 3, []int64{6, 7, 5}},
		{"y axis top 2", []float32{0, 1}, 2, []int64{5, 7}},
		{"k larger than index", []float32{0, 1}, 10, []int64{5, 7, 6}},
		{"k zero", []float32{0, 1}, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := x.Search(tt.query, tt.k)
			if err != nil {
				t.Fatal(err)
			}
			if len(hits) != len(tt.want) {
				t.Fatalf("got %d hits, want %d", len(hits), len(tt.want))
			}
			for i, h := range hits {
				if h.ID != tt.want[i] {
					t.Errorf("hit %d = %d, want %d", i, h.ID, tt.want[i])
				}
			}
		})
	}

	if _, err := x.Search([]float32{1}, 1); err == nil {
		t.Error("expected query dimension error")
	}
}

func TestIndexEntries(t *testing.T) {
	x := NewIndex()
	if _, err := x.Add([]int64{1, 2, 3}, [][]float32{{1}, {2}, {3}}); err != nil {
		t.Fatal(err)
	}

	ids, vecs := x.Entries(1)
	if len(ids) != 2 || ids[0] != 2 || vecs[1][0] != 3 {
		t.Errorf("Entries(1) = %v %v", ids, vecs)
	}
	if ids, _ := x.Entries(3); ids != nil {
		t.Errorf("Entries past the end = %v", ids)
	}

	if err := x.Replace([]int64{9}, [][]float32{{1, 1}}); err != nil {
		t.Fatal(err)
	}
	if x.Len() != 1 || x.Dimension() != 2 || x.Has(1) {
		t.Errorf("Replace left stale state: len=%d dim=%d", x.Len(), x.Dimension())
	}
}

func TestNormalize(t *testing.T) {
	v := normalize([]float32{3, 4})
	if v[0] != 0.6 || v[1] != 0.8 {
		t.Errorf("normalize = %v", v)
	}

	zero := normalize([]float32{0, 0})
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector = %v", zero)
	}
}

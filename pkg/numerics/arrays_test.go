package numerics

import (
	"testing"
)

func TestIsPermutationOf(t *testing.T) {
	tests := []struct {
		name string
		a, b []int
		want bool
	}{
		{"both empty", nil, nil, true},
		{"identical", []int{1, 2, 3}, []int{1, 2, 3}, true},
		{"reordered", []int{3, 1, 2}, []int{1, 2, 3}, true},
		{"repeated elements", []int{1, 1, 2}, []int{2, 1, 1}, true},
		{"multiplicity mismatch", []int{1, 1, 2}, []int{1, 2, 2}, false},
		{"different lengths", []int{1, 2}, []int{1, 2, 3}, false},
		{"disjoint", []int{1, 2}, []int{3, 4}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPermutationOf(tt.a, tt.b); got != tt.want {
				t.Errorf("IsPermutationOf(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestIsPermutationOf_Strings(t *testing.T) {
	if !IsPermutationOf([]string{"iw1", "iw2"}, []string{"iw2", "iw1"}) {
		t.Error("string permutation not recognised")
	}
}

func TestUnique(t *testing.T) {
	tests := []struct {
		name string
		in   []int
		want []int
	}{
		{"empty", nil, []int{}},
		{"no duplicates", []int{3, 1, 2}, []int{3, 1, 2}},
		{"duplicates keep first position", []int{2, 1, 2, 3, 1}, []int{2, 1, 3}},
		{"all equal", []int{5, 5, 5}, []int{5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Unique(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("Unique(%v) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("element %d: got %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestIsSorted(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want bool
	}{
		{"empty", nil, true},
		{"single", []float64{1}, true},
		{"increasing", []float64{1, 2, 3}, true},
		{"equal runs allowed", []float64{1, 1, 2}, true},
		{"descending", []float64{3, 2}, false},
		{"dip in the middle", []float64{1, 3, 2, 4}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSorted(tt.in); got != tt.want {
				t.Errorf("IsSorted(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCumulativeSum(t *testing.T) {
	got := CumulativeSum([]int{4, 3, 7})
	want := []int{4, 7, 14}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestCumulativeSum_Floats(t *testing.T) {
	got := CumulativeSum([]float64{0.5, 0.25, 0.25})
	floatsEqual(t, got, []float64{0.5, 0.75, 1.0}, 1e-15)
}

func TestCumulativeSum_Empty(t *testing.T) {
	if got := CumulativeSum([]float64(nil)); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}

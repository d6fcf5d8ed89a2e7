package network

import (
	"reflect"
	"testing"
)

func TestDependencySetAddAndDedup(t *testing.T) {
	d := NewDependencySet()
	d.Add(5, 0)
	d.Add(5, 1)
	d.Add(5, 0) // duplicate
	d.Add(6, 1)

	if d.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", d.Len())
	}
	want := []Dependency{{5, 0}, {5, 1}, {6, 1}}
	if got := d.Pairs(); !reflect.DeepEqual(got, want) {
		t.Errorf("Pairs() = %v, want %v", got, want)
	}
	if !d.Contains(5, 1) {
		t.Error("Contains(5, 1) = false, want true")
	}
	if d.Contains(7, 0) {
		t.Error("Contains(7, 0) = true, want false")
	}
}

func TestDependencySetClear(t *testing.T) {
	d := NewDependencySet()
	d.Add(1, 2)
	d.Clear()
	if d.Len() != 0 {
		t.Fatalf("Len() after Clear = %d, want 0", d.Len())
	}
	// The same pair is insertable again.
	d.Add(1, 2)
	if d.Len() != 1 {
		t.Errorf("Len() after re-add = %d, want 1", d.Len())
	}
}

func TestDependencyMatrixRoundTrip(t *testing.T) {
	d := NewDependencySet()
	d.Add(0, 1)
	d.Add(2, 0)
	d.Add(2, 3)

	m, err := d.Matrix(3, 4)
	if err != nil {
		t.Fatalf("Matrix: %v", err)
	}
	if !m[0][1] || !m[2][0] || !m[2][3] {
		t.Errorf("matrix missing recorded pairs: %v", m)
	}
	if m[1][1] {
		t.Error("matrix has pair never recorded")
	}

	got := DependenciesFromMatrix(m)
	// Row-major decode order.
	want := []Dependency{{0, 1}, {2, 0}, {2, 3}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DependenciesFromMatrix = %v, want %v", got, want)
	}
}

func TestDependencyMatrixOutOfRange(t *testing.T) {
	d := NewDependencySet()
	d.Add(5, 0)
	if _, err := d.Matrix(3, 4); err == nil {
		t.Error("Matrix with out-of-range equation succeeded, want error")
	}

	d = NewDependencySet()
	d.Add(0, 9)
	if _, err := d.Matrix(3, 4); err == nil {
		t.Error("Matrix with out-of-range cell succeeded, want error")
	}
}

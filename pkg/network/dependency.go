package network

import "fmt"

// Dependency asserts that the residual equation at index Equation depends on
// the state of mesh cell Cell. The full set sizes the Jacobian nonzero
// structure; recording a pair that is structurally zero is tolerated,
// omitting a nonzero pair is not.
type Dependency struct {
	Equation int
	Cell     int
}

// DependencySet is an insertion-ordered collection of unique dependency
// pairs. It is rebuilt whenever the topology changes, normally once at
// setup.
type DependencySet struct {
	pairs []Dependency
	seen  map[Dependency]bool
}

// NewDependencySet returns an empty set.
func NewDependencySet() *DependencySet {
	return &DependencySet{seen: make(map[Dependency]bool)}
}

// Add records a pair. Duplicates are ignored; first insertion order is
// kept.
func (d *DependencySet) Add(equation, cell int) {
	pair := Dependency{Equation: equation, Cell: cell}
	if d.seen[pair] {
		return
	}
	d.seen[pair] = true
	d.pairs = append(d.pairs, pair)
}

// Len returns the number of unique pairs.
func (d *DependencySet) Len() int { return len(d.pairs) }

// Contains reports whether the pair has been recorded.
func (d *DependencySet) Contains(equation, cell int) bool {
	return d.seen[Dependency{Equation: equation, Cell: cell}]
}

// Pairs returns the recorded pairs in insertion order.
func (d *DependencySet) Pairs() []Dependency {
	return append([]Dependency(nil), d.pairs...)
}

// Clear removes all pairs.
func (d *DependencySet) Clear() {
	d.pairs = d.pairs[:0]
	d.seen = make(map[Dependency]bool)
}

// Matrix materializes the set as a dense boolean matrix of the given
// dimensions, suitable for a cross-rank logical-OR reduction. Pairs outside
// the dimensions are an error.
func (d *DependencySet) Matrix(equations, cells int) ([][]bool, error) {
	m := make([][]bool, equations)
	for i := range m {
		m[i] = make([]bool, cells)
	}
	for _, p := range d.pairs {
		if p.Equation < 0 || p.Equation >= equations || p.Cell < 0 || p.Cell >= cells {
			return nil, fmt.Errorf("dependency (%d, %d) outside %dx%d matrix",
				p.Equation, p.Cell, equations, cells)
		}
		m[p.Equation][p.Cell] = true
	}
	return m, nil
}

// DependenciesFromMatrix decodes a boolean matrix back into pairs, row
// major. Used to inspect a reduced matrix on the gathering rank.
func DependenciesFromMatrix(m [][]bool) []Dependency {
	var pairs []Dependency
	for eq, row := range m {
		for cell, set := range row {
			if set {
				pairs = append(pairs, Dependency{Equation: eq, Cell: cell})
			}
		}
	}
	return pairs
}

package dist

import "fmt"

// Vector owns the rank-local segment of one distributed unknown vector.
// Direct access to the backing storage is scoped: Update acquires the
// segment, runs the caller's function against it and releases it again on
// every exit path. No two acquisitions of the same vector may be open at
// once. The engine is single-threaded per rank, so acquisition state needs
// no locking; the pairing guard catches re-entrant misuse.
type Vector struct {
	name       string
	rangeStart int
	data       []float64
	acquired   bool
	destroyed  bool
}

// NewVector allocates the local segment of a distributed vector. rangeStart
// is the global position of this rank's first entry.
func NewVector(name string, localSize, rangeStart int) *Vector {
	return &Vector{
		name:       name,
		rangeStart: rangeStart,
		data:       make([]float64, localSize),
	}
}

// Name returns the vector's identifying name.
func (v *Vector) Name() string { return v.name }

// RangeStart returns the global position of this rank's first entry.
func (v *Vector) RangeStart() int { return v.rangeStart }

// LocalSize returns the number of locally owned entries.
func (v *Vector) LocalSize() int { return len(v.data) }

// Acquired reports whether the backing storage is currently acquired.
func (v *Vector) Acquired() bool { return v.acquired }

// Update acquires the backing storage, passes it to fn and releases it when
// fn returns, whether or not fn fails. A nested acquisition of the same
// vector fails with ErrVectorBusy.
func (v *Vector) Update(fn func(data []float64) error) error {
	if v.destroyed {
		return fmt.Errorf("%w: %s", ErrVectorDestroyed, v.name)
	}
	if v.acquired {
		return fmt.Errorf("%w: %s", ErrVectorBusy, v.name)
	}
	v.acquired = true
	defer func() { v.acquired = false }()
	return fn(v.data)
}

// Destroy releases the backing storage. Further acquisitions fail with
// ErrVectorDestroyed.
func (v *Vector) Destroy() {
	v.data = nil
	v.destroyed = true
}

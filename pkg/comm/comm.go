// Package comm supplies the collective operations the network engine needs
// when node ownership is spread across ranks: a logical-OR reduction of
// per-rank dependency matrices and an all-reduce sum for cross-rank flow
// totals. Single-process runs use Local; multi-process runs use Bus, which
// carries the collectives over a full mesh of nanomsg BUS sockets.
package comm

import "errors"

var (
	// ErrClosed is returned by collective calls after Close.
	ErrClosed = errors.New("communicator closed")

	// ErrRaggedMatrix is returned when a boolean matrix's rows have
	// unequal lengths.
	ErrRaggedMatrix = errors.New("matrix rows have unequal lengths")

	// ErrShapeMismatch is returned when ranks contribute differently
	// shaped operands to the same collective.
	ErrShapeMismatch = errors.New("collective operands differ in shape across ranks")

	// ErrProtocol is returned when a peer's message does not match the
	// collective in progress.
	ErrProtocol = errors.New("unexpected collective message")
)

// Communicator provides the rank identity and collective operations used by
// the engine. All ranks must call the same collectives in the same order;
// the implementations detect and reject interleaving mismatches.
type Communicator interface {
	// Rank returns this process's rank in [0, Size).
	Rank() int

	// Size returns the number of participating ranks.
	Size() int

	// ReduceOr merges per-rank boolean matrices with element-wise OR,
	// gathering the result to root. The root receives the merged matrix;
	// every other rank receives nil. All ranks must pass matrices of the
	// same shape.
	ReduceOr(local [][]bool, root int) ([][]bool, error)

	// SumAll element-wise sums the per-rank slices and returns the total
	// on every rank. All ranks must pass slices of the same length.
	SumAll(local []float64) ([]float64, error)

	// Barrier blocks until every rank has entered it.
	Barrier() error

	// Close releases transport resources. Collectives fail after Close.
	Close() error
}

// Local is the single-rank Communicator: collectives are identities.
type Local struct {
	closed bool
}

// NewLocal returns a Communicator for a single-process run.
func NewLocal() *Local { return &Local{} }

func (l *Local) Rank() int { return 0 }
func (l *Local) Size() int { return 1 }

func (l *Local) ReduceOr(local [][]bool, root int) ([][]bool, error) {
	if l.closed {
		return nil, ErrClosed
	}
	if _, err := matrixShape(local); err != nil {
		return nil, err
	}
	out := make([][]bool, len(local))
	for i, row := range local {
		out[i] = append([]bool(nil), row...)
	}
	return out, nil
}

func (l *Local) SumAll(local []float64) ([]float64, error) {
	if l.closed {
		return nil, ErrClosed
	}
	return append([]float64(nil), local...), nil
}

func (l *Local) Barrier() error {
	if l.closed {
		return ErrClosed
	}
	return nil
}

func (l *Local) Close() error {
	l.closed = true
	return nil
}

// matrixShape validates that m is rectangular and returns its column count.
func matrixShape(m [][]bool) (int, error) {
	if len(m) == 0 {
		return 0, nil
	}
	cols := len(m[0])
	for _, row := range m[1:] {
		if len(row) != cols {
			return 0, ErrRaggedMatrix
		}
	}
	return cols, nil
}

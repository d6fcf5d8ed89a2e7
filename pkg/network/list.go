package network

// Visit is a traversal verdict returned by a visitor for each item.
type Visit int

const (
	// Continue proceeds to the next item.
	Continue Visit = iota
	// Stop aborts the current traversal. Only the traversal stops; the
	// surrounding pass sequence is unaffected.
	Stop
)

// List is an append-only arena preserving insertion order. Indices returned
// by Append are stable for the life of the list; both traversal directions
// follow insertion order exactly, which the reinjector two-phase protocol
// depends on.
type List[T any] struct {
	items []T
}

// NewList returns an empty list with room for n items.
func NewList[T any](n int) *List[T] {
	return &List[T]{items: make([]T, 0, n)}
}

// Append adds an item and returns its stable index.
func (l *List[T]) Append(item T) int {
	l.items = append(l.items, item)
	return len(l.items) - 1
}

// Len returns the number of items.
func (l *List[T]) Len() int { return len(l.items) }

// At returns the item at index i. The index must come from Append.
func (l *List[T]) At(i int) T { return l.items[i] }

// Forward visits items in insertion order until the visitor returns Stop.
func (l *List[T]) Forward(visit func(i int, item T) Visit) {
	for i, item := range l.items {
		if visit(i, item) == Stop {
			return
		}
	}
}

// Backward visits items in exact reverse insertion order until the visitor
// returns Stop.
func (l *List[T]) Backward(visit func(i int, item T) Visit) {
	for i := len(l.items) - 1; i >= 0; i-- {
		if visit(i, l.items[i]) == Stop {
			return
		}
	}
}

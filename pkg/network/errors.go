package network

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrNodeNotFound      = errors.New("node not found")
	ErrDuplicateName     = errors.New("duplicate node name")
	ErrNetworkDestroyed  = errors.New("network is destroyed")
	ErrNotOwned          = errors.New("node not owned by local rank")
	ErrBlockOutOfRange   = errors.New("unknown block outside backing array")
	ErrBadTargetOrder    = errors.New("target priority order is not a permutation")
	ErrUnsortedTable     = errors.New("control table times are not increasing")
	ErrUnknownParameter  = errors.New("unknown control parameter")
	ErrSinkNotRegistered = errors.New("overflow sink not registered before referencing reinjector")
	ErrNotFinalized      = errors.New("network not finalized")
	ErrFinalized         = errors.New("network topology is finalized")
)

// NetworkError provides structured error information for engine operations.
type NetworkError struct {
	Op      string // Operation that failed (e.g., "Step", "Distribute")
	Entity  string // Entity kind (e.g., "source", "group", "reinjector")
	Name    string // Node or control name (if applicable)
	Cause   error  // Underlying error
	Context string // Additional context
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	if e.Name != "" {
		if e.Context != "" {
			return fmt.Sprintf("%s %s %q (%s): %v", e.Op, e.Entity, e.Name, e.Context, e.Cause)
		}
		return fmt.Sprintf("%s %s %q: %v", e.Op, e.Entity, e.Name, e.Cause)
	}
	if e.Context != "" {
		return fmt.Sprintf("%s %s (%s): %v", e.Op, e.Entity, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error or its cause.
func (e *NetworkError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// ErrorBuilder provides a fluent interface for building NetworkErrors.
type ErrorBuilder struct {
	err NetworkError
}

// NewError creates a new error builder with the given operation.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: NetworkError{Op: op}}
}

// Source sets the entity to "source" with the given name.
func (b *ErrorBuilder) Source(name string) *ErrorBuilder {
	b.err.Entity = "source"
	b.err.Name = name
	return b
}

// Group sets the entity to "group" with the given name.
func (b *ErrorBuilder) Group(name string) *ErrorBuilder {
	b.err.Entity = "group"
	b.err.Name = name
	return b
}

// Reinjector sets the entity to "reinjector" with the given name.
func (b *ErrorBuilder) Reinjector(name string) *ErrorBuilder {
	b.err.Entity = "reinjector"
	b.err.Name = name
	return b
}

// Control sets the entity to "control" with the given name.
func (b *ErrorBuilder) Control(name string) *ErrorBuilder {
	b.err.Entity = "control"
	b.err.Name = name
	return b
}

// Vector sets the entity to "vector" with the given name.
func (b *ErrorBuilder) Vector(name string) *ErrorBuilder {
	b.err.Entity = "vector"
	b.err.Name = name
	return b
}

// Node sets the entity from a node's kind and name.
func (b *ErrorBuilder) Node(n Node) *ErrorBuilder {
	b.err.Entity = n.Kind().String()
	b.err.Name = n.Name()
	return b
}

// Context sets additional context information.
func (b *ErrorBuilder) Context(ctx string) *ErrorBuilder {
	b.err.Context = ctx
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Err returns the error as an error interface.
func (b *ErrorBuilder) Err() error {
	return &b.err
}

// NodeNotFoundError creates a not found error for a named node.
func NodeNotFoundError(op, name string) error {
	return &NetworkError{Op: op, Entity: "node", Name: name, Cause: ErrNodeNotFound}
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound)
}

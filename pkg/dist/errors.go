package dist

import "errors"

// Common sentinel errors
var (
	ErrVectorBusy      = errors.New("vector storage already acquired")
	ErrVectorDestroyed = errors.New("vector storage destroyed")
	ErrIndexOutOfRange = errors.New("local index out of range")
)

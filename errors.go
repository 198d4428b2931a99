package hwvg

import (
	"errors"
	"fmt"
)

// Error taxonomy.
//
// Geometry anomalies (degenerate paths, NaN coordinates) are not errors:
// tessellation recovers locally by producing an empty mesh. Everything that
// reaches a caller through the draw/flush chain falls into one of the
// categories below.
var (
	// ErrResourceExhausted is returned when a GPU resource allocation fails
	// (out of texture memory, atlas space). Recoverable: callers may evict
	// and retry, or drop the frame.
	ErrResourceExhausted = errors.New("hwvg: GPU resource exhausted")

	// ErrCapacityExceeded is returned when a hard limit is hit (maximum
	// atlas page count, maximum batch size). Never silently truncated.
	ErrCapacityExceeded = errors.New("hwvg: capacity exceeded")

	// ErrInvalidState is returned when an operation is issued in a state
	// that cannot accept it (e.g. drawing outside BeginFrame/EndFrame).
	ErrInvalidState = errors.New("hwvg: invalid renderer state")

	// ErrFrameAbandoned is returned by EndFrame after Abandon was called
	// for the current frame.
	ErrFrameAbandoned = errors.New("hwvg: frame abandoned")
)

// BackendError wraps an opaque failure reported by the render context
// (e.g. device lost). Fatal for the current frame; the caller decides
// whether to reinitialize the backend.
type BackendError struct {
	// Op is the context operation that failed ("CreateTexture", "Draw", ...).
	Op string

	// Err is the underlying backend error.
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("hwvg: backend %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// backendErr wraps err as a BackendError unless it is nil.
func backendErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &BackendError{Op: op, Err: err}
}

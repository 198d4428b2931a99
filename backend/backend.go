package backend

import (
	"errors"

	"github.com/gogpu/hwvg/gpucore"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not
	// available on this platform or failed to construct.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before
	// the backend has a frame in flight.
	ErrNotInitialized = errors.New("backend: not initialized")
)

// Well-known backend names.
const (
	// BackendWGPU renders through a wgpu hal device provided by the host.
	BackendWGPU = "wgpu"

	// BackendSoftware rasterizes on the CPU. Always available.
	BackendSoftware = "software"
)

// Factory constructs a rendering context. A factory returning an error
// signals that the backend cannot run in the current environment; the
// registry then falls through to the next candidate.
type Factory func() (gpucore.Context, error)

package wgpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/hwvg/backend"
	"github.com/gogpu/hwvg/gpucore"
)

// NewFromProvider constructs a context from a host device provider,
// for example a gogpu application context. The backend receives the
// device from the host, it does not create one, so shared GPU
// resources and lifetime stay under host control.
//
// The provider's device and queue must be wgpu hal types, either
// through HalDevice()/HalQueue() accessors or directly.
func NewFromProvider(provider gpucontext.DeviceProvider) (*Context, error) {
	if provider == nil {
		return nil, ErrNoDevice
	}

	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	if hp, ok := provider.(halProvider); ok {
		device, dok := hp.HalDevice().(hal.Device)
		queue, qok := hp.HalQueue().(hal.Queue)
		if dok && qok && device != nil && queue != nil {
			return New(device, queue)
		}
	}

	device, dok := provider.Device().(hal.Device)
	queue, qok := provider.Queue().(hal.Queue)
	if !dok || !qok || device == nil || queue == nil {
		return nil, fmt.Errorf("wgpu: provider does not expose hal device and queue: %w", ErrNoDevice)
	}
	return New(device, queue)
}

// RegisterProvider makes the wgpu backend selectable through the
// backend registry, constructing contexts from the given provider.
func RegisterProvider(provider gpucontext.DeviceProvider) {
	backend.Register(backend.BackendWGPU, func() (gpucore.Context, error) {
		return NewFromProvider(provider)
	})
}

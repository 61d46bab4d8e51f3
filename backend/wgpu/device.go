package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/shaderscript"
	"github.com/gogpu/shaderscript/backend"
)

// Environment errors.
var (
	// ErrNoGPU is returned when no usable adapter is found.
	ErrNoGPU = errors.New("wgpu: no GPU adapter available")

	// ErrClosed is returned when operating on a closed environment.
	ErrClosed = errors.New("wgpu: environment is closed")

	// ErrInvalidDimensions is returned when width or height is not positive.
	ErrInvalidDimensions = errors.New("wgpu: invalid dimensions")
)

func init() {
	backend.Register(backend.NameWGPU, func(width, height int) (shaderscript.Environment, error) {
		return New(width, height)
	})
}

// initDevice creates an instance, picks an adapter (discrete or integrated
// preferred), and opens a device.
func (e *Env) initDevice() error {
	halBackend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("%w: vulkan backend not available", ErrNoGPU)
	}
	instance, err := halBackend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("wgpu: create instance: %w", err)
	}
	e.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		e.instance = nil
		return ErrNoGPU
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		e.instance = nil
		return fmt.Errorf("wgpu: open device: %w", err)
	}
	e.device = openDev.Device
	e.queue = openDev.Queue

	shaderscript.Logger().Info("GPU environment initialized",
		"adapter", selected.Info.Name,
		"type", selected.Info.DeviceType)
	return nil
}

// NewWithProvider creates an environment on a shared GPU device owned by an
// external provider, typically a gogpu application context. The provider
// must expose HAL handles: HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue. The shared device is never destroyed by Close.
func NewWithProvider(provider gpucontext.DeviceProvider, width, height int) (*Env, error) {
	if provider == nil {
		return nil, errors.New("wgpu: nil device provider")
	}
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, errors.New("wgpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, errors.New("wgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, errors.New("wgpu: provider HalQueue is not hal.Queue")
	}

	e, err := newEnv(width, height)
	if err != nil {
		return nil, err
	}
	e.device = device
	e.queue = queue
	e.externalDevice = true
	if err := e.initResources(); err != nil {
		return nil, err
	}
	return e, nil
}

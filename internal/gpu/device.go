// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// ErrDeviceUnavailable is returned when no usable GPU adapter exists or the
// backend cannot be initialized. It is fatal: the visualizer has no CPU
// fallback for the compute pipeline.
var ErrDeviceUnavailable = errors.New("gpu: no usable device")

// Device bundles the HAL objects the pipeline needs. The zero value is not
// usable; construct with OpenDevice or wrap externally owned handles with
// WrapDevice.
type Device struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	// AdapterName is the human-readable name of the selected adapter.
	AdapterName string

	external bool // externally owned handles are not destroyed on Close
}

// OpenDevice selects a GPU adapter and opens a device on it. Discrete and
// integrated GPUs are preferred over software adapters.
func OpenDevice() (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not available", ErrDeviceUnavailable)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %v", ErrDeviceUnavailable, err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("%w: no adapters found", ErrDeviceUnavailable)
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
		return nil, fmt.Errorf("%w: open device: %v", ErrDeviceUnavailable, err)
	}

	slogger().Info("gpu: adapter selected", "name", selected.Info.Name)

	return &Device{
		instance:    instance,
		device:      openDev.Device,
		queue:       openDev.Queue,
		AdapterName: selected.Info.Name,
	}, nil
}

// WrapDevice wraps an externally owned device and queue (e.g. a test's noop
// device). Close leaves wrapped handles alone.
func WrapDevice(device hal.Device, queue hal.Queue) *Device {
	return &Device{device: device, queue: queue, external: true}
}

// HAL returns the underlying device and queue.
func (d *Device) HAL() (hal.Device, hal.Queue) { return d.device, d.queue }

// Close releases the device and instance unless they are externally owned.
func (d *Device) Close() {
	if d.external {
		d.device = nil
		d.queue = nil
		return
	}
	if d.device != nil {
		d.device.Destroy()
		d.device = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
	d.queue = nil
}

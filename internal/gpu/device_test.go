package gpu

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// newNoopDevice creates a noop device and queue for structural tests.
func newNoopDevice(t *testing.T) (*Device, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		t.Fatal("no noop adapters")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	dev := WrapDevice(openDev.Device, openDev.Queue)
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return dev, cleanup
}

func TestWrapDeviceCloseLeavesHandles(t *testing.T) {
	dev, cleanup := newNoopDevice(t)
	defer cleanup()

	device, queue := dev.HAL()
	if device == nil || queue == nil {
		t.Fatal("nil HAL handles")
	}

	// Close must not destroy externally owned handles.
	dev.Close()
	if d, q := dev.HAL(); d != nil || q != nil {
		t.Error("Close left handles accessible")
	}
	var _ hal.Device = device // still usable by the owner
}

package gpu

import (
	"fmt"
)

// AllocatedBuffer is a buffer object bound at offset 0 to memory owned by the
// arena. Its size never changes.
type AllocatedBuffer struct {
	Handle     Buffer
	Memory     DeviceMemory
	Size       DeviceSize
	Usage      BufferUsageFlags
	Properties MemoryPropertyFlags
}

// CreateBuffer creates a buffer, allocates memory for it from the arena and
// binds the two. If allocation or binding fails the buffer object is
// destroyed again; memory that was already allocated stays in the arena.
func (a *Arena) CreateBuffer(size DeviceSize, usage BufferUsageFlags, properties MemoryPropertyFlags) (*AllocatedBuffer, error) {
	handle, err := a.device.CreateBuffer(size, usage)
	if err != nil {
		return nil, fmt.Errorf("create buffer: %w", err)
	}

	requirements := a.device.BufferMemoryRequirements(handle)

	var flags MemoryAllocateFlags
	if usage&BufferUsageShaderDeviceAddress != 0 {
		flags |= MemoryAllocateDeviceAddress
	}

	memory, err := a.Allocate(requirements, properties, flags)
	if err != nil {
		a.device.DestroyBuffer(handle)
		return nil, err
	}

	if err := a.device.BindBufferMemory(handle, memory, 0); err != nil {
		a.device.DestroyBuffer(handle)
		return nil, fmt.Errorf("bind buffer memory: %w", err)
	}

	return &AllocatedBuffer{
		Handle:     handle,
		Memory:     memory,
		Size:       size,
		Usage:      usage,
		Properties: properties,
	}, nil
}

// DestroyBuffer destroys the buffer object. Its memory is released with the arena.
// The caller guarantees no pending GPU work references the buffer.
func (a *Arena) DestroyBuffer(buffer *AllocatedBuffer) {
	if buffer == nil || buffer.Handle == 0 {
		return
	}
	a.device.DestroyBuffer(buffer.Handle)
	buffer.Handle = 0
}

// Write maps a host visible buffer, copies data to its start and unmaps it.
func (a *Arena) Write(buffer *AllocatedBuffer, data []byte) error {
	if buffer.Properties&MemoryPropertyHostVisible == 0 {
		return fmt.Errorf("buffer %#x is not host visible", uint64(buffer.Handle))
	}
	if DeviceSize(len(data)) > buffer.Size {
		return fmt.Errorf("write of %d bytes overflows buffer of %d bytes", len(data), buffer.Size)
	}
	mapped, err := a.device.MapMemory(buffer.Memory, 0, buffer.Size)
	if err != nil {
		return fmt.Errorf("map memory: %w", err)
	}
	copy(mapped, data)
	a.device.UnmapMemory(buffer.Memory)
	return nil
}

// DeviceAddress resolves the GPU address of a buffer created with
// BufferUsageShaderDeviceAddress.
func (a *Arena) DeviceAddress(buffer *AllocatedBuffer) DeviceAddress {
	return a.device.BufferDeviceAddress(buffer.Handle)
}

// Upload copies data into a new device local buffer through a temporary
// host visible staging buffer. The staging buffer is destroyed once the copy
// has completed.
func (a *Arena) Upload(commands CommandDevice, data []byte, usage BufferUsageFlags) (*AllocatedBuffer, error) {
	size := DeviceSize(len(data))

	staging, err := a.CreateBuffer(size, BufferUsageTransferSrc, MemoryPropertyHostVisible|MemoryPropertyHostCoherent)
	if err != nil {
		return nil, fmt.Errorf("staging buffer: %w", err)
	}
	defer a.DestroyBuffer(staging)

	if err := a.Write(staging, data); err != nil {
		return nil, err
	}

	dst, err := a.CreateBuffer(size, usage|BufferUsageTransferDst, MemoryPropertyDeviceLocal)
	if err != nil {
		return nil, fmt.Errorf("destination buffer: %w", err)
	}

	if err := CopyBuffer(commands, staging.Handle, dst.Handle, size); err != nil {
		a.DestroyBuffer(dst)
		return nil, err
	}
	return dst, nil
}

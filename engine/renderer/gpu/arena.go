package gpu

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spaghettifunk/lumen/engine/core"
)

// Allocation is one entry of the arena log.
type Allocation struct {
	ID              uuid.UUID
	Memory          DeviceMemory
	Size            DeviceSize
	MemoryTypeIndex uint32
	Properties      MemoryPropertyFlags
}

// Arena owns every device memory allocation made for buffers. Allocations
// are never freed one by one; Destroy releases all of them at once and must
// only run once the device is idle.
type Arena struct {
	device      BufferDevice
	properties  MemoryProperties
	allocations []Allocation
}

func NewArena(device BufferDevice) *Arena {
	return &Arena{
		device:     device,
		properties: device.MemoryProperties(),
	}
}

// FindMemoryType returns the first memory type allowed by typeFilter that has
// all of the requested property flags.
func (a *Arena) FindMemoryType(typeFilter uint32, properties MemoryPropertyFlags) (uint32, error) {
	for i, t := range a.properties.Types {
		// Check each memory type to see if its bit is set to 1.
		if typeFilter&(1<<uint(i)) != 0 && t.PropertyFlags&properties == properties {
			return uint32(i), nil
		}
	}
	return 0, fmt.Errorf("type filter %#x, properties %#x: %w", typeFilter, uint32(properties), core.ErrNoMemoryType)
}

// Allocate reserves memory satisfying requirements and records it in the arena.
func (a *Arena) Allocate(requirements MemoryRequirements, properties MemoryPropertyFlags, flags MemoryAllocateFlags) (DeviceMemory, error) {
	typeIndex, err := a.FindMemoryType(requirements.MemoryTypeBits, properties)
	if err != nil {
		return 0, err
	}
	memory, err := a.device.AllocateMemory(requirements.Size, typeIndex, flags)
	if err != nil {
		return 0, fmt.Errorf("allocate %d bytes: %w", requirements.Size, err)
	}
	entry := Allocation{
		ID:              uuid.New(),
		Memory:          memory,
		Size:            requirements.Size,
		MemoryTypeIndex: typeIndex,
		Properties:      properties,
	}
	a.allocations = append(a.allocations, entry)
	core.LogDebug("arena: allocation %s, %d bytes, type %d", entry.ID, entry.Size, typeIndex)
	return memory, nil
}

// Len is the number of live allocations.
func (a *Arena) Len() int {
	return len(a.allocations)
}

// Allocations returns a copy of the allocation log.
func (a *Arena) Allocations() []Allocation {
	out := make([]Allocation, len(a.allocations))
	copy(out, a.allocations)
	return out
}

// Size is the total number of bytes held by the arena.
func (a *Arena) Size() DeviceSize {
	var total DeviceSize
	for _, entry := range a.allocations {
		total += entry.Size
	}
	return total
}

// Destroy frees every allocation. The arena can be reused afterwards.
func (a *Arena) Destroy() {
	core.LogDebug("arena: freeing %d allocations (%d bytes)", len(a.allocations), a.Size())
	for _, entry := range a.allocations {
		a.device.FreeMemory(entry.Memory)
	}
	a.allocations = nil
}

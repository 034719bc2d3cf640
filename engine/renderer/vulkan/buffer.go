package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/renderer/gpu"
)

func (d *VulkanDevice) MemoryProperties() gpu.MemoryProperties {
	return d.memory
}

func (d *VulkanDevice) AllocateMemory(size gpu.DeviceSize, memoryTypeIndex uint32, flags gpu.MemoryAllocateFlags) (gpu.DeviceMemory, error) {
	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(size),
		MemoryTypeIndex: memoryTypeIndex,
	}
	if flags != 0 {
		flagsInfo, err := newAllocateFlagsInfo(flags)
		if err != nil {
			return 0, err
		}
		defer freeC(flagsInfo)
		allocateInfo.PNext = flagsInfo
	}

	var memory vk.DeviceMemory
	err := d.context.locks.SafeCall(MemoryManagement, func() error {
		return check("vkAllocateMemory", vk.AllocateMemory(d.LogicalDevice, &allocateInfo, d.context.Allocator, &memory))
	})
	if err != nil {
		return 0, err
	}
	return handle[gpu.DeviceMemory](unsafe.Pointer(memory)), nil
}

func (d *VulkanDevice) FreeMemory(memory gpu.DeviceMemory) {
	d.context.locks.SafeCall(MemoryManagement, func() error {
		vk.FreeMemory(d.LogicalDevice, vkDeviceMemory(memory), d.context.Allocator)
		return nil
	})
}

// MapMemory returns the mapped range as a byte slice aliasing device memory.
// It is valid until UnmapMemory.
func (d *VulkanDevice) MapMemory(memory gpu.DeviceMemory, offset, size gpu.DeviceSize) ([]byte, error) {
	var data unsafe.Pointer
	if err := check("vkMapMemory", vk.MapMemory(d.LogicalDevice, vkDeviceMemory(memory), vk.DeviceSize(offset), vk.DeviceSize(size), 0, &data)); err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("vkMapMemory returned a null pointer")
	}
	return unsafe.Slice((*byte)(data), int(size)), nil
}

func (d *VulkanDevice) UnmapMemory(memory gpu.DeviceMemory) {
	vk.UnmapMemory(d.LogicalDevice, vkDeviceMemory(memory))
}

func (d *VulkanDevice) CreateBuffer(size gpu.DeviceSize, usage gpu.BufferUsageFlags) (gpu.Buffer, error) {
	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vk.BufferUsageFlags(usage),
		SharingMode: vk.SharingModeExclusive, // NOTE: Only used in one queue.
	}

	var buffer vk.Buffer
	if err := check("vkCreateBuffer", vk.CreateBuffer(d.LogicalDevice, &bufferInfo, d.context.Allocator, &buffer)); err != nil {
		return 0, err
	}
	return handle[gpu.Buffer](unsafe.Pointer(buffer)), nil
}

func (d *VulkanDevice) DestroyBuffer(buffer gpu.Buffer) {
	vk.DestroyBuffer(d.LogicalDevice, vkBuffer(buffer), d.context.Allocator)
}

func (d *VulkanDevice) BufferMemoryRequirements(buffer gpu.Buffer) gpu.MemoryRequirements {
	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.LogicalDevice, vkBuffer(buffer), &requirements)
	requirements.Deref()
	return gpu.MemoryRequirements{
		Size:           gpu.DeviceSize(requirements.Size),
		Alignment:      gpu.DeviceSize(requirements.Alignment),
		MemoryTypeBits: requirements.MemoryTypeBits,
	}
}

func (d *VulkanDevice) BindBufferMemory(buffer gpu.Buffer, memory gpu.DeviceMemory, offset gpu.DeviceSize) error {
	return check("vkBindBufferMemory", vk.BindBufferMemory(d.LogicalDevice, vkBuffer(buffer), vkDeviceMemory(memory), vk.DeviceSize(offset)))
}

func (d *VulkanDevice) BufferDeviceAddress(buffer gpu.Buffer) gpu.DeviceAddress {
	return d.khr.bufferDeviceAddress(d.LogicalDevice, buffer)
}

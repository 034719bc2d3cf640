package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/gpu"
)

func (d *VulkanDevice) CreateSemaphore() (gpu.Semaphore, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if err := check("vkCreateSemaphore", vk.CreateSemaphore(d.LogicalDevice, &semaphoreCreateInfo, d.context.Allocator, &semaphore)); err != nil {
		return 0, err
	}
	return handle[gpu.Semaphore](unsafe.Pointer(semaphore)), nil
}

func (d *VulkanDevice) DestroySemaphore(semaphore gpu.Semaphore) {
	vk.DestroySemaphore(d.LogicalDevice, vkSemaphore(semaphore), d.context.Allocator)
}

// CreateFence creates a fence, signaled if requested so the first wait on it
// returns immediately.
func (d *VulkanDevice) CreateFence(signaled bool) (gpu.Fence, error) {
	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var fence vk.Fence
	if err := check("vkCreateFence", vk.CreateFence(d.LogicalDevice, &fenceCreateInfo, d.context.Allocator, &fence)); err != nil {
		return 0, err
	}
	return handle[gpu.Fence](unsafe.Pointer(fence)), nil
}

func (d *VulkanDevice) DestroyFence(fence gpu.Fence) {
	vk.DestroyFence(d.LogicalDevice, vkFence(fence), d.context.Allocator)
}

func (d *VulkanDevice) WaitForFence(fence gpu.Fence, timeout uint64) error {
	result := vk.WaitForFences(d.LogicalDevice, 1, []vk.Fence{vkFence(fence)}, vk.True, timeout)
	switch result {
	case vk.Success:
		return nil
	case vk.Timeout:
		core.LogWarn("vk_fence_wait - Timed out")
		return &gpu.ResultError{Op: "vkWaitForFences", Result: gpu.Timeout}
	}
	return check("vkWaitForFences", result)
}

func (d *VulkanDevice) ResetFence(fence gpu.Fence) error {
	return check("vkResetFences", vk.ResetFences(d.LogicalDevice, 1, []vk.Fence{vkFence(fence)}))
}

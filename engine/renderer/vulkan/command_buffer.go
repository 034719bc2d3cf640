package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/renderer/gpu"
)

// AllocateCommandBuffer allocates a primary command buffer from the graphics
// pool.
func (d *VulkanDevice) AllocateCommandBuffer() (gpu.CommandBuffer, error) {
	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.GraphicsCommandPool,
		CommandBufferCount: 1,
		Level:              vk.CommandBufferLevelPrimary,
	}

	buffers := make([]vk.CommandBuffer, 1)
	if err := check("vkAllocateCommandBuffers", vk.AllocateCommandBuffers(d.LogicalDevice, &allocateInfo, buffers)); err != nil {
		return 0, err
	}
	return handle[gpu.CommandBuffer](unsafe.Pointer(buffers[0])), nil
}

func (d *VulkanDevice) FreeCommandBuffer(cb gpu.CommandBuffer) {
	vk.FreeCommandBuffers(d.LogicalDevice, d.GraphicsCommandPool, 1, []vk.CommandBuffer{vkCommandBuffer(cb)})
}

func (d *VulkanDevice) BeginCommandBuffer(cb gpu.CommandBuffer, oneTimeSubmit bool) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if oneTimeSubmit {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	return check("vkBeginCommandBuffer", vk.BeginCommandBuffer(vkCommandBuffer(cb), &beginInfo))
}

func (d *VulkanDevice) EndCommandBuffer(cb gpu.CommandBuffer) error {
	return check("vkEndCommandBuffer", vk.EndCommandBuffer(vkCommandBuffer(cb)))
}

func (d *VulkanDevice) ResetCommandBuffer(cb gpu.CommandBuffer) error {
	return check("vkResetCommandBuffer", vk.ResetCommandBuffer(vkCommandBuffer(cb), 0))
}

// QueueSubmit submits one batch to the graphics queue. A zero fence submits
// without one.
func (d *VulkanDevice) QueueSubmit(submit gpu.SubmitInfo, fence gpu.Fence) error {
	submitInfo := vk.SubmitInfo{
		SType: vk.StructureTypeSubmitInfo,

		// Command buffer(s) to be executed.
		CommandBufferCount: uint32(len(submit.CommandBuffers)),
		PCommandBuffers:    vkCommandBuffers(submit.CommandBuffers),

		// The semaphore(s) to be signaled when the queue is complete.
		SignalSemaphoreCount: uint32(len(submit.SignalSemaphores)),
		PSignalSemaphores:    vkSemaphores(submit.SignalSemaphores),

		// Each semaphore waits on the corresponding pipeline stage to complete. 1:1 ratio.
		WaitSemaphoreCount: uint32(len(submit.WaitSemaphores)),
		PWaitSemaphores:    vkSemaphores(submit.WaitSemaphores),
	}
	if len(submit.WaitStages) > 0 {
		stages := make([]vk.PipelineStageFlags, len(submit.WaitStages))
		for i, stage := range submit.WaitStages {
			stages[i] = vk.PipelineStageFlags(stage)
		}
		submitInfo.PWaitDstStageMask = stages
	}

	return d.context.locks.SafeQueueCall(d.Families.Graphics, func() error {
		return check("vkQueueSubmit", vk.QueueSubmit(d.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, vkFence(fence)))
	})
}

func (d *VulkanDevice) QueueWaitIdle() error {
	return d.context.locks.SafeQueueCall(d.Families.Graphics, func() error {
		return check("vkQueueWaitIdle", vk.QueueWaitIdle(d.GraphicsQueue))
	})
}

func (d *VulkanDevice) CmdCopyBuffer(cb gpu.CommandBuffer, src, dst gpu.Buffer, size gpu.DeviceSize) {
	region := vk.BufferCopy{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      vk.DeviceSize(size),
	}
	vk.CmdCopyBuffer(vkCommandBuffer(cb), vkBuffer(src), vkBuffer(dst), 1, []vk.BufferCopy{region})
}

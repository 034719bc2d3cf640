package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/renderer/gpu"
)

// FrameRecorder records the clear and the indexed draw of one mesh into
// the frame's swapchain image, on whichever render path the swapchain uses.
type FrameRecorder struct {
	Device     *VulkanDevice
	Pipeline   *VulkanPipeline
	Renderpass *VulkanRenderpass
	Mesh       *gpu.Mesh
	Clear      [4]float32
}

var _ gpu.Recorder = (*FrameRecorder)(nil)

func (r *FrameRecorder) Record(cb gpu.CommandBuffer, target gpu.FrameTarget) error {
	if r.Pipeline == nil || r.Mesh == nil {
		return fmt.Errorf("frame recorder has no pipeline or mesh")
	}

	switch target.Path {
	case gpu.RenderPassFramebuffer:
		if r.Renderpass == nil || target.Framebuffer == 0 {
			return fmt.Errorf("render path %s without render pass or framebuffer", target.Path)
		}
		r.Renderpass.Begin(cb, target.Framebuffer, target.Extent)
		r.draw(cb, target.Extent)
		r.Renderpass.End(cb)
	default:
		transitionImage(cb, target.Image,
			vk.ImageLayoutUndefined, vk.ImageLayoutColorAttachmentOptimal,
			0, vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
			vk.PipelineStageTopOfPipeBit, vk.PipelineStageColorAttachmentOutputBit)

		r.Device.khr.cmdBeginRendering(cb, target.View, target.Extent, r.Clear)
		r.draw(cb, target.Extent)
		r.Device.khr.cmdEndRendering(cb)

		transitionImage(cb, target.Image,
			vk.ImageLayoutColorAttachmentOptimal, vk.ImageLayoutPresentSrc,
			vk.AccessFlags(vk.AccessColorAttachmentWriteBit), 0,
			vk.PipelineStageColorAttachmentOutputBit, vk.PipelineStageBottomOfPipeBit)
	}
	return nil
}

func (r *FrameRecorder) draw(cb gpu.CommandBuffer, extent gpu.Extent2D) {
	commandBuffer := vkCommandBuffer(cb)
	r.Pipeline.Bind(cb)

	viewport := vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: vk.Extent2D{Width: extent.Width, Height: extent.Height},
	}
	vk.CmdSetViewport(commandBuffer, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(commandBuffer, 0, 1, []vk.Rect2D{scissor})

	vk.CmdBindVertexBuffers(commandBuffer, 0, 1, []vk.Buffer{vkBuffer(r.Mesh.VertexBuffer.Handle)}, []vk.DeviceSize{0})
	vk.CmdBindIndexBuffer(commandBuffer, vkBuffer(r.Mesh.IndexBuffer.Handle), 0, vk.IndexTypeUint32)
	vk.CmdDrawIndexed(commandBuffer, r.Mesh.IndexCount, 1, 0, 0, 0)
}

func transitionImage(cb gpu.CommandBuffer, image gpu.Image, oldLayout, newLayout vk.ImageLayout,
	srcAccess, dstAccess vk.AccessFlags, srcStage, dstStage vk.PipelineStageFlagBits) {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       srcAccess,
		DstAccessMask:       dstAccess,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               vkImage(image),
		SubresourceRange:    colorSubresourceRange(),
	}
	vk.CmdPipelineBarrier(vkCommandBuffer(cb),
		vk.PipelineStageFlags(srcStage), vk.PipelineStageFlags(dstStage),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}

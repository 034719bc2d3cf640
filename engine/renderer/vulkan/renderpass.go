package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/renderer/gpu"
)

// VulkanRenderpass is the single color attachment pass of the
// RenderPassFramebuffer path. It clears the swapchain image and leaves it
// ready for presentation.
type VulkanRenderpass struct {
	Handle     vk.RenderPass
	R, G, B, A float32
}

func NewRenderpass(device *VulkanDevice, format gpu.Format, clear [4]float32) (*VulkanRenderpass, error) {
	outRenderpass := &VulkanRenderpass{
		R: clear[0],
		G: clear[1],
		B: clear[2],
		A: clear[3],
	}

	// Color attachment
	colorAttachment := vk.AttachmentDescription{
		Format:         vk.Format(format),
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,  // Do not expect any particular layout before render pass starts.
		FinalLayout:    vk.ImageLayoutPresentSrc, // Transitioned to after the render pass
	}

	colorAttachmentReference := []vk.AttachmentReference{
		{
			Attachment: 0, // Attachment description array index
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		},
	}

	// Main subpass
	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    colorAttachmentReference,
	}

	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}

	renderpassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{colorAttachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	var renderPass vk.RenderPass
	if err := check("vkCreateRenderPass", vk.CreateRenderPass(device.LogicalDevice, &renderpassCreateInfo, device.context.Allocator, &renderPass)); err != nil {
		return nil, err
	}
	outRenderpass.Handle = renderPass
	return outRenderpass, nil
}

// GPUHandle returns the pass as the opaque handle the swapchain builds
// framebuffers against.
func (vr *VulkanRenderpass) GPUHandle() gpu.RenderPass {
	return handle[gpu.RenderPass](unsafe.Pointer(vr.Handle))
}

func (vr *VulkanRenderpass) Destroy(device *VulkanDevice) {
	if vr.Handle != nil {
		vk.DestroyRenderPass(device.LogicalDevice, vr.Handle, device.context.Allocator)
		vr.Handle = nil
	}
}

func (vr *VulkanRenderpass) Begin(cb gpu.CommandBuffer, framebuffer gpu.Framebuffer, area gpu.Extent2D) {
	clearValues := []vk.ClearValue{
		vk.NewClearValue([]float32{vr.R, vr.G, vr.B, vr.A}),
	}
	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  vr.Handle,
		Framebuffer: vkFramebuffer(framebuffer),
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: vk.Extent2D{Width: area.Width, Height: area.Height},
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(vkCommandBuffer(cb), &beginInfo, vk.SubpassContentsInline)
}

func (vr *VulkanRenderpass) End(cb gpu.CommandBuffer) {
	vk.CmdEndRenderPass(vkCommandBuffer(cb))
}

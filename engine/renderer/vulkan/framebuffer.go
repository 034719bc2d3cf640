package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/renderer/gpu"
)

// CreateFramebuffer creates a single attachment framebuffer over view.
func (d *VulkanDevice) CreateFramebuffer(renderPass gpu.RenderPass, view gpu.ImageView, extent gpu.Extent2D) (gpu.Framebuffer, error) {
	framebufferCreateInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      vkRenderPass(renderPass),
		AttachmentCount: 1,
		PAttachments:    []vk.ImageView{vkImageView(view)},
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}

	var framebuffer vk.Framebuffer
	if err := check("vkCreateFramebuffer", vk.CreateFramebuffer(d.LogicalDevice, &framebufferCreateInfo, d.context.Allocator, &framebuffer)); err != nil {
		return 0, err
	}
	return handle[gpu.Framebuffer](unsafe.Pointer(framebuffer)), nil
}

func (d *VulkanDevice) DestroyFramebuffer(framebuffer gpu.Framebuffer) {
	vk.DestroyFramebuffer(d.LogicalDevice, vkFramebuffer(framebuffer), d.context.Allocator)
}

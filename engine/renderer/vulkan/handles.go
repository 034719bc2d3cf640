package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/renderer/gpu"
)

// The bindings model every handle as a pointer, the gpu package as an opaque
// integer. These convert between the two without touching the object.

func ptr[H ~uint64](h H) unsafe.Pointer {
	return unsafe.Pointer(uintptr(h))
}

func handle[H ~uint64](p unsafe.Pointer) H {
	return H(uintptr(p))
}

func vkBuffer(h gpu.Buffer) vk.Buffer { return vk.Buffer(ptr(h)) }
func vkDeviceMemory(h gpu.DeviceMemory) vk.DeviceMemory { return vk.DeviceMemory(ptr(h)) }
func vkSwapchain(h gpu.SwapchainHandle) vk.Swapchain { return vk.Swapchain(ptr(h)) }
func vkImage(h gpu.Image) vk.Image { return vk.Image(ptr(h)) }
func vkImageView(h gpu.ImageView) vk.ImageView { return vk.ImageView(ptr(h)) }
func vkFramebuffer(h gpu.Framebuffer) vk.Framebuffer { return vk.Framebuffer(ptr(h)) }
func vkRenderPass(h gpu.RenderPass) vk.RenderPass { return vk.RenderPass(ptr(h)) }
func vkSemaphore(h gpu.Semaphore) vk.Semaphore { return vk.Semaphore(ptr(h)) }
func vkFence(h gpu.Fence) vk.Fence { return vk.Fence(ptr(h)) }
func vkCommandBuffer(h gpu.CommandBuffer) vk.CommandBuffer { return vk.CommandBuffer(ptr(h)) }

func vkSemaphores(hs []gpu.Semaphore) []vk.Semaphore {
	out := make([]vk.Semaphore, len(hs))
	for i, h := range hs {
		out[i] = vkSemaphore(h)
	}
	return out
}

func vkCommandBuffers(hs []gpu.CommandBuffer) []vk.CommandBuffer {
	out := make([]vk.CommandBuffer, len(hs))
	for i, h := range hs {
		out[i] = vkCommandBuffer(h)
	}
	return out
}

package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/renderer/gpu"
)

func (d *VulkanDevice) QueueFamilies() gpu.QueueFamilies {
	return d.Families
}

func (d *VulkanDevice) SurfaceCapabilities() (gpu.SurfaceCapabilities, error) {
	var capabilities vk.SurfaceCapabilities
	if err := check("vkGetPhysicalDeviceSurfaceCapabilitiesKHR", vk.GetPhysicalDeviceSurfaceCapabilities(d.PhysicalDevice, d.context.Surface, &capabilities)); err != nil {
		return gpu.SurfaceCapabilities{}, err
	}
	capabilities.Deref()
	capabilities.CurrentExtent.Deref()
	capabilities.MinImageExtent.Deref()
	capabilities.MaxImageExtent.Deref()

	return gpu.SurfaceCapabilities{
		MinImageCount:    capabilities.MinImageCount,
		MaxImageCount:    capabilities.MaxImageCount,
		CurrentExtent:    extent(capabilities.CurrentExtent),
		MinImageExtent:   extent(capabilities.MinImageExtent),
		MaxImageExtent:   extent(capabilities.MaxImageExtent),
		CurrentTransform: uint32(capabilities.CurrentTransform),
	}, nil
}

func extent(e vk.Extent2D) gpu.Extent2D {
	return gpu.Extent2D{Width: e.Width, Height: e.Height}
}

func (d *VulkanDevice) SurfaceFormats() ([]gpu.SurfaceFormat, error) {
	return surfaceFormats(d.PhysicalDevice, d.context.Surface)
}

func (d *VulkanDevice) SurfacePresentModes() ([]gpu.PresentMode, error) {
	return surfacePresentModes(d.PhysicalDevice, d.context.Surface)
}

func surfaceFormats(pd vk.PhysicalDevice, surface vk.Surface) ([]gpu.SurfaceFormat, error) {
	var count uint32
	if err := check("vkGetPhysicalDeviceSurfaceFormatsKHR", vk.GetPhysicalDeviceSurfaceFormats(pd, surface, &count, nil)); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	formats := make([]vk.SurfaceFormat, count)
	if err := check("vkGetPhysicalDeviceSurfaceFormatsKHR", vk.GetPhysicalDeviceSurfaceFormats(pd, surface, &count, formats)); err != nil {
		return nil, err
	}
	out := make([]gpu.SurfaceFormat, 0, count)
	for i := range formats[:count] {
		formats[i].Deref()
		out = append(out, gpu.SurfaceFormat{
			Format:     gpu.Format(formats[i].Format),
			ColorSpace: gpu.ColorSpace(formats[i].ColorSpace),
		})
	}
	return out, nil
}

func surfacePresentModes(pd vk.PhysicalDevice, surface vk.Surface) ([]gpu.PresentMode, error) {
	var count uint32
	if err := check("vkGetPhysicalDeviceSurfacePresentModesKHR", vk.GetPhysicalDeviceSurfacePresentModes(pd, surface, &count, nil)); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	modes := make([]vk.PresentMode, count)
	if err := check("vkGetPhysicalDeviceSurfacePresentModesKHR", vk.GetPhysicalDeviceSurfacePresentModes(pd, surface, &count, modes)); err != nil {
		return nil, err
	}
	out := make([]gpu.PresentMode, 0, count)
	for _, mode := range modes[:count] {
		out = append(out, gpu.PresentMode(mode))
	}
	return out, nil
}

func (d *VulkanDevice) CreateSwapchain(info gpu.SwapchainCreateInfo) (gpu.SwapchainHandle, error) {
	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          d.context.Surface,
		MinImageCount:    info.MinImageCount,
		ImageFormat:      vk.Format(info.Format.Format),
		ImageColorSpace:  vk.ColorSpace(info.Format.ColorSpace),
		ImageExtent:      vk.Extent2D{Width: info.Extent.Width, Height: info.Extent.Height},
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingMode(info.SharingMode),
		PreTransform:     vk.SurfaceTransformFlagBits(info.PreTransform),
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      vk.PresentMode(info.PresentMode),
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}
	if len(info.QueueFamilyIndices) > 0 {
		swapchainCreateInfo.QueueFamilyIndexCount = uint32(len(info.QueueFamilyIndices))
		swapchainCreateInfo.PQueueFamilyIndices = info.QueueFamilyIndices
	}

	var swapchain vk.Swapchain
	if err := check("vkCreateSwapchainKHR", vk.CreateSwapchain(d.LogicalDevice, &swapchainCreateInfo, d.context.Allocator, &swapchain)); err != nil {
		return 0, err
	}
	return handle[gpu.SwapchainHandle](unsafe.Pointer(swapchain)), nil
}

// DestroySwapchain destroys the swapchain and with it its images.
func (d *VulkanDevice) DestroySwapchain(swapchain gpu.SwapchainHandle) {
	vk.DestroySwapchain(d.LogicalDevice, vkSwapchain(swapchain), d.context.Allocator)
}

func (d *VulkanDevice) SwapchainImages(swapchain gpu.SwapchainHandle) ([]gpu.Image, error) {
	var count uint32
	if err := check("vkGetSwapchainImagesKHR", vk.GetSwapchainImages(d.LogicalDevice, vkSwapchain(swapchain), &count, nil)); err != nil {
		return nil, err
	}
	images := make([]vk.Image, count)
	if err := check("vkGetSwapchainImagesKHR", vk.GetSwapchainImages(d.LogicalDevice, vkSwapchain(swapchain), &count, images)); err != nil {
		return nil, err
	}
	out := make([]gpu.Image, 0, count)
	for _, image := range images[:count] {
		out = append(out, handle[gpu.Image](unsafe.Pointer(image)))
	}
	return out, nil
}

func (d *VulkanDevice) CreateImageView(image gpu.Image, format gpu.Format) (gpu.ImageView, error) {
	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    vkImage(image),
		ViewType: vk.ImageViewType2d,
		Format:   vk.Format(format),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: colorSubresourceRange(),
	}

	var view vk.ImageView
	if err := check("vkCreateImageView", vk.CreateImageView(d.LogicalDevice, &viewInfo, d.context.Allocator, &view)); err != nil {
		return 0, err
	}
	return handle[gpu.ImageView](unsafe.Pointer(view)), nil
}

func colorSubresourceRange() vk.ImageSubresourceRange {
	return vk.ImageSubresourceRange{
		AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
		BaseMipLevel:   0,
		LevelCount:     1,
		BaseArrayLayer: 0,
		LayerCount:     1,
	}
}

func (d *VulkanDevice) DestroyImageView(view gpu.ImageView) {
	vk.DestroyImageView(d.LogicalDevice, vkImageView(view), d.context.Allocator)
}

// AcquireNextImage hands back the driver status untouched, the frame engine
// decides what out of date and suboptimal mean.
func (d *VulkanDevice) AcquireNextImage(swapchain gpu.SwapchainHandle, timeout uint64, signal gpu.Semaphore) (uint32, gpu.Result) {
	var imageIndex uint32
	result := vk.AcquireNextImage(d.LogicalDevice, vkSwapchain(swapchain), timeout, vkSemaphore(signal), vk.NullFence, &imageIndex)
	return imageIndex, gpu.Result(result)
}

func (d *VulkanDevice) QueuePresent(info gpu.PresentInfo) gpu.Result {
	// Return the image to the swapchain for presentation.
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(info.WaitSemaphores)),
		PWaitSemaphores:    vkSemaphores(info.WaitSemaphores),
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{vkSwapchain(info.Swapchain)},
		PImageIndices:      []uint32{info.ImageIndex},
	}

	var result vk.Result
	d.context.locks.SafeQueueCall(d.Families.Present, func() error {
		result = vk.QueuePresent(d.PresentQueue, &presentInfo)
		return nil
	})
	return gpu.Result(result)
}

func (d *VulkanDevice) WaitIdle() error {
	return check("vkDeviceWaitIdle", vk.DeviceWaitIdle(d.LogicalDevice))
}

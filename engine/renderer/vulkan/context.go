package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
)

// VulkanContext is the instance level driver state. A renderer owns exactly
// one and passes it to everything that needs it.
type VulkanContext struct {
	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	Device *VulkanDevice

	validation          bool
	debugCallback       vk.DebugReportCallback
	getInstanceProcAddr unsafe.Pointer
	locks               *VulkanLockPool
}

// SurfaceSource is the window side of instance and surface creation.
type SurfaceSource interface {
	// RequiredInstanceExtensions lists the instance extensions the window
	// system needs to present.
	RequiredInstanceExtensions() []string
	// CreateWindowSurface creates a VkSurfaceKHR for instance and returns it
	// as a raw handle.
	CreateWindowSurface(instance interface{}) (uintptr, error)
}

// InstanceConfig controls instance creation.
type InstanceConfig struct {
	ApplicationName string
	Validation      bool
}

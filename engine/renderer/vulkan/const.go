package vulkan

// Instance and device extension names. The constants in the bindings carry
// trailing NUL bytes, these are compared against enumerated names.
const (
	extSurface                 = "VK_KHR_surface"
	extDebugReport             = "VK_EXT_debug_report"
	extPortabilityEnumeration  = "VK_KHR_portability_enumeration"
	extGetPhysicalDeviceProps2 = "VK_KHR_get_physical_device_properties2"
	extSwapchain               = "VK_KHR_swapchain"
	extDynamicRendering        = "VK_KHR_dynamic_rendering"
	extDeferredHostOperations  = "VK_KHR_deferred_host_operations"
	extAccelerationStructure   = "VK_KHR_acceleration_structure"
	extRayTracingPipeline      = "VK_KHR_ray_tracing_pipeline"
	extBufferDeviceAddress     = "VK_KHR_buffer_device_address"
	extPortabilitySubset       = "VK_KHR_portability_subset"
	layerKhronosValidation     = "VK_LAYER_KHRONOS_validation"
)

// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
const instanceCreateEnumeratePortability = 0x00000001

// Ray tracing enums missing from the bindings.
const (
	stageAccelerationStructureBuild  = 0x02000000
	accessAccelerationStructureRead  = 0x00200000
	accessAccelerationStructureWrite = 0x00400000
	shaderStageRaygen                = 0x00000100
	bindPointRayTracing              = 1000165000
)

// requiredDeviceExtensions is the extension set every candidate device must
// advertise.
var requiredDeviceExtensions = []string{
	extSwapchain,
	extDynamicRendering,
	extDeferredHostOperations,
	extAccelerationStructure,
	extRayTracingPipeline,
	extBufferDeviceAddress,
}

// enabledDeviceExtensions adds VK_KHR_portability_subset to the required set
// when the device advertises it.
func enabledDeviceExtensions(available []string) []string {
	out := append([]string(nil), requiredDeviceExtensions...)
	if contains(available, extPortabilitySubset) {
		out = append(out, extPortabilitySubset)
	}
	return out
}

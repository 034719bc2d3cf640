package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/gpu"
)

// VulkanDevice is the logical device plus everything derived from it that
// the renderer core needs. It implements gpu.Device.
type VulkanDevice struct {
	context *VulkanContext

	PhysicalDevice vk.PhysicalDevice
	LogicalDevice  vk.Device
	Name           string
	Properties     vk.PhysicalDeviceProperties

	Families      gpu.QueueFamilies
	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue

	GraphicsCommandPool vk.CommandPool

	memory gpu.MemoryProperties
	khr    *khrFuncs
}

var _ gpu.Device = (*VulkanDevice)(nil)

type physicalDeviceCandidate struct {
	device     vk.PhysicalDevice
	properties vk.PhysicalDeviceProperties
	name       string
	families   gpu.QueueFamilies
	extensions []string
	score      int
}

// ScoreDevice ranks a physical device by type. Devices that do not meet the
// requirements score zero and are never picked.
func ScoreDevice(deviceType vk.PhysicalDeviceType, meetsRequirements bool) int {
	if !meetsRequirements {
		return 0
	}
	switch deviceType {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return 5
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return 4
	case vk.PhysicalDeviceTypeVirtualGpu:
		return 3
	case vk.PhysicalDeviceTypeCpu:
		return 2
	}
	return 1
}

func deviceTypeName(deviceType vk.PhysicalDeviceType) string {
	switch deviceType {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "Integrated"
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "Discrete"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "Virtual"
	case vk.PhysicalDeviceTypeCpu:
		return "CPU"
	}
	return "Unknown"
}

// pickQueueFamilies returns the first graphics capable family, and for
// presentation that same family when it can present, otherwise the first
// family that can.
func pickQueueFamilies(graphics, present []bool) (gpu.QueueFamilies, bool) {
	graphicsIndex, presentIndex := -1, -1
	for i := range graphics {
		if graphics[i] {
			graphicsIndex = i
			break
		}
	}
	if graphicsIndex >= 0 && present[graphicsIndex] {
		presentIndex = graphicsIndex
	} else {
		for i := range present {
			if present[i] {
				presentIndex = i
				break
			}
		}
	}
	if graphicsIndex < 0 || presentIndex < 0 {
		return gpu.QueueFamilies{}, false
	}
	return gpu.QueueFamilies{Graphics: uint32(graphicsIndex), Present: uint32(presentIndex)}, true
}

// CreateDevice selects the best physical device and creates the logical
// device, its queues and the graphics command pool.
func (vc *VulkanContext) CreateDevice() (*VulkanDevice, error) {
	candidate, err := vc.selectPhysicalDevice()
	if err != nil {
		return nil, err
	}

	d := &VulkanDevice{
		context:        vc,
		PhysicalDevice: candidate.device,
		Name:           candidate.name,
		Properties:     candidate.properties,
		Families:       candidate.families,
	}
	d.memory = queryMemoryProperties(candidate.device)

	core.LogInfo("Creating logical device...")

	// NOTE: Do not create additional queues for shared indices.
	indices := []uint32{d.Families.Graphics}
	if !d.Families.Shared() {
		indices = append(indices, d.Families.Present)
	}
	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(indices))
	for i, index := range indices {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: index,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
		vc.locks.SetQueueFamily(index)
	}

	features, err := newFeatureChain()
	if err != nil {
		return nil, err
	}
	defer features.free()

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		PNext:                   features.pointer(),
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		EnabledExtensionCount:   uint32(len(candidate.extensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(candidate.extensions),
	}

	var device vk.Device
	if err := check("vkCreateDevice", vk.CreateDevice(d.PhysicalDevice, &deviceCreateInfo, vc.Allocator, &device)); err != nil {
		return nil, err
	}
	d.LogicalDevice = device
	core.LogInfo("Logical device created.")

	var queue vk.Queue
	vk.GetDeviceQueue(d.LogicalDevice, d.Families.Graphics, 0, &queue)
	d.GraphicsQueue = queue
	vk.GetDeviceQueue(d.LogicalDevice, d.Families.Present, 0, &queue)
	d.PresentQueue = queue
	core.LogInfo("Queues obtained.")

	// Create command pool for graphics queue.
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: d.Families.Graphics,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if err := check("vkCreateCommandPool", vk.CreateCommandPool(d.LogicalDevice, &poolCreateInfo, vc.Allocator, &pool)); err != nil {
		d.Destroy()
		return nil, err
	}
	d.GraphicsCommandPool = pool
	core.LogInfo("Graphics command pool created.")

	khr, err := loadKHR(vc.getInstanceProcAddr, vc.Instance, d.LogicalDevice)
	if err != nil {
		d.Destroy()
		return nil, err
	}
	d.khr = khr

	vc.Device = d
	return d, nil
}

func (vc *VulkanContext) selectPhysicalDevice() (*physicalDeviceCandidate, error) {
	var count uint32
	if err := check("vkEnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(vc.Instance, &count, nil)); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("no devices which support Vulkan were found: %w", core.ErrNoSuitableDevice)
	}
	physicalDevices := make([]vk.PhysicalDevice, count)
	if err := check("vkEnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(vc.Instance, &count, physicalDevices)); err != nil {
		return nil, err
	}

	var best *physicalDeviceCandidate
	for _, pd := range physicalDevices[:count] {
		candidate := vc.evaluatePhysicalDevice(pd)
		core.LogDebug("Device '%s' (%s) scored %d.", candidate.name, deviceTypeName(candidate.properties.DeviceType), candidate.score)
		if candidate.score > 0 && (best == nil || candidate.score > best.score) {
			best = candidate
		}
	}
	if best == nil {
		return nil, core.ErrNoSuitableDevice
	}

	props := best.properties
	core.LogInfo("Selected device: '%s'.", best.name)
	core.LogInfo("GPU type is %s.", deviceTypeName(props.DeviceType))
	core.LogInfo("GPU Driver version: %d.%d.%d",
		vk.Version(props.DriverVersion).Major(),
		vk.Version(props.DriverVersion).Minor(),
		vk.Version(props.DriverVersion).Patch())
	core.LogInfo("Vulkan API version: %d.%d.%d",
		vk.Version(props.ApiVersion).Major(),
		vk.Version(props.ApiVersion).Minor(),
		vk.Version(props.ApiVersion).Patch())
	return best, nil
}

// evaluatePhysicalDevice checks queue families, extensions and surface
// support. The returned candidate scores zero when any requirement is missed.
func (vc *VulkanContext) evaluatePhysicalDevice(pd vk.PhysicalDevice) *physicalDeviceCandidate {
	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(pd, &properties)
	properties.Deref()

	candidate := &physicalDeviceCandidate{
		device:     pd,
		properties: properties,
		name:       cString(properties.DeviceName[:]),
	}

	families, ok := vc.queueFamilies(pd)
	if !ok {
		core.LogInfo("Device '%s' lacks graphics or present queues, skipping.", candidate.name)
		return candidate
	}
	candidate.families = families

	available, err := deviceExtensions(pd)
	if err != nil {
		core.LogWarn("Device '%s': %s", candidate.name, err)
		return candidate
	}
	if missing := missingExtensions(requiredDeviceExtensions, available); len(missing) > 0 {
		core.LogInfo("Device '%s' misses required extensions %v, skipping.", candidate.name, missing)
		return candidate
	}
	candidate.extensions = enabledDeviceExtensions(available)

	formats, err := surfaceFormats(pd, vc.Surface)
	if err != nil || len(formats) == 0 {
		core.LogInfo("Device '%s' has no surface formats, skipping.", candidate.name)
		return candidate
	}
	modes, err := surfacePresentModes(pd, vc.Surface)
	if err != nil || len(modes) == 0 {
		core.LogInfo("Device '%s' has no present modes, skipping.", candidate.name)
		return candidate
	}

	candidate.score = ScoreDevice(properties.DeviceType, true)
	return candidate
}

func (vc *VulkanContext) queueFamilies(pd vk.PhysicalDevice) (gpu.QueueFamilies, bool) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, nil)
	properties := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, properties)

	graphics := make([]bool, count)
	present := make([]bool, count)
	for i := range properties[:count] {
		properties[i].Deref()
		graphics[i] = properties[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0

		var supportsPresent vk.Bool32
		if res := vk.GetPhysicalDeviceSurfaceSupport(pd, uint32(i), vc.Surface, &supportsPresent); res == vk.Success {
			present[i] = supportsPresent == vk.True
		}
	}
	return pickQueueFamilies(graphics, present)
}

func deviceExtensions(pd vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if err := check("vkEnumerateDeviceExtensionProperties", vk.EnumerateDeviceExtensionProperties(pd, "", &count, nil)); err != nil {
		return nil, err
	}
	properties := make([]vk.ExtensionProperties, count)
	if err := check("vkEnumerateDeviceExtensionProperties", vk.EnumerateDeviceExtensionProperties(pd, "", &count, properties)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for i := range properties[:count] {
		properties[i].Deref()
		names = append(names, cString(properties[i].ExtensionName[:]))
	}
	return names, nil
}

func queryMemoryProperties(pd vk.PhysicalDevice) gpu.MemoryProperties {
	var memory vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(pd, &memory)
	memory.Deref()

	out := gpu.MemoryProperties{Types: make([]gpu.MemoryType, 0, memory.MemoryTypeCount)}
	for i := uint32(0); i < memory.MemoryTypeCount; i++ {
		memory.MemoryTypes[i].Deref()
		out.Types = append(out.Types, gpu.MemoryType{
			PropertyFlags: gpu.MemoryPropertyFlags(memory.MemoryTypes[i].PropertyFlags),
			HeapIndex:     memory.MemoryTypes[i].HeapIndex,
		})
	}

	for j := uint32(0); j < memory.MemoryHeapCount; j++ {
		memory.MemoryHeaps[j].Deref()
		memorySizeGib := float64(memory.MemoryHeaps[j].Size) / 1024.0 / 1024.0 / 1024.0
		if vk.MemoryHeapFlagBits(memory.MemoryHeaps[j].Flags)&vk.MemoryHeapDeviceLocalBit != 0 {
			core.LogInfo("Local GPU memory: %.2f GiB", memorySizeGib)
		} else {
			core.LogInfo("Shared System memory: %.2f GiB", memorySizeGib)
		}
	}
	return out
}

// Destroy releases the command pool and the logical device.
func (d *VulkanDevice) Destroy() {
	d.GraphicsQueue = nil
	d.PresentQueue = nil

	if d.GraphicsCommandPool != nil {
		core.LogInfo("Destroying command pools...")
		vk.DestroyCommandPool(d.LogicalDevice, d.GraphicsCommandPool, d.context.Allocator)
		d.GraphicsCommandPool = nil
	}

	if d.LogicalDevice != nil {
		core.LogInfo("Destroying logical device...")
		vk.DestroyDevice(d.LogicalDevice, d.context.Allocator)
		d.LogicalDevice = nil
	}

	// Physical devices are not destroyed.
	d.PhysicalDevice = nil
	d.khr = nil
}

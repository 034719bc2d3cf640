package vulkan

/*
#cgo freebsd CFLAGS: -I/usr/local/include
#cgo CFLAGS: -Werror -Werror=return-type

#define VK_NO_PROTOTYPES 1
#define VK_DEFINE_NON_DISPATCHABLE_HANDLE(object) typedef uint64_t object;
#include <vulkan/vulkan.h>
#include <stdlib.h>

static PFN_vkVoidFunction lumenGetDeviceProcAddr(void *getInstanceProcAddr, VkInstance instance, VkDevice device, const char *name) {
	PFN_vkGetInstanceProcAddr gipa = (PFN_vkGetInstanceProcAddr)getInstanceProcAddr;
	PFN_vkGetDeviceProcAddr gdpa = (PFN_vkGetDeviceProcAddr)gipa(instance, "vkGetDeviceProcAddr");
	if (gdpa == NULL) {
		return NULL;
	}
	return gdpa(device, name);
}

typedef struct {
	VkPhysicalDeviceBufferDeviceAddressFeatures bufferDeviceAddress;
	VkPhysicalDeviceDynamicRenderingFeaturesKHR dynamicRendering;
	VkPhysicalDeviceAccelerationStructureFeaturesKHR accelerationStructure;
	VkPhysicalDeviceRayTracingPipelineFeaturesKHR rayTracingPipeline;
} lumenFeatureChain;

static lumenFeatureChain *lumenNewFeatureChain(void) {
	lumenFeatureChain *c = calloc(1, sizeof(lumenFeatureChain));
	if (c == NULL) {
		return NULL;
	}
	c->bufferDeviceAddress.sType = VK_STRUCTURE_TYPE_PHYSICAL_DEVICE_BUFFER_DEVICE_ADDRESS_FEATURES;
	c->bufferDeviceAddress.bufferDeviceAddress = VK_TRUE;
	c->bufferDeviceAddress.pNext = &c->dynamicRendering;
	c->dynamicRendering.sType = VK_STRUCTURE_TYPE_PHYSICAL_DEVICE_DYNAMIC_RENDERING_FEATURES_KHR;
	c->dynamicRendering.dynamicRendering = VK_TRUE;
	c->dynamicRendering.pNext = &c->accelerationStructure;
	c->accelerationStructure.sType = VK_STRUCTURE_TYPE_PHYSICAL_DEVICE_ACCELERATION_STRUCTURE_FEATURES_KHR;
	c->accelerationStructure.accelerationStructure = VK_TRUE;
	c->accelerationStructure.pNext = &c->rayTracingPipeline;
	c->rayTracingPipeline.sType = VK_STRUCTURE_TYPE_PHYSICAL_DEVICE_RAY_TRACING_PIPELINE_FEATURES_KHR;
	c->rayTracingPipeline.rayTracingPipeline = VK_TRUE;
	return c;
}

static VkMemoryAllocateFlagsInfo *lumenNewAllocateFlags(VkMemoryAllocateFlags flags) {
	VkMemoryAllocateFlagsInfo *info = calloc(1, sizeof(VkMemoryAllocateFlagsInfo));
	if (info == NULL) {
		return NULL;
	}
	info->sType = VK_STRUCTURE_TYPE_MEMORY_ALLOCATE_FLAGS_INFO;
	info->flags = flags;
	return info;
}

typedef struct {
	VkPipelineRenderingCreateInfoKHR info;
	VkFormat colorFormat;
} lumenPipelineRendering;

static VkPipelineRenderingCreateInfoKHR *lumenNewPipelineRendering(VkFormat colorFormat) {
	lumenPipelineRendering *r = calloc(1, sizeof(lumenPipelineRendering));
	if (r == NULL) {
		return NULL;
	}
	r->colorFormat = colorFormat;
	r->info.sType = VK_STRUCTURE_TYPE_PIPELINE_RENDERING_CREATE_INFO_KHR;
	r->info.colorAttachmentCount = 1;
	r->info.pColorAttachmentFormats = &r->colorFormat;
	return &r->info;
}

static VkDeviceAddress lumenGetBufferDeviceAddress(PFN_vkGetBufferDeviceAddressKHR f, VkDevice device, VkBuffer buffer) {
	VkBufferDeviceAddressInfo info = {0};
	info.sType = VK_STRUCTURE_TYPE_BUFFER_DEVICE_ADDRESS_INFO;
	info.buffer = buffer;
	return f(device, &info);
}

static VkAccelerationStructureGeometryKHR lumenTriangles(VkFormat vertexFormat, VkDeviceAddress vertexData, VkDeviceSize vertexStride, uint32_t maxVertex, VkIndexType indexType, VkDeviceAddress indexData) {
	VkAccelerationStructureGeometryKHR geometry = {0};
	geometry.sType = VK_STRUCTURE_TYPE_ACCELERATION_STRUCTURE_GEOMETRY_KHR;
	geometry.geometryType = VK_GEOMETRY_TYPE_TRIANGLES_KHR;
	geometry.flags = VK_GEOMETRY_OPAQUE_BIT_KHR;
	geometry.geometry.triangles.sType = VK_STRUCTURE_TYPE_ACCELERATION_STRUCTURE_GEOMETRY_TRIANGLES_DATA_KHR;
	geometry.geometry.triangles.vertexFormat = vertexFormat;
	geometry.geometry.triangles.vertexData.deviceAddress = vertexData;
	geometry.geometry.triangles.vertexStride = vertexStride;
	geometry.geometry.triangles.maxVertex = maxVertex;
	geometry.geometry.triangles.indexType = indexType;
	geometry.geometry.triangles.indexData.deviceAddress = indexData;
	return geometry;
}

static VkAccelerationStructureBuildGeometryInfoKHR lumenBottomLevelBuildInfo(const VkAccelerationStructureGeometryKHR *geometry) {
	VkAccelerationStructureBuildGeometryInfoKHR info = {0};
	info.sType = VK_STRUCTURE_TYPE_ACCELERATION_STRUCTURE_BUILD_GEOMETRY_INFO_KHR;
	info.type = VK_ACCELERATION_STRUCTURE_TYPE_BOTTOM_LEVEL_KHR;
	info.flags = VK_BUILD_ACCELERATION_STRUCTURE_PREFER_FAST_TRACE_BIT_KHR;
	info.mode = VK_BUILD_ACCELERATION_STRUCTURE_MODE_BUILD_KHR;
	info.geometryCount = 1;
	info.pGeometries = geometry;
	return info;
}

static void lumenGetAccelerationStructureBuildSizes(PFN_vkGetAccelerationStructureBuildSizesKHR f, VkDevice device, VkAccelerationStructureGeometryKHR geometry, uint32_t primitiveCount, VkAccelerationStructureBuildSizesInfoKHR *sizes) {
	VkAccelerationStructureBuildGeometryInfoKHR info = lumenBottomLevelBuildInfo(&geometry);
	sizes->sType = VK_STRUCTURE_TYPE_ACCELERATION_STRUCTURE_BUILD_SIZES_INFO_KHR;
	sizes->pNext = NULL;
	f(device, VK_ACCELERATION_STRUCTURE_BUILD_TYPE_DEVICE_KHR, &info, &primitiveCount, sizes);
}

static VkResult lumenCreateAccelerationStructure(PFN_vkCreateAccelerationStructureKHR f, VkDevice device, VkBuffer buffer, VkDeviceSize offset, VkDeviceSize size, VkAccelerationStructureKHR *pAccelerationStructure) {
	VkAccelerationStructureCreateInfoKHR info = {0};
	info.sType = VK_STRUCTURE_TYPE_ACCELERATION_STRUCTURE_CREATE_INFO_KHR;
	info.buffer = buffer;
	info.offset = offset;
	info.size = size;
	info.type = VK_ACCELERATION_STRUCTURE_TYPE_BOTTOM_LEVEL_KHR;
	return f(device, &info, NULL, pAccelerationStructure);
}

static void lumenDestroyAccelerationStructure(PFN_vkDestroyAccelerationStructureKHR f, VkDevice device, VkAccelerationStructureKHR accelerationStructure) {
	f(device, accelerationStructure, NULL);
}

static void lumenCmdBuildAccelerationStructure(PFN_vkCmdBuildAccelerationStructuresKHR f, VkCommandBuffer commandBuffer, VkAccelerationStructureGeometryKHR geometry, uint32_t primitiveCount, VkAccelerationStructureKHR dst, VkDeviceAddress scratch) {
	VkAccelerationStructureBuildGeometryInfoKHR info = lumenBottomLevelBuildInfo(&geometry);
	info.dstAccelerationStructure = dst;
	info.scratchData.deviceAddress = scratch;

	VkAccelerationStructureBuildRangeInfoKHR range = {0};
	range.primitiveCount = primitiveCount;
	const VkAccelerationStructureBuildRangeInfoKHR *ranges = &range;
	f(commandBuffer, 1, &info, &ranges);
}

static void lumenCmdBeginRendering(PFN_vkCmdBeginRenderingKHR f, VkCommandBuffer commandBuffer, VkImageView view, uint32_t width, uint32_t height, float r, float g, float b, float a) {
	VkRenderingAttachmentInfoKHR color = {0};
	color.sType = VK_STRUCTURE_TYPE_RENDERING_ATTACHMENT_INFO_KHR;
	color.imageView = view;
	color.imageLayout = VK_IMAGE_LAYOUT_COLOR_ATTACHMENT_OPTIMAL;
	color.loadOp = VK_ATTACHMENT_LOAD_OP_CLEAR;
	color.storeOp = VK_ATTACHMENT_STORE_OP_STORE;
	color.clearValue.color.float32[0] = r;
	color.clearValue.color.float32[1] = g;
	color.clearValue.color.float32[2] = b;
	color.clearValue.color.float32[3] = a;

	VkRenderingInfoKHR info = {0};
	info.sType = VK_STRUCTURE_TYPE_RENDERING_INFO_KHR;
	info.renderArea.extent.width = width;
	info.renderArea.extent.height = height;
	info.layerCount = 1;
	info.colorAttachmentCount = 1;
	info.pColorAttachments = &color;
	f(commandBuffer, &info);
}

static void lumenCmdEndRendering(PFN_vkCmdEndRenderingKHR f, VkCommandBuffer commandBuffer) {
	f(commandBuffer);
}

static VkResult lumenCreateRayTracingPipeline(PFN_vkCreateRayTracingPipelinesKHR f, VkDevice device, VkShaderModule raygen, VkPipelineLayout layout, VkPipeline *pPipeline) {
	VkPipelineShaderStageCreateInfo stage = {0};
	stage.sType = VK_STRUCTURE_TYPE_PIPELINE_SHADER_STAGE_CREATE_INFO;
	stage.stage = VK_SHADER_STAGE_RAYGEN_BIT_KHR;
	stage.module = raygen;
	stage.pName = "main";

	VkRayTracingShaderGroupCreateInfoKHR group = {0};
	group.sType = VK_STRUCTURE_TYPE_RAY_TRACING_SHADER_GROUP_CREATE_INFO_KHR;
	group.type = VK_RAY_TRACING_SHADER_GROUP_TYPE_GENERAL_KHR;
	group.generalShader = 0;
	group.closestHitShader = VK_SHADER_UNUSED_KHR;
	group.anyHitShader = VK_SHADER_UNUSED_KHR;
	group.intersectionShader = VK_SHADER_UNUSED_KHR;

	VkRayTracingPipelineCreateInfoKHR info = {0};
	info.sType = VK_STRUCTURE_TYPE_RAY_TRACING_PIPELINE_CREATE_INFO_KHR;
	info.stageCount = 1;
	info.pStages = &stage;
	info.groupCount = 1;
	info.pGroups = &group;
	info.maxPipelineRayRecursionDepth = 1;
	info.layout = layout;
	return f(device, 0, 0, 1, &info, NULL, pPipeline);
}
*/
import "C"

import (
	"fmt"
	"strings"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/renderer/gpu"
)

// khrFuncs holds the extension entry points the bindings do not load. They
// are resolved per device through vkGetDeviceProcAddr.
type khrFuncs struct {
	getBufferDeviceAddress             C.PFN_vkGetBufferDeviceAddressKHR
	getAccelerationStructureBuildSizes C.PFN_vkGetAccelerationStructureBuildSizesKHR
	createAccelerationStructure        C.PFN_vkCreateAccelerationStructureKHR
	destroyAccelerationStructure       C.PFN_vkDestroyAccelerationStructureKHR
	cmdBuildAccelerationStructures     C.PFN_vkCmdBuildAccelerationStructuresKHR
	cmdBeginRendering                  C.PFN_vkCmdBeginRenderingKHR
	cmdEndRendering                    C.PFN_vkCmdEndRenderingKHR
	createRayTracingPipelines          C.PFN_vkCreateRayTracingPipelinesKHR
}

func loadKHR(getInstanceProcAddr unsafe.Pointer, instance vk.Instance, device vk.Device) (*khrFuncs, error) {
	var missing []string
	load := func(name string) *[0]byte {
		cname := C.CString(name)
		defer C.free(unsafe.Pointer(cname))
		ptr := C.lumenGetDeviceProcAddr(getInstanceProcAddr, C.VkInstance(unsafe.Pointer(instance)), C.VkDevice(unsafe.Pointer(device)), cname)
		if ptr == nil {
			missing = append(missing, name)
		}
		return (*[0]byte)(ptr)
	}

	f := &khrFuncs{
		getBufferDeviceAddress:             load("vkGetBufferDeviceAddressKHR"),
		getAccelerationStructureBuildSizes: load("vkGetAccelerationStructureBuildSizesKHR"),
		createAccelerationStructure:        load("vkCreateAccelerationStructureKHR"),
		destroyAccelerationStructure:       load("vkDestroyAccelerationStructureKHR"),
		cmdBuildAccelerationStructures:     load("vkCmdBuildAccelerationStructuresKHR"),
		cmdBeginRendering:                  load("vkCmdBeginRenderingKHR"),
		cmdEndRendering:                    load("vkCmdEndRenderingKHR"),
		createRayTracingPipelines:          load("vkCreateRayTracingPipelinesKHR"),
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("device functions not found: %s", strings.Join(missing, ", "))
	}
	return f, nil
}

// featureChain is the C allocated pNext chain enabling buffer device
// address, dynamic rendering, acceleration structures and ray tracing
// pipelines at device creation.
type featureChain struct {
	ptr *C.lumenFeatureChain
}

func newFeatureChain() (*featureChain, error) {
	ptr := C.lumenNewFeatureChain()
	if ptr == nil {
		return nil, fmt.Errorf("out of host memory for device feature chain")
	}
	return &featureChain{ptr: ptr}, nil
}

func (c *featureChain) pointer() unsafe.Pointer {
	return unsafe.Pointer(c.ptr)
}

func (c *featureChain) free() {
	C.free(unsafe.Pointer(c.ptr))
	c.ptr = nil
}

func newAllocateFlagsInfo(flags gpu.MemoryAllocateFlags) (unsafe.Pointer, error) {
	ptr := C.lumenNewAllocateFlags(C.VkMemoryAllocateFlags(flags))
	if ptr == nil {
		return nil, fmt.Errorf("out of host memory for allocate flags")
	}
	return unsafe.Pointer(ptr), nil
}

func newPipelineRenderingInfo(colorFormat vk.Format) (unsafe.Pointer, error) {
	ptr := C.lumenNewPipelineRendering(C.VkFormat(colorFormat))
	if ptr == nil {
		return nil, fmt.Errorf("out of host memory for pipeline rendering info")
	}
	return unsafe.Pointer(ptr), nil
}

func freeC(ptr unsafe.Pointer) {
	C.free(ptr)
}

func cDevice(d vk.Device) C.VkDevice {
	return C.VkDevice(unsafe.Pointer(d))
}

func cCommandBuffer(cb gpu.CommandBuffer) C.VkCommandBuffer {
	return C.VkCommandBuffer(unsafe.Pointer(uintptr(cb)))
}

func (f *khrFuncs) bufferDeviceAddress(device vk.Device, buffer gpu.Buffer) gpu.DeviceAddress {
	return gpu.DeviceAddress(C.lumenGetBufferDeviceAddress(f.getBufferDeviceAddress, cDevice(device), C.VkBuffer(buffer)))
}

func triangles(g gpu.TriangleGeometry) C.VkAccelerationStructureGeometryKHR {
	return C.lumenTriangles(
		C.VkFormat(g.VertexFormat),
		C.VkDeviceAddress(g.VertexData),
		C.VkDeviceSize(g.VertexStride),
		C.uint32_t(g.MaxVertex),
		C.VkIndexType(g.IndexType),
		C.VkDeviceAddress(g.IndexData),
	)
}

func (f *khrFuncs) buildSizes(device vk.Device, geometry gpu.TriangleGeometry, primitiveCount uint32) gpu.AccelerationStructureBuildSizes {
	var sizes C.VkAccelerationStructureBuildSizesInfoKHR
	C.lumenGetAccelerationStructureBuildSizes(f.getAccelerationStructureBuildSizes, cDevice(device), triangles(geometry), C.uint32_t(primitiveCount), &sizes)
	return gpu.AccelerationStructureBuildSizes{
		AccelerationStructureSize: gpu.DeviceSize(sizes.accelerationStructureSize),
		UpdateScratchSize:         gpu.DeviceSize(sizes.updateScratchSize),
		BuildScratchSize:          gpu.DeviceSize(sizes.buildScratchSize),
	}
}

func (f *khrFuncs) createAccelerationStructure(device vk.Device, buffer gpu.Buffer, offset, size gpu.DeviceSize) (gpu.AccelerationStructure, error) {
	var as C.VkAccelerationStructureKHR
	res := C.lumenCreateAccelerationStructure(f.createAccelerationStructure, cDevice(device), C.VkBuffer(buffer), C.VkDeviceSize(offset), C.VkDeviceSize(size), &as)
	if err := gpu.NewResultError("vkCreateAccelerationStructureKHR", gpu.Result(res)); err != nil {
		return 0, err
	}
	return gpu.AccelerationStructure(as), nil
}

func (f *khrFuncs) destroyAccelerationStructure(device vk.Device, as gpu.AccelerationStructure) {
	C.lumenDestroyAccelerationStructure(f.destroyAccelerationStructure, cDevice(device), C.VkAccelerationStructureKHR(as))
}

func (f *khrFuncs) cmdBuildAccelerationStructure(cb gpu.CommandBuffer, build gpu.AccelerationStructureBuild) {
	C.lumenCmdBuildAccelerationStructure(f.cmdBuildAccelerationStructures, cCommandBuffer(cb),
		triangles(build.Geometry), C.uint32_t(build.PrimitiveCount),
		C.VkAccelerationStructureKHR(build.Destination), C.VkDeviceAddress(build.ScratchData))
}

func (f *khrFuncs) cmdBeginRendering(cb gpu.CommandBuffer, view gpu.ImageView, extent gpu.Extent2D, clear [4]float32) {
	C.lumenCmdBeginRendering(f.cmdBeginRendering, cCommandBuffer(cb), C.VkImageView(view),
		C.uint32_t(extent.Width), C.uint32_t(extent.Height),
		C.float(clear[0]), C.float(clear[1]), C.float(clear[2]), C.float(clear[3]))
}

func (f *khrFuncs) cmdEndRendering(cb gpu.CommandBuffer) {
	C.lumenCmdEndRendering(f.cmdEndRendering, cCommandBuffer(cb))
}

func (f *khrFuncs) createRayTracingPipeline(device vk.Device, raygen vk.ShaderModule, layout vk.PipelineLayout) (vk.Pipeline, error) {
	var pipeline C.VkPipeline
	res := C.lumenCreateRayTracingPipeline(f.createRayTracingPipelines, cDevice(device),
		C.VkShaderModule(uintptr(unsafe.Pointer(raygen))), C.VkPipelineLayout(uintptr(unsafe.Pointer(layout))), &pipeline)
	if err := gpu.NewResultError("vkCreateRayTracingPipelinesKHR", gpu.Result(res)); err != nil {
		return nil, err
	}
	return vk.Pipeline(unsafe.Pointer(uintptr(pipeline))), nil
}

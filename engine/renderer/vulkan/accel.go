package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/renderer/gpu"
)

func (d *VulkanDevice) AccelerationStructureBuildSizes(geometry gpu.TriangleGeometry, primitiveCount uint32) (gpu.AccelerationStructureBuildSizes, error) {
	if d.khr == nil {
		return gpu.AccelerationStructureBuildSizes{}, fmt.Errorf("acceleration structure entry points not loaded")
	}
	return d.khr.buildSizes(d.LogicalDevice, geometry, primitiveCount), nil
}

func (d *VulkanDevice) CreateAccelerationStructure(buffer gpu.Buffer, offset, size gpu.DeviceSize) (gpu.AccelerationStructure, error) {
	if d.khr == nil {
		return 0, fmt.Errorf("acceleration structure entry points not loaded")
	}
	return d.khr.createAccelerationStructure(d.LogicalDevice, buffer, offset, size)
}

func (d *VulkanDevice) DestroyAccelerationStructure(as gpu.AccelerationStructure) {
	if as == 0 || d.khr == nil {
		return
	}
	d.khr.destroyAccelerationStructure(d.LogicalDevice, as)
}

// CmdBuildAccelerationStructure records the build followed by a barrier so
// later commands in the same buffer read a finished structure.
func (d *VulkanDevice) CmdBuildAccelerationStructure(cb gpu.CommandBuffer, build gpu.AccelerationStructureBuild) {
	d.khr.cmdBuildAccelerationStructure(cb, build)

	barrier := vk.MemoryBarrier{
		SType:         vk.StructureTypeMemoryBarrier,
		SrcAccessMask: vk.AccessFlags(accessAccelerationStructureWrite),
		DstAccessMask: vk.AccessFlags(accessAccelerationStructureRead),
	}
	vk.CmdPipelineBarrier(vkCommandBuffer(cb),
		vk.PipelineStageFlags(stageAccelerationStructureBuild),
		vk.PipelineStageFlags(stageAccelerationStructureBuild),
		0, 1, []vk.MemoryBarrier{barrier}, 0, nil, 0, nil)
}

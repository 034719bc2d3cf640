package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// VulkanShaderStage is a shader module and the stage info that references it.
type VulkanShaderStage struct {
	// The internal shader module Handle.
	Handle vk.ShaderModule
	// The pipeline shader stage creation info.
	ShaderStageCreateInfo vk.PipelineShaderStageCreateInfo
}

// NewShaderStage creates a module from SPIR-V words for a single stage with
// the given entry point.
func NewShaderStage(device *VulkanDevice, code []uint32, stage vk.ShaderStageFlagBits, entryPoint string) (*VulkanShaderStage, error) {
	if len(code) == 0 {
		return nil, fmt.Errorf("empty shader code")
	}

	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code) * 4),
		PCode:    code,
	}

	var module vk.ShaderModule
	if err := check("vkCreateShaderModule", vk.CreateShaderModule(device.LogicalDevice, &createInfo, device.context.Allocator, &module)); err != nil {
		return nil, err
	}

	return &VulkanShaderStage{
		Handle: module,
		ShaderStageCreateInfo: vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  stage,
			Module: module,
			PName:  VulkanSafeString(entryPoint),
		},
	}, nil
}

func (s *VulkanShaderStage) Destroy(device *VulkanDevice) {
	if s.Handle != vk.NullShaderModule {
		vk.DestroyShaderModule(device.LogicalDevice, s.Handle, device.context.Allocator)
		s.Handle = vk.NullShaderModule
	}
}

package vulkan

import (
	"sync"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/core"
)

// RayTracingPipeline is a ray tracing pipeline built from a single raygen
// stage. It is compiled and kept alive but never traced.
type RayTracingPipeline struct {
	device   *VulkanDevice
	mu       sync.Mutex
	pipeline *VulkanPipeline
}

func NewRayTracingPipeline(device *VulkanDevice, raygen []uint32) (*RayTracingPipeline, error) {
	pipeline, err := buildRayTracingPipeline(device, raygen)
	if err != nil {
		return nil, err
	}
	return &RayTracingPipeline{device: device, pipeline: pipeline}, nil
}

func buildRayTracingPipeline(device *VulkanDevice, raygen []uint32) (*VulkanPipeline, error) {
	stage, err := NewShaderStage(device, raygen, vk.ShaderStageFlagBits(shaderStageRaygen), "main")
	if err != nil {
		return nil, err
	}
	// The module is not needed once the pipeline exists.
	defer stage.Destroy(device)

	outPipeline := &VulkanPipeline{BindPoint: vk.PipelineBindPoint(bindPointRayTracing)}
	err = device.context.locks.SafeCall(PipelineManagement, func() error {
		layoutInfo := vk.PipelineLayoutCreateInfo{
			SType: vk.StructureTypePipelineLayoutCreateInfo,
		}
		var layout vk.PipelineLayout
		if err := check("vkCreatePipelineLayout", vk.CreatePipelineLayout(device.LogicalDevice, &layoutInfo, device.context.Allocator, &layout)); err != nil {
			return err
		}
		outPipeline.PipelineLayout = layout

		handle, err := device.khr.createRayTracingPipeline(device.LogicalDevice, stage.Handle, layout)
		if err != nil {
			return err
		}
		outPipeline.Handle = handle
		return nil
	})
	if err != nil {
		outPipeline.Destroy(device)
		return nil, err
	}
	return outPipeline, nil
}

// Reload swaps in a pipeline built from new raygen code. The device must be
// idle. On failure the current pipeline stays in place.
func (rt *RayTracingPipeline) Reload(raygen []uint32) error {
	next, err := buildRayTracingPipeline(rt.device, raygen)
	if err != nil {
		return err
	}

	rt.mu.Lock()
	previous := rt.pipeline
	rt.pipeline = next
	rt.mu.Unlock()

	if previous != nil {
		previous.Destroy(rt.device)
	}
	core.LogInfo("Ray tracing pipeline reloaded.")
	return nil
}

// Handle returns the live pipeline handle.
func (rt *RayTracingPipeline) Handle() vk.Pipeline {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.pipeline == nil {
		return vk.NullPipeline
	}
	return rt.pipeline.Handle
}

func (rt *RayTracingPipeline) Destroy() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.pipeline != nil {
		rt.pipeline.Destroy(rt.device)
		rt.pipeline = nil
	}
}

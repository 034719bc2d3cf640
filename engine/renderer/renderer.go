package renderer

import (
	"errors"
	"fmt"
	"sync/atomic"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/assets"
	"github.com/spaghettifunk/lumen/engine/assets/loaders"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/platform"
	"github.com/spaghettifunk/lumen/engine/renderer/gpu"
	"github.com/spaghettifunk/lumen/engine/renderer/vulkan"
	"github.com/spaghettifunk/lumen/shaders"
)

type Config struct {
	ApplicationName string
	Validation      bool
	Path            gpu.RenderPath
	// HotReload rebuilds the ray tracing pipeline when its binary changes.
	HotReload bool
	Clear     [4]float32
}

// Renderer owns every GPU object of the application, from the instance down
// to the per frame sync objects. It is created and driven by the engine on
// the main thread.
type Renderer struct {
	config Config
	window *platform.Platform
	events *core.EventBus
	assets *assets.AssetManager

	context    *vulkan.VulkanContext
	device     *vulkan.VulkanDevice
	arena      *gpu.Arena
	swapchain  *gpu.Swapchain
	frames     *gpu.FrameEngine
	renderpass *vulkan.VulkanRenderpass
	pipeline   *vulkan.VulkanPipeline
	rayTracing *vulkan.RayTracingPipeline
	mesh       *gpu.Mesh
	blas       *gpu.BLAS
	builder    *gpu.BLASBuilder
	recorder   *vulkan.FrameRecorder

	shaderChanged atomic.Bool
}

func New(config Config, window *platform.Platform, events *core.EventBus, assetManager *assets.AssetManager) *Renderer {
	return &Renderer{
		config: config,
		window: window,
		events: events,
		assets: assetManager,
	}
}

// Initialize brings the renderer up: instance and surface, device, memory
// arena, swapchain, frame slots, pipelines, then the test mesh and its
// acceleration structure. On error everything created so far is released.
func (r *Renderer) Initialize() (err error) {
	defer func() {
		if err != nil {
			r.Shutdown()
		}
	}()

	r.context, err = vulkan.NewVulkanContext(vulkan.InstanceConfig{
		ApplicationName: r.config.ApplicationName,
		Validation:      r.config.Validation,
	}, r.window)
	if err != nil {
		return err
	}

	if r.device, err = r.context.CreateDevice(); err != nil {
		return err
	}
	r.arena = gpu.NewArena(r.device)

	if r.swapchain, err = gpu.NewSwapchain(r.device, r.window, r.config.Path); err != nil {
		return err
	}
	core.LogDebug("Rendering on the %s path.", r.config.Path)

	if r.config.Path.UsesFramebuffers() {
		if r.renderpass, err = vulkan.NewRenderpass(r.device, r.swapchain.Format.Format, r.config.Clear); err != nil {
			return err
		}
		if err = r.swapchain.AttachRenderPass(r.renderpass.GPUHandle()); err != nil {
			return err
		}
	}

	if r.frames, err = gpu.NewFrameEngine(r.device, r.swapchain, r.window); err != nil {
		return err
	}

	if err = r.createGraphicsPipeline(); err != nil {
		return err
	}
	if err = r.createRayTracingPipeline(); err != nil {
		return err
	}

	if r.mesh, err = gpu.NewMesh(r.arena, r.device, gpu.QuadVertices(), gpu.QuadIndices()); err != nil {
		return err
	}
	r.builder = gpu.NewBLASBuilder(r.device, r.arena, r.device)
	if r.blas, err = r.builder.Build(r.mesh.VertexBuffer, r.mesh.VertexCount, r.mesh.IndexBuffer, r.mesh.IndexCount); err != nil {
		return fmt.Errorf("build BLAS: %w", err)
	}
	core.LogInfo("BLAS built: %d triangles, %d bytes.", r.blas.PrimitiveCount, r.blas.Sizes.AccelerationStructureSize)

	r.recorder = &vulkan.FrameRecorder{
		Device:     r.device,
		Pipeline:   r.pipeline,
		Renderpass: r.renderpass,
		Mesh:       r.mesh,
		Clear:      r.config.Clear,
	}

	r.events.Register(core.EVENT_CODE_RESIZED, r, r.onResized)
	if r.config.HotReload && r.rayTracing != nil {
		r.events.Register(core.EVENT_CODE_SHADER_CHANGED, r, r.onShaderChanged)
	}

	core.LogInfo("Renderer initialized, %d device allocations (%d bytes).", r.arena.Len(), r.arena.Size())
	return nil
}

func (r *Renderer) createGraphicsPipeline() error {
	code, err := loaders.CompileWGSL(shaders.TriangleWGSL)
	if err != nil {
		return fmt.Errorf("triangle shader: %w", err)
	}

	vertex, err := vulkan.NewShaderStage(r.device, code, vk.ShaderStageVertexBit, shaders.TriangleVertexEntry)
	if err != nil {
		return err
	}
	defer vertex.Destroy(r.device)
	fragment, err := vulkan.NewShaderStage(r.device, code, vk.ShaderStageFragmentBit, shaders.TriangleFragmentEntry)
	if err != nil {
		return err
	}
	defer fragment.Destroy(r.device)

	r.pipeline, err = vulkan.NewGraphicsPipeline(r.device, &vulkan.VulkanPipelineConfig{
		Path:        r.config.Path,
		Renderpass:  r.renderpass,
		ColorFormat: r.swapchain.Format.Format,
		Stride:      gpu.VertexStride,
		Attributes:  vulkan.VertexAttributes(),
		Stages: []vk.PipelineShaderStageCreateInfo{
			vertex.ShaderStageCreateInfo,
			fragment.ShaderStageCreateInfo,
		},
	})
	return err
}

// createRayTracingPipeline builds the raygen pipeline when its binary was
// found in the shader directory. Without it the renderer runs raster only.
func (r *Renderer) createRayTracingPipeline() error {
	if !r.assets.Has(shaders.RaygenBinary) {
		core.LogWarn("%s not found, ray tracing pipeline skipped. Run `mage build:shaders`.", shaders.RaygenBinary)
		return nil
	}
	raygen, err := r.assets.LoadShader(shaders.RaygenBinary)
	if err != nil {
		return err
	}
	r.rayTracing, err = vulkan.NewRayTracingPipeline(r.device, raygen.Code)
	if err != nil {
		return fmt.Errorf("ray tracing pipeline: %w", err)
	}
	core.LogInfo("Ray tracing pipeline created from %s.", raygen.FullPath)
	return nil
}

// DrawFrame renders one frame. Skipped and dropped frames are not errors,
// any error returned means rendering cannot continue.
func (r *Renderer) DrawFrame() error {
	if r.shaderChanged.Swap(false) {
		r.ReloadRayTracing()
	}

	return classifyFrameError(r.frames.DrawFrame(r.recorder))
}

// classifyFrameError swallows the errors after which the next frame can
// proceed normally and passes everything else through.
func classifyFrameError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, core.ErrSwapchainBooting):
		core.LogDebug("Frame skipped, swapchain recreated.")
		return nil
	case errors.Is(err, gpu.ErrFrameDropped):
		core.LogWarn("%s", err)
		return nil
	}
	return err
}

// FrameNumber is the number of frames presented so far.
func (r *Renderer) FrameNumber() uint64 {
	if r.frames == nil {
		return 0
	}
	return r.frames.FrameNumber()
}

// OnResize marks the swapchain stale. It is rebuilt after the next present.
func (r *Renderer) OnResize(width, height uint32) {
	if r.frames == nil {
		return
	}
	core.LogDebug("Framebuffer resized to %dx%d.", width, height)
	r.frames.NotifyResized()
}

// ReloadRayTracing rebuilds the ray tracing pipeline from disk. The old
// pipeline stays in use when loading or building fails.
func (r *Renderer) ReloadRayTracing() {
	if r.rayTracing == nil {
		return
	}
	if err := r.device.WaitIdle(); err != nil {
		core.LogError("ray tracing reload: %s", err)
		return
	}
	raygen, err := r.assets.LoadShader(shaders.RaygenBinary)
	if err != nil {
		core.LogError("ray tracing reload: %s", err)
		return
	}
	if err := r.rayTracing.Reload(raygen.Code); err != nil {
		core.LogError("ray tracing reload failed, keeping the previous pipeline: %s", err)
	}
}

func (r *Renderer) onResized(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	r.OnResize(data.Data.U32[0], data.Data.U32[1])
	return false
}

// onShaderChanged runs on the watcher goroutine, so it only flags the reload
// for the next frame.
func (r *Renderer) onShaderChanged(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	core.LogDebug("Shader changed: %s", data.Data.S)
	r.shaderChanged.Store(true)
	return true
}

// Shutdown releases everything in reverse creation order. It is safe to call
// on a partially initialized renderer.
func (r *Renderer) Shutdown() {
	r.events.Unregister(core.EVENT_CODE_RESIZED, r)
	r.events.Unregister(core.EVENT_CODE_SHADER_CHANGED, r)

	if r.device != nil {
		if err := r.device.WaitIdle(); err != nil {
			core.LogError("wait idle at shutdown: %s", err)
		}
		if r.pipeline != nil {
			r.pipeline.Destroy(r.device)
			r.pipeline = nil
		}
		if r.rayTracing != nil {
			r.rayTracing.Destroy()
			r.rayTracing = nil
		}
		if r.renderpass != nil {
			r.renderpass.Destroy(r.device)
			r.renderpass = nil
		}
		if r.blas != nil {
			r.builder.Destroy(r.blas)
			r.blas = nil
		}
		if r.mesh != nil {
			r.mesh.Destroy(r.arena)
			r.mesh = nil
		}
		if r.frames != nil {
			r.frames.Destroy()
			r.frames = nil
		}
		if r.swapchain != nil {
			r.swapchain.Destroy()
			r.swapchain = nil
		}
		if r.arena != nil {
			r.arena.Destroy()
			r.arena = nil
		}
	}
	if r.context != nil {
		// Destroys the command pool and device before the surface and instance.
		r.context.Shutdown()
		r.context = nil
		r.device = nil
	}
}

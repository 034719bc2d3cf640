package gpu

// MemoryDevice is the part of a device the arena needs to manage raw memory.
type MemoryDevice interface {
	MemoryProperties() MemoryProperties
	AllocateMemory(size DeviceSize, memoryTypeIndex uint32, flags MemoryAllocateFlags) (DeviceMemory, error)
	FreeMemory(memory DeviceMemory)
	MapMemory(memory DeviceMemory, offset, size DeviceSize) ([]byte, error)
	UnmapMemory(memory DeviceMemory)
}

// BufferDevice creates buffer objects and binds them to arena memory.
type BufferDevice interface {
	MemoryDevice
	CreateBuffer(size DeviceSize, usage BufferUsageFlags) (Buffer, error)
	DestroyBuffer(buffer Buffer)
	BufferMemoryRequirements(buffer Buffer) MemoryRequirements
	BindBufferMemory(buffer Buffer, memory DeviceMemory, offset DeviceSize) error
	BufferDeviceAddress(buffer Buffer) DeviceAddress
}

// SubmitInfo describes one batch for the graphics queue. WaitStages pairs
// 1:1 with WaitSemaphores.
type SubmitInfo struct {
	CommandBuffers   []CommandBuffer
	WaitSemaphores   []Semaphore
	WaitStages       []PipelineStageFlags
	SignalSemaphores []Semaphore
}

// CommandDevice allocates command buffers from the graphics pool and submits
// them to the graphics queue.
type CommandDevice interface {
	AllocateCommandBuffer() (CommandBuffer, error)
	FreeCommandBuffer(cb CommandBuffer)
	BeginCommandBuffer(cb CommandBuffer, oneTimeSubmit bool) error
	EndCommandBuffer(cb CommandBuffer) error
	ResetCommandBuffer(cb CommandBuffer) error
	QueueSubmit(submit SubmitInfo, fence Fence) error
	QueueWaitIdle() error
	CmdCopyBuffer(cb CommandBuffer, src, dst Buffer, size DeviceSize)
}

type SyncDevice interface {
	CreateSemaphore() (Semaphore, error)
	DestroySemaphore(semaphore Semaphore)
	CreateFence(signaled bool) (Fence, error)
	DestroyFence(fence Fence)
	WaitForFence(fence Fence, timeout uint64) error
	ResetFence(fence Fence) error
}

type SwapchainCreateInfo struct {
	MinImageCount      uint32
	Format             SurfaceFormat
	Extent             Extent2D
	PresentMode        PresentMode
	SharingMode        SharingMode
	QueueFamilyIndices []uint32
	PreTransform       uint32
}

type PresentInfo struct {
	WaitSemaphores []Semaphore
	Swapchain      SwapchainHandle
	ImageIndex     uint32
}

// SwapchainDevice is the surface and presentation side of a device. The
// surface is fixed for the device's lifetime.
type SwapchainDevice interface {
	QueueFamilies() QueueFamilies
	SurfaceCapabilities() (SurfaceCapabilities, error)
	SurfaceFormats() ([]SurfaceFormat, error)
	SurfacePresentModes() ([]PresentMode, error)
	CreateSwapchain(info SwapchainCreateInfo) (SwapchainHandle, error)
	DestroySwapchain(swapchain SwapchainHandle)
	SwapchainImages(swapchain SwapchainHandle) ([]Image, error)
	CreateImageView(image Image, format Format) (ImageView, error)
	DestroyImageView(view ImageView)
	CreateFramebuffer(renderPass RenderPass, view ImageView, extent Extent2D) (Framebuffer, error)
	DestroyFramebuffer(framebuffer Framebuffer)
	// AcquireNextImage returns the driver status as is, so callers can tell
	// out of date and suboptimal apart from hard failures.
	AcquireNextImage(swapchain SwapchainHandle, timeout uint64, signal Semaphore) (uint32, Result)
	QueuePresent(info PresentInfo) Result
	WaitIdle() error
}

// TriangleGeometry describes indexed triangle list geometry living in device
// memory, referenced by device address.
type TriangleGeometry struct {
	VertexFormat Format
	VertexData   DeviceAddress
	VertexStride DeviceSize
	MaxVertex    uint32
	IndexType    IndexType
	IndexData    DeviceAddress
}

type AccelerationStructureBuildSizes struct {
	AccelerationStructureSize DeviceSize
	UpdateScratchSize         DeviceSize
	BuildScratchSize          DeviceSize
}

// AccelerationStructureBuild is a single geometry bottom level build.
type AccelerationStructureBuild struct {
	Geometry       TriangleGeometry
	PrimitiveCount uint32
	Destination    AccelerationStructure
	ScratchData    DeviceAddress
}

type AccelerationDevice interface {
	AccelerationStructureBuildSizes(geometry TriangleGeometry, primitiveCount uint32) (AccelerationStructureBuildSizes, error)
	CreateAccelerationStructure(buffer Buffer, offset, size DeviceSize) (AccelerationStructure, error)
	DestroyAccelerationStructure(as AccelerationStructure)
	CmdBuildAccelerationStructure(cb CommandBuffer, build AccelerationStructureBuild)
}

// Device is everything the renderer core needs from a GPU driver.
type Device interface {
	BufferDevice
	CommandDevice
	SyncDevice
	SwapchainDevice
	AccelerationDevice
}

// Window is the windowing layer as seen by the renderer core.
type Window interface {
	// FramebufferSize returns the drawable size in pixels.
	FramebufferSize() (width, height uint32)
	// WaitEvents blocks until at least one window event was processed.
	WaitEvents()
	SetShouldClose(value bool)
}

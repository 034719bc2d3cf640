// Package gpu holds the driver independent half of the renderer: the memory
// arena and buffer lifecycle, the swapchain manager, the frames in flight
// engine and the acceleration structure builder. It talks to the GPU through
// the small interfaces in device.go, which the vulkan package implements.
package gpu

// Opaque driver handles. Zero is the null handle.
type (
	Buffer                uint64
	DeviceMemory          uint64
	SwapchainHandle       uint64
	Image                 uint64
	ImageView             uint64
	Framebuffer           uint64
	RenderPass            uint64
	Semaphore             uint64
	Fence                 uint64
	CommandBuffer         uint64
	AccelerationStructure uint64
)

type DeviceSize uint64

type DeviceAddress uint64

type Format uint32

const (
	FormatUndefined       Format = 0
	FormatB8G8R8A8Unorm   Format = 44
	FormatB8G8R8A8Srgb    Format = 50
	FormatR32G32B32Sfloat Format = 106
)

type ColorSpace uint32

const ColorSpaceSrgbNonlinear ColorSpace = 0

type PresentMode uint32

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFifo        PresentMode = 2
	PresentModeFifoRelaxed PresentMode = 3
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeImmediate:
		return "IMMEDIATE"
	case PresentModeMailbox:
		return "MAILBOX"
	case PresentModeFifo:
		return "FIFO"
	case PresentModeFifoRelaxed:
		return "FIFO_RELAXED"
	}
	return "UNKNOWN"
}

type SharingMode uint32

const (
	SharingModeExclusive  SharingMode = 0
	SharingModeConcurrent SharingMode = 1
)

type IndexType uint32

const (
	IndexTypeUint16 IndexType = 0
	IndexTypeUint32 IndexType = 1
)

type PipelineStageFlags uint32

const (
	PipelineStageTopOfPipe             PipelineStageFlags = 0x00000001
	PipelineStageColorAttachmentOutput PipelineStageFlags = 0x00000400
	PipelineStageBottomOfPipe          PipelineStageFlags = 0x00002000
	PipelineStageAccelerationStructure PipelineStageFlags = 0x02000000
)

type BufferUsageFlags uint32

const (
	BufferUsageTransferSrc                         BufferUsageFlags = 0x00000001
	BufferUsageTransferDst                         BufferUsageFlags = 0x00000002
	BufferUsageStorageBuffer                       BufferUsageFlags = 0x00000020
	BufferUsageIndexBuffer                         BufferUsageFlags = 0x00000040
	BufferUsageVertexBuffer                        BufferUsageFlags = 0x00000080
	BufferUsageShaderDeviceAddress                 BufferUsageFlags = 0x00020000
	BufferUsageAccelerationStructureBuildInputRead BufferUsageFlags = 0x00080000
	BufferUsageAccelerationStructureStorage        BufferUsageFlags = 0x00100000
)

type MemoryPropertyFlags uint32

const (
	MemoryPropertyDeviceLocal  MemoryPropertyFlags = 0x00000001
	MemoryPropertyHostVisible  MemoryPropertyFlags = 0x00000002
	MemoryPropertyHostCoherent MemoryPropertyFlags = 0x00000004
)

type MemoryAllocateFlags uint32

const MemoryAllocateDeviceAddress MemoryAllocateFlags = 0x00000002

type Extent2D struct {
	Width  uint32
	Height uint32
}

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

type SurfaceCapabilities struct {
	MinImageCount uint32
	// Zero means no upper bound.
	MaxImageCount uint32
	// Width == math.MaxUint32 means the surface lets the swapchain decide.
	CurrentExtent    Extent2D
	MinImageExtent   Extent2D
	MaxImageExtent   Extent2D
	CurrentTransform uint32
}

type MemoryType struct {
	PropertyFlags MemoryPropertyFlags
	HeapIndex     uint32
}

type MemoryProperties struct {
	Types []MemoryType
}

type MemoryRequirements struct {
	Size           DeviceSize
	Alignment      DeviceSize
	MemoryTypeBits uint32
}

// QueueFamilies are the resolved family indices of the graphics and present
// queues. They may be the same family.
type QueueFamilies struct {
	Graphics uint32
	Present  uint32
}

func (q QueueFamilies) Shared() bool {
	return q.Graphics == q.Present
}

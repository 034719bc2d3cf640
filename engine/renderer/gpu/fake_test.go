package gpu

import (
	"errors"
	"fmt"
	"math"
)

var (
	_ Device = (*fakeDevice)(nil)
	_ Window = (*fakeWindow)(nil)
)

type fenceState int

const (
	fenceUnsignaled fenceState = iota
	fencePending
	fenceSignaled
)

type fakeBuffer struct {
	size      DeviceSize
	usage     BufferUsageFlags
	memory    DeviceMemory
	destroyed bool
}

type fakeMemory struct {
	data      []byte
	typeIndex uint32
	flags     MemoryAllocateFlags
	freed     bool
	mapped    bool
}

// fakeDevice simulates a GPU that completes submitted work the moment its
// fence is waited on. It records calls and protocol violations.
type fakeDevice struct {
	nextHandle uint64
	calls      []string
	violations []string

	memoryTypes []MemoryType
	memories    map[DeviceMemory]*fakeMemory
	buffers     map[Buffer]*fakeBuffer

	allocateErr error
	bindErr     error

	fences      map[Fence]fenceState
	semaphores  map[Semaphore]bool
	cmdBuffers  map[CommandBuffer]bool
	inFlightCBs map[CommandBuffer]Fence
	submits     []SubmitInfo
	submitErr   error

	// oneShotPending is set by fenceless submits until the queue drains.
	oneShotPending bool

	families     QueueFamilies
	capabilities SurfaceCapabilities
	formats      []SurfaceFormat
	presentModes []PresentMode

	swapchains     map[SwapchainHandle]SwapchainCreateInfo
	swapchainInfos []SwapchainCreateInfo
	views          map[ImageView]bool
	framebuffers   map[Framebuffer]bool
	imageCounter   uint32

	acquireResults []Result
	presentResults []Result
	presents       []PresentInfo
	waitIdleCount  int

	buildSizes  AccelerationStructureBuildSizes
	buildGeoms  []TriangleGeometry
	buildPrims  []uint32
	structures  map[AccelerationStructure]DeviceSize
	asBuffers   map[AccelerationStructure]Buffer
	builds      []AccelerationStructureBuild
	destroyedAS []AccelerationStructure
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		nextHandle: 0x1000,
		memoryTypes: []MemoryType{
			{PropertyFlags: MemoryPropertyDeviceLocal},
			{PropertyFlags: MemoryPropertyHostVisible | MemoryPropertyHostCoherent},
		},
		memories:    make(map[DeviceMemory]*fakeMemory),
		buffers:     make(map[Buffer]*fakeBuffer),
		fences:      make(map[Fence]fenceState),
		semaphores:  make(map[Semaphore]bool),
		cmdBuffers:  make(map[CommandBuffer]bool),
		inFlightCBs: make(map[CommandBuffer]Fence),
		families:    QueueFamilies{Graphics: 0, Present: 0},
		capabilities: SurfaceCapabilities{
			MinImageCount:  2,
			MaxImageCount:  8,
			CurrentExtent:  Extent2D{Width: math.MaxUint32, Height: math.MaxUint32},
			MinImageExtent: Extent2D{Width: 1, Height: 1},
			MaxImageExtent: Extent2D{Width: 4096, Height: 4096},
		},
		formats: []SurfaceFormat{
			{Format: FormatB8G8R8A8Unorm, ColorSpace: ColorSpaceSrgbNonlinear},
			{Format: FormatB8G8R8A8Srgb, ColorSpace: ColorSpaceSrgbNonlinear},
		},
		presentModes: []PresentMode{PresentModeFifo, PresentModeMailbox},
		swapchains:   make(map[SwapchainHandle]SwapchainCreateInfo),
		views:        make(map[ImageView]bool),
		framebuffers: make(map[Framebuffer]bool),
		buildSizes: AccelerationStructureBuildSizes{
			AccelerationStructureSize: 1536,
			UpdateScratchSize:         0,
			BuildScratchSize:          2048,
		},
		structures: make(map[AccelerationStructure]DeviceSize),
		asBuffers:  make(map[AccelerationStructure]Buffer),
	}
}

func (d *fakeDevice) handle() uint64 {
	d.nextHandle++
	return d.nextHandle
}

func (d *fakeDevice) call(format string, args ...interface{}) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *fakeDevice) violate(format string, args ...interface{}) {
	d.violations = append(d.violations, fmt.Sprintf(format, args...))
}

func (d *fakeDevice) liveBuffers() int {
	n := 0
	for _, b := range d.buffers {
		if !b.destroyed {
			n++
		}
	}
	return n
}

// MemoryDevice

func (d *fakeDevice) MemoryProperties() MemoryProperties {
	return MemoryProperties{Types: d.memoryTypes}
}

func (d *fakeDevice) AllocateMemory(size DeviceSize, typeIndex uint32, flags MemoryAllocateFlags) (DeviceMemory, error) {
	d.call("AllocateMemory")
	if d.allocateErr != nil {
		return 0, d.allocateErr
	}
	m := DeviceMemory(d.handle())
	d.memories[m] = &fakeMemory{data: make([]byte, size), typeIndex: typeIndex, flags: flags}
	return m, nil
}

func (d *fakeDevice) FreeMemory(memory DeviceMemory) {
	d.call("FreeMemory")
	m, ok := d.memories[memory]
	if !ok || m.freed {
		d.violate("free of unknown or freed memory %#x", uint64(memory))
		return
	}
	m.freed = true
}

func (d *fakeDevice) MapMemory(memory DeviceMemory, offset, size DeviceSize) ([]byte, error) {
	m := d.memories[memory]
	if d.memoryTypes[m.typeIndex].PropertyFlags&MemoryPropertyHostVisible == 0 {
		d.violate("map of device local memory")
	}
	m.mapped = true
	return m.data[offset : offset+size], nil
}

func (d *fakeDevice) UnmapMemory(memory DeviceMemory) {
	d.memories[memory].mapped = false
}

// BufferDevice

func (d *fakeDevice) CreateBuffer(size DeviceSize, usage BufferUsageFlags) (Buffer, error) {
	d.call("CreateBuffer")
	b := Buffer(d.handle())
	d.buffers[b] = &fakeBuffer{size: size, usage: usage}
	return b, nil
}

func (d *fakeDevice) DestroyBuffer(buffer Buffer) {
	d.call("DestroyBuffer")
	b, ok := d.buffers[buffer]
	if !ok || b.destroyed {
		d.violate("destroy of unknown or destroyed buffer %#x", uint64(buffer))
		return
	}
	if d.oneShotPending {
		d.violate("buffer %#x destroyed while GPU work is pending", uint64(buffer))
	}
	b.destroyed = true
}

func (d *fakeDevice) BufferMemoryRequirements(buffer Buffer) MemoryRequirements {
	size := d.buffers[buffer].size
	// Round up to 256 bytes like real drivers do.
	return MemoryRequirements{Size: (size + 255) &^ 255, Alignment: 256, MemoryTypeBits: 0b11}
}

func (d *fakeDevice) BindBufferMemory(buffer Buffer, memory DeviceMemory, offset DeviceSize) error {
	d.call("BindBufferMemory")
	if d.bindErr != nil {
		return d.bindErr
	}
	d.buffers[buffer].memory = memory
	return nil
}

func (d *fakeDevice) BufferDeviceAddress(buffer Buffer) DeviceAddress {
	b := d.buffers[buffer]
	if b.usage&BufferUsageShaderDeviceAddress == 0 {
		d.violate("device address of buffer without device address usage")
	}
	if b.memory != 0 && d.memories[b.memory].flags&MemoryAllocateDeviceAddress == 0 {
		d.violate("device address of buffer bound to memory without device address flag")
	}
	return DeviceAddress(uint64(buffer) << 16)
}

// CommandDevice

func (d *fakeDevice) AllocateCommandBuffer() (CommandBuffer, error) {
	d.call("AllocateCommandBuffer")
	cb := CommandBuffer(d.handle())
	d.cmdBuffers[cb] = true
	return cb, nil
}

func (d *fakeDevice) FreeCommandBuffer(cb CommandBuffer) {
	d.call("FreeCommandBuffer")
	delete(d.cmdBuffers, cb)
}

func (d *fakeDevice) BeginCommandBuffer(cb CommandBuffer, oneTimeSubmit bool) error {
	d.call("BeginCommandBuffer")
	if _, busy := d.inFlightCBs[cb]; busy {
		d.violate("command buffer %#x recorded while in flight", uint64(cb))
	}
	return nil
}

func (d *fakeDevice) EndCommandBuffer(cb CommandBuffer) error {
	d.call("EndCommandBuffer")
	return nil
}

func (d *fakeDevice) ResetCommandBuffer(cb CommandBuffer) error {
	d.call("ResetCommandBuffer")
	if _, busy := d.inFlightCBs[cb]; busy {
		d.violate("command buffer %#x reset while in flight", uint64(cb))
	}
	return nil
}

func (d *fakeDevice) QueueSubmit(submit SubmitInfo, fence Fence) error {
	d.call("QueueSubmit")
	if d.submitErr != nil {
		return d.submitErr
	}
	d.submits = append(d.submits, submit)
	if fence == 0 {
		d.oneShotPending = true
	} else {
		if d.fences[fence] != fenceUnsignaled {
			d.violate("submit with fence %#x that was not reset", uint64(fence))
		}
		d.fences[fence] = fencePending
		for _, cb := range submit.CommandBuffers {
			d.inFlightCBs[cb] = fence
		}
	}
	return nil
}

func (d *fakeDevice) QueueWaitIdle() error {
	d.call("QueueWaitIdle")
	d.completeAll()
	return nil
}

func (d *fakeDevice) CmdCopyBuffer(cb CommandBuffer, src, dst Buffer, size DeviceSize) {
	d.call("CmdCopyBuffer")
	s, t := d.buffers[src], d.buffers[dst]
	copy(d.memories[t.memory].data[:size], d.memories[s.memory].data[:size])
}

func (d *fakeDevice) completeAll() {
	d.oneShotPending = false
	for cb, fence := range d.inFlightCBs {
		d.fences[fence] = fenceSignaled
		delete(d.inFlightCBs, cb)
	}
}

// SyncDevice

func (d *fakeDevice) CreateSemaphore() (Semaphore, error) {
	s := Semaphore(d.handle())
	d.semaphores[s] = true
	return s, nil
}

func (d *fakeDevice) DestroySemaphore(semaphore Semaphore) {
	delete(d.semaphores, semaphore)
}

func (d *fakeDevice) CreateFence(signaled bool) (Fence, error) {
	f := Fence(d.handle())
	d.fences[f] = fenceUnsignaled
	if signaled {
		d.fences[f] = fenceSignaled
	}
	return f, nil
}

func (d *fakeDevice) DestroyFence(fence Fence) {
	delete(d.fences, fence)
}

var errWouldBlock = errors.New("fence wait would block forever")

func (d *fakeDevice) WaitForFence(fence Fence, timeout uint64) error {
	d.call("WaitForFence")
	switch d.fences[fence] {
	case fenceUnsignaled:
		d.violate("wait on fence %#x with no pending work", uint64(fence))
		return errWouldBlock
	case fencePending:
		d.fences[fence] = fenceSignaled
		for cb, f := range d.inFlightCBs {
			if f == fence {
				delete(d.inFlightCBs, cb)
			}
		}
	}
	return nil
}

func (d *fakeDevice) ResetFence(fence Fence) error {
	d.call("ResetFence")
	if d.fences[fence] == fencePending {
		d.violate("reset of fence %#x with pending work", uint64(fence))
	}
	d.fences[fence] = fenceUnsignaled
	return nil
}

// SwapchainDevice

func (d *fakeDevice) QueueFamilies() QueueFamilies {
	return d.families
}

func (d *fakeDevice) SurfaceCapabilities() (SurfaceCapabilities, error) {
	return d.capabilities, nil
}

func (d *fakeDevice) SurfaceFormats() ([]SurfaceFormat, error) {
	return d.formats, nil
}

func (d *fakeDevice) SurfacePresentModes() ([]PresentMode, error) {
	return d.presentModes, nil
}

func (d *fakeDevice) CreateSwapchain(info SwapchainCreateInfo) (SwapchainHandle, error) {
	d.call("CreateSwapchain")
	h := SwapchainHandle(d.handle())
	d.swapchains[h] = info
	d.swapchainInfos = append(d.swapchainInfos, info)
	return h, nil
}

func (d *fakeDevice) DestroySwapchain(swapchain SwapchainHandle) {
	d.call("DestroySwapchain")
	if len(d.views) != 0 {
		d.violate("swapchain destroyed before its %d views", len(d.views))
	}
	delete(d.swapchains, swapchain)
}

func (d *fakeDevice) SwapchainImages(swapchain SwapchainHandle) ([]Image, error) {
	info := d.swapchains[swapchain]
	images := make([]Image, info.MinImageCount)
	for i := range images {
		images[i] = Image(d.handle())
	}
	return images, nil
}

func (d *fakeDevice) CreateImageView(image Image, format Format) (ImageView, error) {
	d.call("CreateImageView")
	v := ImageView(d.handle())
	d.views[v] = true
	return v, nil
}

func (d *fakeDevice) DestroyImageView(view ImageView) {
	d.call("DestroyImageView")
	if len(d.framebuffers) != 0 {
		d.violate("image view destroyed before framebuffers")
	}
	delete(d.views, view)
}

func (d *fakeDevice) CreateFramebuffer(renderPass RenderPass, view ImageView, extent Extent2D) (Framebuffer, error) {
	d.call("CreateFramebuffer")
	fb := Framebuffer(d.handle())
	d.framebuffers[fb] = true
	return fb, nil
}

func (d *fakeDevice) DestroyFramebuffer(framebuffer Framebuffer) {
	d.call("DestroyFramebuffer")
	delete(d.framebuffers, framebuffer)
}

func (d *fakeDevice) AcquireNextImage(swapchain SwapchainHandle, timeout uint64, signal Semaphore) (uint32, Result) {
	d.call("AcquireNextImage")
	result := Success
	if len(d.acquireResults) > 0 {
		result = d.acquireResults[0]
		d.acquireResults = d.acquireResults[1:]
	}
	count := d.swapchains[swapchain].MinImageCount
	index := d.imageCounter % count
	d.imageCounter++
	return index, result
}

func (d *fakeDevice) QueuePresent(info PresentInfo) Result {
	d.call("QueuePresent")
	d.presents = append(d.presents, info)
	if len(d.presentResults) > 0 {
		result := d.presentResults[0]
		d.presentResults = d.presentResults[1:]
		return result
	}
	return Success
}

func (d *fakeDevice) WaitIdle() error {
	d.call("WaitIdle")
	d.waitIdleCount++
	d.completeAll()
	return nil
}

// AccelerationDevice

func (d *fakeDevice) AccelerationStructureBuildSizes(geometry TriangleGeometry, primitiveCount uint32) (AccelerationStructureBuildSizes, error) {
	d.call("AccelerationStructureBuildSizes")
	d.buildGeoms = append(d.buildGeoms, geometry)
	d.buildPrims = append(d.buildPrims, primitiveCount)
	return d.buildSizes, nil
}

func (d *fakeDevice) CreateAccelerationStructure(buffer Buffer, offset, size DeviceSize) (AccelerationStructure, error) {
	d.call("CreateAccelerationStructure")
	if offset != 0 {
		d.violate("acceleration structure at offset %d", offset)
	}
	as := AccelerationStructure(d.handle())
	d.structures[as] = size
	d.asBuffers[as] = buffer
	return as, nil
}

func (d *fakeDevice) DestroyAccelerationStructure(as AccelerationStructure) {
	d.call("DestroyAccelerationStructure")
	d.destroyedAS = append(d.destroyedAS, as)
	delete(d.structures, as)
}

func (d *fakeDevice) CmdBuildAccelerationStructure(cb CommandBuffer, build AccelerationStructureBuild) {
	d.call("CmdBuildAccelerationStructure")
	d.builds = append(d.builds, build)
}

// fakeWindow returns queued framebuffer sizes, then the last one forever.
type fakeWindow struct {
	sizes       []Extent2D
	waitEvents  int
	shouldClose bool
}

func newFakeWindow(width, height uint32) *fakeWindow {
	return &fakeWindow{sizes: []Extent2D{{Width: width, Height: height}}}
}

func (w *fakeWindow) FramebufferSize() (uint32, uint32) {
	size := w.sizes[0]
	if len(w.sizes) > 1 {
		w.sizes = w.sizes[1:]
	}
	return size.Width, size.Height
}

func (w *fakeWindow) WaitEvents() {
	w.waitEvents++
}

func (w *fakeWindow) SetShouldClose(value bool) {
	w.shouldClose = value
}

func indexOf(calls []string, name string, from int) int {
	for i := from; i < len(calls); i++ {
		if calls[i] == name {
			return i
		}
	}
	return -1
}

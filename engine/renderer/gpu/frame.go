package gpu

import (
	"errors"
	"fmt"
	"math"

	"github.com/spaghettifunk/lumen/engine/core"
)

// MaxFramesInFlight is the number of frames the CPU may record ahead of the GPU.
const MaxFramesInFlight = 2

// FrameSlot holds the per frame command buffer and synchronization objects.
type FrameSlot struct {
	CommandBuffer  CommandBuffer
	ImageAvailable Semaphore
	RenderFinished Semaphore
	InFlight       Fence
}

// FrameTarget is what a Recorder draws into for one frame.
type FrameTarget struct {
	Slot        int
	ImageIndex  uint32
	Image       Image
	View        ImageView
	Framebuffer Framebuffer
	Extent      Extent2D
	Path        RenderPath
}

// Recorder fills the frame's command buffer between begin and end.
type Recorder interface {
	Record(cb CommandBuffer, target FrameTarget) error
}

type RecorderFunc func(cb CommandBuffer, target FrameTarget) error

func (f RecorderFunc) Record(cb CommandBuffer, target FrameTarget) error {
	return f(cb, target)
}

// FrameDevice is the device surface used by the frame loop.
type FrameDevice interface {
	CommandDevice
	SyncDevice
	SwapchainDevice
}

// ErrFrameDropped wraps per frame failures after which the loop may go on.
var ErrFrameDropped = errors.New("frame dropped")

// FrameEngine drives acquire, record, submit and present with
// MaxFramesInFlight slots used round robin.
type FrameEngine struct {
	device    FrameDevice
	swapchain *Swapchain
	window    Window

	slots        [MaxFramesInFlight]FrameSlot
	currentFrame int
	resized      bool
	frameNumber  uint64
}

// NewFrameEngine allocates one command buffer, two semaphores and one fence
// per slot. Fences start signaled so the first wait on each slot returns.
func NewFrameEngine(device FrameDevice, swapchain *Swapchain, window Window) (*FrameEngine, error) {
	f := &FrameEngine{
		device:    device,
		swapchain: swapchain,
		window:    window,
	}
	for i := range f.slots {
		slot := &f.slots[i]
		var err error
		if slot.CommandBuffer, err = device.AllocateCommandBuffer(); err != nil {
			f.Destroy()
			return nil, fmt.Errorf("frame %d command buffer: %w", i, err)
		}
		if slot.ImageAvailable, err = device.CreateSemaphore(); err != nil {
			f.Destroy()
			return nil, fmt.Errorf("frame %d image available semaphore: %w", i, err)
		}
		if slot.RenderFinished, err = device.CreateSemaphore(); err != nil {
			f.Destroy()
			return nil, fmt.Errorf("frame %d render finished semaphore: %w", i, err)
		}
		if slot.InFlight, err = device.CreateFence(true); err != nil {
			f.Destroy()
			return nil, fmt.Errorf("frame %d in flight fence: %w", i, err)
		}
	}
	return f, nil
}

// CurrentFrame is the index of the slot the next DrawFrame uses.
func (f *FrameEngine) CurrentFrame() int {
	return f.currentFrame
}

// FrameNumber counts frames that were submitted and presented.
func (f *FrameEngine) FrameNumber() uint64 {
	return f.frameNumber
}

func (f *FrameEngine) Slot(i int) FrameSlot {
	return f.slots[i]
}

// NotifyResized marks the swapchain stale; it is rebuilt after the next present.
func (f *FrameEngine) NotifyResized() {
	f.resized = true
}

// DrawFrame runs one iteration of the frame protocol. It returns
// core.ErrSwapchainBooting when the frame was skipped because the swapchain
// had to be recreated, an error wrapping ErrFrameDropped when the frame was
// abandoned but rendering may continue, and any other error when rendering
// cannot continue.
func (f *FrameEngine) DrawFrame(recorder Recorder) error {
	slot := &f.slots[f.currentFrame]

	// Wait for the GPU to be done with this slot's previous submission.
	if err := f.device.WaitForFence(slot.InFlight, math.MaxUint64); err != nil {
		return fmt.Errorf("wait for frame %d: %w", f.currentFrame, err)
	}

	imageIndex, result := f.device.AcquireNextImage(f.swapchain.Handle, math.MaxUint64, slot.ImageAvailable)
	switch result {
	case Success, Suboptimal:
	case ErrorOutOfDate:
		// Nothing was submitted, so the fence stays signaled and the slot is reused.
		if err := f.swapchain.Recreate(); err != nil {
			return err
		}
		return core.ErrSwapchainBooting
	default:
		f.window.SetShouldClose(true)
		return fmt.Errorf("%w: %w", core.ErrWindowClosed, &ResultError{Op: "vkAcquireNextImageKHR", Result: result})
	}

	// Only reset once work is certain to be submitted with this fence.
	if err := f.device.ResetFence(slot.InFlight); err != nil {
		return fmt.Errorf("reset frame %d fence: %w", f.currentFrame, err)
	}

	if err := f.record(slot.CommandBuffer, imageIndex, recorder); err != nil {
		f.rearmFence(slot)
		return fmt.Errorf("%w: record: %w", ErrFrameDropped, err)
	}

	submit := SubmitInfo{
		CommandBuffers:   []CommandBuffer{slot.CommandBuffer},
		WaitSemaphores:   []Semaphore{slot.ImageAvailable},
		WaitStages:       []PipelineStageFlags{PipelineStageColorAttachmentOutput},
		SignalSemaphores: []Semaphore{slot.RenderFinished},
	}
	if err := f.device.QueueSubmit(submit, slot.InFlight); err != nil {
		f.rearmFence(slot)
		return fmt.Errorf("%w: submit: %w", ErrFrameDropped, err)
	}

	result = f.device.QueuePresent(PresentInfo{
		WaitSemaphores: []Semaphore{slot.RenderFinished},
		Swapchain:      f.swapchain.Handle,
		ImageIndex:     imageIndex,
	})
	if result == ErrorOutOfDate || result == Suboptimal || f.resized {
		f.resized = false
		if err := f.swapchain.Recreate(); err != nil {
			return err
		}
	} else if result != Success {
		return fmt.Errorf("%w: %w", ErrFrameDropped, &ResultError{Op: "vkQueuePresentKHR", Result: result})
	}

	f.frameNumber++
	f.currentFrame = (f.currentFrame + 1) % MaxFramesInFlight
	return nil
}

func (f *FrameEngine) record(cb CommandBuffer, imageIndex uint32, recorder Recorder) error {
	if err := f.device.ResetCommandBuffer(cb); err != nil {
		return err
	}
	if err := f.device.BeginCommandBuffer(cb, false); err != nil {
		return err
	}
	target := FrameTarget{
		Slot:       f.currentFrame,
		ImageIndex: imageIndex,
		Image:      f.swapchain.Images[imageIndex],
		View:       f.swapchain.Views[imageIndex],
		Extent:     f.swapchain.Extent,
		Path:       f.swapchain.Path(),
	}
	if int(imageIndex) < len(f.swapchain.Framebuffers) {
		target.Framebuffer = f.swapchain.Framebuffers[imageIndex]
	}
	if err := recorder.Record(cb, target); err != nil {
		return err
	}
	return f.device.EndCommandBuffer(cb)
}

// rearmFence swaps in a signaled fence for one that was reset but will never
// be signaled, so the next wait on the slot returns.
func (f *FrameEngine) rearmFence(slot *FrameSlot) {
	fence, err := f.device.CreateFence(true)
	if err != nil {
		core.LogError("failed to re-create in flight fence: %s", err)
		return
	}
	f.device.DestroyFence(slot.InFlight)
	slot.InFlight = fence
}

// Destroy releases all slot objects. The device must be idle.
func (f *FrameEngine) Destroy() {
	for i := range f.slots {
		slot := &f.slots[i]
		if slot.InFlight != 0 {
			f.device.DestroyFence(slot.InFlight)
			slot.InFlight = 0
		}
		if slot.RenderFinished != 0 {
			f.device.DestroySemaphore(slot.RenderFinished)
			slot.RenderFinished = 0
		}
		if slot.ImageAvailable != 0 {
			f.device.DestroySemaphore(slot.ImageAvailable)
			slot.ImageAvailable = 0
		}
		if slot.CommandBuffer != 0 {
			f.device.FreeCommandBuffer(slot.CommandBuffer)
			slot.CommandBuffer = 0
		}
	}
}

package gpu

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/lumen/engine/core"
)

type frameFixture struct {
	device    *fakeDevice
	window    *fakeWindow
	swapchain *Swapchain
	frames    *FrameEngine
	targets   []FrameTarget
}

func newFrameFixture(t *testing.T, path RenderPath) *frameFixture {
	t.Helper()
	f := &frameFixture{device: newFakeDevice(), window: newFakeWindow(800, 600)}
	var err error
	if f.swapchain, err = NewSwapchain(f.device, f.window, path); err != nil {
		t.Fatalf("NewSwapchain() error = %v", err)
	}
	if path.UsesFramebuffers() {
		if err := f.swapchain.AttachRenderPass(RenderPass(0x77)); err != nil {
			t.Fatalf("AttachRenderPass() error = %v", err)
		}
	}
	if f.frames, err = NewFrameEngine(f.device, f.swapchain, f.window); err != nil {
		t.Fatalf("NewFrameEngine() error = %v", err)
	}
	return f
}

func (f *frameFixture) recorder() Recorder {
	return RecorderFunc(func(cb CommandBuffer, target FrameTarget) error {
		f.targets = append(f.targets, target)
		return nil
	})
}

func (f *frameFixture) checkViolations(t *testing.T) {
	t.Helper()
	for _, v := range f.device.violations {
		t.Errorf("violation: %s", v)
	}
}

func TestFrameRotation(t *testing.T) {
	f := newFrameFixture(t, DynamicRendering)

	for n := 0; n < 7; n++ {
		if got := f.frames.CurrentFrame(); got != n%MaxFramesInFlight {
			t.Fatalf("before frame %d: CurrentFrame() = %d, want %d", n, got, n%MaxFramesInFlight)
		}
		if err := f.frames.DrawFrame(f.recorder()); err != nil {
			t.Fatalf("DrawFrame() #%d error = %v", n, err)
		}
	}
	if f.frames.CurrentFrame() != 7%MaxFramesInFlight {
		t.Errorf("CurrentFrame() = %d, want %d", f.frames.CurrentFrame(), 7%MaxFramesInFlight)
	}
	if f.frames.FrameNumber() != 7 {
		t.Errorf("FrameNumber() = %d, want 7", f.frames.FrameNumber())
	}
	for i, target := range f.targets {
		if target.Slot != i%MaxFramesInFlight {
			t.Errorf("frame %d recorded into slot %d", i, target.Slot)
		}
		if target.View != f.swapchain.Views[target.ImageIndex] {
			t.Errorf("frame %d view does not match image %d", i, target.ImageIndex)
		}
	}
	f.checkViolations(t)
}

func TestFrameSubmitAndPresent(t *testing.T) {
	f := newFrameFixture(t, DynamicRendering)
	if err := f.frames.DrawFrame(f.recorder()); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	slot := f.frames.Slot(0)

	if len(f.device.submits) != 1 {
		t.Fatalf("%d submits, want 1", len(f.device.submits))
	}
	submit := f.device.submits[0]
	if len(submit.WaitSemaphores) != 1 || submit.WaitSemaphores[0] != slot.ImageAvailable {
		t.Errorf("submit waits on %v, want image available semaphore", submit.WaitSemaphores)
	}
	if len(submit.WaitStages) != 1 || submit.WaitStages[0] != PipelineStageColorAttachmentOutput {
		t.Errorf("submit wait stages = %v, want color attachment output", submit.WaitStages)
	}
	if len(submit.SignalSemaphores) != 1 || submit.SignalSemaphores[0] != slot.RenderFinished {
		t.Errorf("submit signals %v, want render finished semaphore", submit.SignalSemaphores)
	}
	present := f.device.presents[0]
	if len(present.WaitSemaphores) != 1 || present.WaitSemaphores[0] != slot.RenderFinished {
		t.Errorf("present waits on %v, want render finished semaphore", present.WaitSemaphores)
	}
	if present.Swapchain != f.swapchain.Handle {
		t.Errorf("present on %#x, want %#x", uint64(present.Swapchain), uint64(f.swapchain.Handle))
	}

	want := []string{
		"WaitForFence", "AcquireNextImage", "ResetFence", "ResetCommandBuffer",
		"BeginCommandBuffer", "EndCommandBuffer", "QueueSubmit", "QueuePresent",
	}
	from := indexOf(f.device.calls, "WaitForFence", 0)
	for _, name := range want {
		at := indexOf(f.device.calls, name, from)
		if at < 0 {
			t.Fatalf("calls = %v, missing %s in order", f.device.calls, name)
		}
		from = at
	}
}

func TestFrameSuboptimalAcquireRenders(t *testing.T) {
	f := newFrameFixture(t, DynamicRendering)
	f.device.acquireResults = []Result{Suboptimal}

	if err := f.frames.DrawFrame(f.recorder()); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	if len(f.targets) != 1 || f.frames.CurrentFrame() != 1 {
		t.Errorf("suboptimal acquire: %d recorded, current frame %d", len(f.targets), f.frames.CurrentFrame())
	}
}

func TestFrameOutOfDateAcquire(t *testing.T) {
	f := newFrameFixture(t, DynamicRendering)
	old := f.swapchain.Handle
	f.device.acquireResults = []Result{ErrorOutOfDate}

	err := f.frames.DrawFrame(f.recorder())
	if !errors.Is(err, core.ErrSwapchainBooting) {
		t.Fatalf("DrawFrame() error = %v, want ErrSwapchainBooting", err)
	}
	if f.frames.CurrentFrame() != 0 {
		t.Errorf("CurrentFrame() = %d, want 0 after skipped frame", f.frames.CurrentFrame())
	}
	if indexOf(f.device.calls, "ResetFence", 0) >= 0 {
		t.Errorf("fence reset on skipped frame: %v", f.device.calls)
	}
	if len(f.targets) != 0 || len(f.device.submits) != 0 {
		t.Errorf("skipped frame recorded %d and submitted %d", len(f.targets), len(f.device.submits))
	}
	if f.swapchain.Handle == old {
		t.Errorf("swapchain was not recreated")
	}

	// The slot's fence is still signaled so the next frame does not block.
	if err := f.frames.DrawFrame(f.recorder()); err != nil {
		t.Fatalf("DrawFrame() after recreation error = %v", err)
	}
	if f.frames.CurrentFrame() != 1 {
		t.Errorf("CurrentFrame() = %d, want 1", f.frames.CurrentFrame())
	}
	f.checkViolations(t)
}

func TestFrameAcquireFailureClosesWindow(t *testing.T) {
	f := newFrameFixture(t, DynamicRendering)
	f.device.acquireResults = []Result{ErrorSurfaceLost}

	err := f.frames.DrawFrame(f.recorder())
	if r, ok := ResultOf(err); !ok || r != ErrorSurfaceLost {
		t.Fatalf("DrawFrame() error = %v, want surface lost", err)
	}
	if errors.Is(err, ErrFrameDropped) {
		t.Errorf("acquire failure reported as dropped frame")
	}
	if !errors.Is(err, core.ErrWindowClosed) {
		t.Errorf("DrawFrame() error = %v, want %v", err, core.ErrWindowClosed)
	}
	if !f.window.shouldClose {
		t.Errorf("window not asked to close")
	}
	if len(f.device.submits) != 0 {
		t.Errorf("%d submits after failed acquire", len(f.device.submits))
	}
}

func TestFramePresentOutOfDateRecreates(t *testing.T) {
	for _, result := range []Result{ErrorOutOfDate, Suboptimal} {
		t.Run(result.String(), func(t *testing.T) {
			f := newFrameFixture(t, DynamicRendering)
			old := f.swapchain.Handle
			f.device.presentResults = []Result{result}

			if err := f.frames.DrawFrame(f.recorder()); err != nil {
				t.Fatalf("DrawFrame() error = %v", err)
			}
			if f.swapchain.Handle == old {
				t.Errorf("swapchain was not recreated")
			}
			if f.frames.CurrentFrame() != 1 {
				t.Errorf("CurrentFrame() = %d, want 1", f.frames.CurrentFrame())
			}
			f.checkViolations(t)
		})
	}
}

func TestFrameResizeFlag(t *testing.T) {
	f := newFrameFixture(t, DynamicRendering)
	old := f.swapchain.Handle

	f.window.sizes = []Extent2D{{Width: 1024, Height: 768}}
	f.frames.NotifyResized()
	if err := f.frames.DrawFrame(f.recorder()); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	if f.swapchain.Handle == old {
		t.Fatalf("swapchain was not recreated after resize")
	}
	if f.swapchain.Extent != (Extent2D{Width: 1024, Height: 768}) {
		t.Errorf("Extent = %+v, want 1024x768", f.swapchain.Extent)
	}

	// The flag is cleared by the recreation.
	recreated := f.swapchain.Handle
	if err := f.frames.DrawFrame(f.recorder()); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	if f.swapchain.Handle != recreated {
		t.Errorf("swapchain recreated again without a resize")
	}
	f.checkViolations(t)
}

func TestFramePresentFailureDropsFrame(t *testing.T) {
	f := newFrameFixture(t, DynamicRendering)
	f.device.presentResults = []Result{ErrorDeviceLost}

	err := f.frames.DrawFrame(f.recorder())
	if !errors.Is(err, ErrFrameDropped) {
		t.Fatalf("DrawFrame() error = %v, want ErrFrameDropped", err)
	}
	if f.frames.CurrentFrame() != 0 {
		t.Errorf("CurrentFrame() = %d, want 0", f.frames.CurrentFrame())
	}
}

func TestFrameRecordFailureRearmsFence(t *testing.T) {
	f := newFrameFixture(t, DynamicRendering)
	failing := RecorderFunc(func(cb CommandBuffer, target FrameTarget) error {
		return errors.New("pipeline missing")
	})
	before := f.frames.Slot(0).InFlight

	if err := f.frames.DrawFrame(failing); !errors.Is(err, ErrFrameDropped) {
		t.Fatalf("DrawFrame() error = %v, want ErrFrameDropped", err)
	}
	if f.frames.Slot(0).InFlight == before {
		t.Errorf("fence was not replaced")
	}
	// Slot 0 comes around again after one more frame and must not block.
	for i := 0; i < 3; i++ {
		if err := f.frames.DrawFrame(f.recorder()); err != nil {
			t.Fatalf("DrawFrame() #%d error = %v", i, err)
		}
	}
	f.checkViolations(t)
}

func TestFrameSubmitFailure(t *testing.T) {
	f := newFrameFixture(t, DynamicRendering)
	f.device.submitErr = NewResultError("vkQueueSubmit", ErrorDeviceLost)

	err := f.frames.DrawFrame(f.recorder())
	if !errors.Is(err, ErrFrameDropped) {
		t.Fatalf("DrawFrame() error = %v, want ErrFrameDropped", err)
	}
	if r, ok := ResultOf(err); !ok || r != ErrorDeviceLost {
		t.Errorf("ResultOf() = %v, %v, want device lost", r, ok)
	}
	if len(f.device.presents) != 0 {
		t.Errorf("presented a frame that was never submitted")
	}
}

func TestFrameRenderPassTargets(t *testing.T) {
	f := newFrameFixture(t, RenderPassFramebuffer)
	for i := 0; i < 4; i++ {
		if err := f.frames.DrawFrame(f.recorder()); err != nil {
			t.Fatalf("DrawFrame() error = %v", err)
		}
	}
	for _, target := range f.targets {
		if target.Path != RenderPassFramebuffer {
			t.Errorf("target path = %s", target.Path)
		}
		if target.Framebuffer != f.swapchain.Framebuffers[target.ImageIndex] {
			t.Errorf("image %d drawn into the wrong framebuffer", target.ImageIndex)
		}
	}
	f.checkViolations(t)
}

func TestFrameEngineDestroy(t *testing.T) {
	f := newFrameFixture(t, DynamicRendering)
	if err := f.frames.DrawFrame(f.recorder()); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	if err := f.device.WaitIdle(); err != nil {
		t.Fatal(err)
	}
	f.frames.Destroy()
	if len(f.device.fences) != 0 || len(f.device.semaphores) != 0 || len(f.device.cmdBuffers) != 0 {
		t.Errorf("Destroy left %d fences, %d semaphores, %d command buffers",
			len(f.device.fences), len(f.device.semaphores), len(f.device.cmdBuffers))
	}
}

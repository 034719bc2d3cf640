package engine

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spaghettifunk/lumen/engine/core"
)

type fakePlatform struct {
	waiting     chan struct{}
	wake        chan struct{}
	wakes       atomic.Int32
	pumps       atomic.Int32
	shouldClose atomic.Bool
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		waiting: make(chan struct{}, 1),
		wake:    make(chan struct{}, 1),
	}
}

func (p *fakePlatform) Startup(string, uint32, uint32, uint32, uint32) error { return nil }
func (p *fakePlatform) Shutdown() error                                      { return nil }
func (p *fakePlatform) PumpMessages()                                        { p.pumps.Add(1) }
func (p *fakePlatform) ShouldClose() bool                                    { return p.shouldClose.Load() }

// WaitEvents blocks like glfw.WaitEvents until Wake posts an event.
func (p *fakePlatform) WaitEvents() {
	select {
	case p.waiting <- struct{}{}:
	default:
	}
	<-p.wake
}

func (p *fakePlatform) Wake() {
	p.wakes.Add(1)
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

type fakeRenderer struct {
	draws atomic.Int32
	err   error
	// onDraw runs inside DrawFrame when set.
	onDraw func(n int32)
}

func (r *fakeRenderer) Initialize() error { return nil }
func (r *fakeRenderer) Shutdown()         {}

func (r *fakeRenderer) DrawFrame() error {
	n := r.draws.Add(1)
	if r.onDraw != nil {
		r.onDraw(n)
	}
	return r.err
}

func (r *fakeRenderer) FrameNumber() uint64 { return uint64(r.draws.Load()) }

func newTestEngine(p *fakePlatform, r *fakeRenderer) *Engine {
	return &Engine{
		config:   DefaultConfig(),
		events:   core.NewEventBus(),
		platform: p,
		renderer: r,
		width:    800,
		height:   600,
		clock:    core.NewClock(),
		metrics:  core.NewFrameMetrics(),
	}
}

// runAsync starts Run and returns a channel carrying its result.
func runAsync(e *Engine) <-chan error {
	done := make(chan error, 1)
	go func() { done <- e.Run() }()
	return done
}

func waitRun(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return")
		return nil
	}
}

func TestStopWakesSuspendedRun(t *testing.T) {
	p := newFakePlatform()
	r := &fakeRenderer{}
	e := newTestEngine(p, r)
	e.isSuspended = true

	done := runAsync(e)
	select {
	case <-p.waiting:
	case <-time.After(5 * time.Second):
		t.Fatal("Run() never waited for events")
	}

	e.Stop()
	if err := waitRun(t, done); err != nil {
		t.Errorf("Run() error = %v, want nil", err)
	}
	if got := p.wakes.Load(); got != 1 {
		t.Errorf("Wake() called %d times, want 1", got)
	}
	if got := r.draws.Load(); got != 0 {
		t.Errorf("DrawFrame() called %d times while suspended, want 0", got)
	}
}

func TestStopEndsRunningLoop(t *testing.T) {
	p := newFakePlatform()
	r := &fakeRenderer{}
	e := newTestEngine(p, r)
	r.onDraw = func(n int32) {
		if n == 3 {
			e.Stop()
		}
	}

	if err := waitRun(t, runAsync(e)); err != nil {
		t.Errorf("Run() error = %v, want nil", err)
	}
	if got := r.draws.Load(); got != 3 {
		t.Errorf("DrawFrame() called %d times, want 3", got)
	}
	if got := p.pumps.Load(); got != 3 {
		t.Errorf("PumpMessages() called %d times, want 3", got)
	}
	// Stopping twice must not block.
	e.Stop()
}

func TestRunStopsWhenWindowCloses(t *testing.T) {
	p := newFakePlatform()
	r := &fakeRenderer{}
	e := newTestEngine(p, r)
	r.onDraw = func(n int32) {
		if n == 2 {
			p.shouldClose.Store(true)
		}
	}

	if err := waitRun(t, runAsync(e)); err != nil {
		t.Errorf("Run() error = %v, want nil", err)
	}
	if got := r.draws.Load(); got != 2 {
		t.Errorf("DrawFrame() called %d times, want 2", got)
	}
}

func TestRunReturnsRenderError(t *testing.T) {
	want := errors.New("device lost")
	p := newFakePlatform()
	r := &fakeRenderer{err: want}
	e := newTestEngine(p, r)

	if err := waitRun(t, runAsync(e)); !errors.Is(err, want) {
		t.Errorf("Run() error = %v, want %v", err, want)
	}
	if got := r.draws.Load(); got != 1 {
		t.Errorf("DrawFrame() called %d times, want 1", got)
	}
}

func TestOnResizedSuspends(t *testing.T) {
	e := newTestEngine(newFakePlatform(), &fakeRenderer{})

	resize := func(width, height uint32) {
		var ctx core.EventContext
		ctx.Data.U32[0] = width
		ctx.Data.U32[1] = height
		e.onResized(core.EVENT_CODE_RESIZED, nil, e, ctx)
	}

	tests := []struct {
		width, height uint32
		wantSuspended bool
	}{
		{0, 0, true},
		{0, 600, true},
		{1024, 768, false},
		{1024, 0, true},
		{800, 600, false},
	}
	for _, tt := range tests {
		resize(tt.width, tt.height)
		if e.isSuspended != tt.wantSuspended {
			t.Errorf("after resize to %dx%d: suspended = %v, want %v", tt.width, tt.height, e.isSuspended, tt.wantSuspended)
		}
	}
}

package engine

import (
	"sync/atomic"

	"github.com/spaghettifunk/lumen/engine/assets"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/platform"
	"github.com/spaghettifunk/lumen/engine/renderer"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

func (s Stage) String() string {
	switch s {
	case EngineStageUninitialized:
		return "uninitialized"
	case EngineStageInitializing:
		return "initializing"
	case EngineStageInitialized:
		return "initialized"
	case EngineStageRunning:
		return "running"
	case EngineStageShuttingDown:
		return "shutting down"
	}
	return "unknown"
}

// windowSystem is the part of platform.Platform the frame loop drives.
type windowSystem interface {
	Startup(applicationName string, x uint32, y uint32, width uint32, height uint32) error
	Shutdown() error
	PumpMessages()
	WaitEvents()
	Wake()
	ShouldClose() bool
}

type frameRenderer interface {
	Initialize() error
	Shutdown()
	DrawFrame() error
	FrameNumber() uint64
}

var (
	_ windowSystem  = (*platform.Platform)(nil)
	_ frameRenderer = (*renderer.Renderer)(nil)
)

type Engine struct {
	currentStage Stage
	config       *ApplicationConfig
	isRunning    atomic.Bool
	isSuspended  bool
	events       *core.EventBus
	platform     windowSystem
	assetManager *assets.AssetManager
	renderer     frameRenderer
	width        uint32
	height       uint32
	clock        *core.Clock
	metrics      *core.FrameMetrics
	lastTime     float64
}

func New(config *ApplicationConfig) (*Engine, error) {
	events := core.NewEventBus()

	p, err := platform.New(events)
	if err != nil {
		return nil, err
	}
	am := assets.NewAssetManager(events)

	r := renderer.New(renderer.Config{
		ApplicationName: config.Name,
		Validation:      config.Validation,
		Path:            config.RenderPath,
		HotReload:       config.HotReload,
		Clear:           [4]float32{0, 0, 0, 1},
	}, p, events, am)

	return &Engine{
		currentStage: EngineStageUninitialized,
		config:       config,
		events:       events,
		platform:     p,
		assetManager: am,
		renderer:     r,
		width:        config.StartWidth,
		height:       config.StartHeight,
		clock:        core.NewClock(),
		metrics:      core.NewFrameMetrics(),
	}, nil
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	core.SetLogLevel(e.config.Level())

	// register some events
	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	e.events.Register(core.EVENT_CODE_KEY_PRESSED, e, e.onKey)
	e.events.Register(core.EVENT_CODE_RESIZED, e, e.onResized)

	if err := e.platform.Startup(e.config.Name,
		e.config.StartPosX,
		e.config.StartPosY,
		e.config.StartWidth,
		e.config.StartHeight); err != nil {
		return err
	}

	// initialize subsystems
	if err := e.assetManager.Initialize(e.config.ShaderDir); err != nil {
		return err
	}
	if e.config.HotReload {
		if err := e.assetManager.Watch(); err != nil {
			core.LogWarn("shader hot reload disabled: %s", err)
		}
	}

	if err := e.renderer.Initialize(); err != nil {
		return err
	}

	e.currentStage = EngineStageInitialized
	return nil
}

// Run drives the frame loop until the window closes or Stop is called. An
// error means rendering could not continue.
func (e *Engine) Run() error {
	e.currentStage = EngineStageRunning
	e.isRunning.Store(true)
	e.clock.Start()

	for e.isRunning.Load() {
		if e.isSuspended {
			// Nothing to draw while minimized, block until something happens.
			e.platform.WaitEvents()
		} else {
			e.platform.PumpMessages()
		}
		if e.platform.ShouldClose() {
			e.isRunning.Store(false)
			break
		}
		if e.isSuspended {
			continue
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime

		if err := e.renderer.DrawFrame(); err != nil {
			e.isRunning.Store(false)
			return err
		}

		if e.metrics.Update(delta) {
			core.LogDebug("FPS: %.0f, frame time: %.3fms, frames: %d", e.metrics.FPS(), e.metrics.FrameTime(), e.renderer.FrameNumber())
		}
		e.lastTime = currentTime
	}

	return nil
}

// Stop ends the frame loop after the current frame, or right away when the
// loop is blocked waiting for a minimized window. Safe to call from any
// goroutine.
func (e *Engine) Stop() {
	e.isRunning.Store(false)
	e.platform.Wake()
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	e.renderer.Shutdown()
	e.assetManager.Shutdown()
	e.events.Shutdown()
	if err := e.platform.Shutdown(); err != nil {
		return err
	}
	e.currentStage = EngineStageUninitialized
	return nil
}

func (e *Engine) onEvent(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	switch code {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.Stop()
		return true
	}
	return false
}

func (e *Engine) onKey(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	core.LogDebug("key %d pressed in window.", data.Data.U32[0])
	return false
}

func (e *Engine) onResized(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	width := data.Data.U32[0]
	height := data.Data.U32[1]

	if width == e.width && height == e.height {
		return false
	}
	e.width = width
	e.height = height
	core.LogDebug("Window resize: %d, %d", width, height)

	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return false
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	// Let the renderer see the event too.
	return false
}

package core

import "github.com/spaghettifunk/lumen/engine/containers"

const AVG_COUNT = 30

// FrameMetrics keeps a rolling frame time average over the last AVG_COUNT
// frames and a frames-per-second counter updated once per second of
// accumulated frame time.
type FrameMetrics struct {
	msTimes            *containers.RingQueue[float64]
	msSum              float64
	frames             int32
	accumulatedFrameMS float64
	fps                float64
}

func NewFrameMetrics() *FrameMetrics {
	return &FrameMetrics{
		msTimes: containers.NewRingQueue[float64](AVG_COUNT),
	}
}

// Update records one frame that took frameElapsed seconds. It reports true
// when a new FPS value was published.
func (m *FrameMetrics) Update(frameElapsed float64) bool {
	// Calculate frame ms average
	frameMS := frameElapsed * 1000.0
	if m.msTimes.IsFull() {
		oldest, _ := m.msTimes.Dequeue()
		m.msSum -= oldest
	}
	m.msTimes.Enqueue(frameMS)
	m.msSum += frameMS

	// Count all frames.
	m.frames++

	// Calculate frames per second.
	m.accumulatedFrameMS += frameMS
	if m.accumulatedFrameMS > 1000 {
		m.fps = float64(m.frames)
		m.accumulatedFrameMS -= 1000
		m.frames = 0
		return true
	}
	return false
}

func (m *FrameMetrics) FPS() float64 {
	return m.fps
}

// FrameTime is the average frame time in milliseconds.
func (m *FrameMetrics) FrameTime() float64 {
	if m.msTimes.Len() == 0 {
		return 0
	}
	return m.msSum / float64(m.msTimes.Len())
}

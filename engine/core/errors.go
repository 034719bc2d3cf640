package core

import (
	"errors"
)

var (
	ErrSwapchainBooting = errors.New("swapchain resized or recreated, booting")
	ErrNoSuitableDevice = errors.New("no physical device meets the requirements")
	ErrNoMemoryType     = errors.New("no memory type satisfies the requested properties")
	ErrInvalidTopology  = errors.New("geometry is not a triangle list")
	ErrWindowClosed     = errors.New("window close requested")
)

package gpu

import (
	"fmt"
	"strings"
)

// RenderPath selects how the frame's color attachment is bound while
// drawing.
type RenderPath int

const (
	// DynamicRendering records into the swapchain image view directly with
	// explicit layout transitions. No render pass or framebuffers exist.
	DynamicRendering RenderPath = iota
	// RenderPassFramebuffer uses a classic render pass and one framebuffer
	// per swapchain image; the render pass performs the layout transitions.
	RenderPassFramebuffer
)

func (p RenderPath) String() string {
	switch p {
	case DynamicRendering:
		return "dynamic"
	case RenderPassFramebuffer:
		return "renderpass"
	}
	return fmt.Sprintf("RenderPath(%d)", int(p))
}

// UsesFramebuffers reports whether the swapchain must own framebuffers.
func (p RenderPath) UsesFramebuffers() bool {
	return p == RenderPassFramebuffer
}

func ParseRenderPath(s string) (RenderPath, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dynamic", "dynamic_rendering":
		return DynamicRendering, nil
	case "renderpass", "render_pass", "framebuffer":
		return RenderPassFramebuffer, nil
	}
	return DynamicRendering, fmt.Errorf("unknown render path %q", s)
}

// MarshalText and UnmarshalText let the path be used directly in config files.
func (p RenderPath) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *RenderPath) UnmarshalText(text []byte) error {
	parsed, err := ParseRenderPath(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

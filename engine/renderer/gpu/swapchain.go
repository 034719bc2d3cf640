package gpu

import (
	"fmt"
	"math"

	"github.com/spaghettifunk/lumen/engine/core"
	lmath "github.com/spaghettifunk/lumen/engine/math"
)

// Swapchain owns the presentable images, one view per image and, for the
// RenderPassFramebuffer path, one framebuffer per image. It is recreated in
// place whenever the surface changes size.
type Swapchain struct {
	device SwapchainDevice
	window Window
	path   RenderPath

	Handle      SwapchainHandle
	Format      SurfaceFormat
	PresentMode PresentMode
	Extent      Extent2D
	ImageCount  uint32

	Images       []Image
	Views        []ImageView
	Framebuffers []Framebuffer

	renderPass RenderPass
}

// NewSwapchain creates a swapchain sized to the window's current framebuffer.
func NewSwapchain(device SwapchainDevice, window Window, path RenderPath) (*Swapchain, error) {
	s := &Swapchain{
		device: device,
		window: window,
		path:   path,
	}
	if err := s.create(); err != nil {
		return nil, err
	}
	return s, nil
}

// ChooseSurfaceFormat prefers 8-bit BGRA sRGB with the sRGB non-linear color
// space and otherwise takes the first supported format.
func ChooseSurfaceFormat(formats []SurfaceFormat) (SurfaceFormat, error) {
	if len(formats) == 0 {
		return SurfaceFormat{}, fmt.Errorf("surface reports no formats")
	}
	for _, format := range formats {
		// Preferred formats
		if format.Format == FormatB8G8R8A8Srgb && format.ColorSpace == ColorSpaceSrgbNonlinear {
			return format, nil
		}
	}
	return formats[0], nil
}

// ChoosePresentMode prefers mailbox and falls back to FIFO, which every
// driver must support.
func ChoosePresentMode(modes []PresentMode) PresentMode {
	for _, mode := range modes {
		if mode == PresentModeMailbox {
			return mode
		}
	}
	return PresentModeFifo
}

// ChooseExtent uses the surface's current extent unless it carries the
// "undefined" sentinel, in which case the framebuffer size is clamped into
// the surface bounds.
func ChooseExtent(capabilities SurfaceCapabilities, framebufferWidth, framebufferHeight uint32) Extent2D {
	if capabilities.CurrentExtent.Width != math.MaxUint32 {
		return capabilities.CurrentExtent
	}
	// Clamp to the value allowed by the GPU.
	return Extent2D{
		Width:  lmath.Clamp(framebufferWidth, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: lmath.Clamp(framebufferHeight, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}

// ChooseImageCount asks for one image more than the minimum, capped by the
// advertised maximum when there is one.
func ChooseImageCount(capabilities SurfaceCapabilities) uint32 {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && imageCount > capabilities.MaxImageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}

func (s *Swapchain) create() error {
	capabilities, err := s.device.SurfaceCapabilities()
	if err != nil {
		return fmt.Errorf("query surface capabilities: %w", err)
	}
	formats, err := s.device.SurfaceFormats()
	if err != nil {
		return fmt.Errorf("query surface formats: %w", err)
	}
	modes, err := s.device.SurfacePresentModes()
	if err != nil {
		return fmt.Errorf("query surface present modes: %w", err)
	}

	format, err := ChooseSurfaceFormat(formats)
	if err != nil {
		return err
	}
	width, height := s.window.FramebufferSize()

	info := SwapchainCreateInfo{
		MinImageCount: ChooseImageCount(capabilities),
		Format:        format,
		Extent:        ChooseExtent(capabilities, width, height),
		PresentMode:   ChoosePresentMode(modes),
		SharingMode:   SharingModeExclusive,
		PreTransform:  capabilities.CurrentTransform,
	}

	// Images are used across both queue families when they differ.
	families := s.device.QueueFamilies()
	if !families.Shared() {
		info.SharingMode = SharingModeConcurrent
		info.QueueFamilyIndices = []uint32{families.Graphics, families.Present}
	}

	handle, err := s.device.CreateSwapchain(info)
	if err != nil {
		return fmt.Errorf("create swapchain: %w", err)
	}
	s.Handle = handle
	s.Format = info.Format
	s.PresentMode = info.PresentMode
	s.Extent = info.Extent

	images, err := s.device.SwapchainImages(handle)
	if err != nil {
		s.Destroy()
		return fmt.Errorf("get swapchain images: %w", err)
	}
	s.Images = images
	s.ImageCount = uint32(len(images))

	s.Views = make([]ImageView, 0, len(images))
	for i, image := range images {
		view, err := s.device.CreateImageView(image, s.Format.Format)
		if err != nil {
			s.Destroy()
			return fmt.Errorf("create view for swapchain image %d: %w", i, err)
		}
		s.Views = append(s.Views, view)
	}

	if err := s.createFramebuffers(); err != nil {
		s.Destroy()
		return err
	}

	core.LogInfo("Swapchain created: %dx%d, %d images, %s.", s.Extent.Width, s.Extent.Height, s.ImageCount, s.PresentMode)
	return nil
}

func (s *Swapchain) createFramebuffers() error {
	if !s.path.UsesFramebuffers() || s.renderPass == 0 {
		return nil
	}
	s.Framebuffers = make([]Framebuffer, 0, len(s.Views))
	for i, view := range s.Views {
		fb, err := s.device.CreateFramebuffer(s.renderPass, view, s.Extent)
		if err != nil {
			return fmt.Errorf("create framebuffer %d: %w", i, err)
		}
		s.Framebuffers = append(s.Framebuffers, fb)
	}
	return nil
}

// AttachRenderPass sets the render pass framebuffers are built against and
// builds them for the current images. Only meaningful for the
// RenderPassFramebuffer path.
func (s *Swapchain) AttachRenderPass(renderPass RenderPass) error {
	if !s.path.UsesFramebuffers() {
		return fmt.Errorf("render path %s does not use framebuffers", s.path)
	}
	s.destroyFramebuffers()
	s.renderPass = renderPass
	return s.createFramebuffers()
}

// Path returns the render path the swapchain was created for.
func (s *Swapchain) Path() RenderPath {
	return s.path
}

// Recreate waits for the device to go idle and for the window to have a
// drawable area, then rebuilds the swapchain against the same surface. It
// blocks while the window is minimized.
func (s *Swapchain) Recreate() error {
	if err := s.device.WaitIdle(); err != nil {
		return fmt.Errorf("wait idle before swapchain recreation: %w", err)
	}

	width, height := s.window.FramebufferSize()
	for width == 0 || height == 0 {
		s.window.WaitEvents()
		width, height = s.window.FramebufferSize()
	}

	s.Destroy()
	if err := s.create(); err != nil {
		return fmt.Errorf("recreate swapchain: %w", err)
	}
	return nil
}

func (s *Swapchain) destroyFramebuffers() {
	for _, fb := range s.Framebuffers {
		s.device.DestroyFramebuffer(fb)
	}
	s.Framebuffers = nil
}

// Destroy releases framebuffers, then views, then the swapchain. The images
// belong to the swapchain and go with it.
func (s *Swapchain) Destroy() {
	s.destroyFramebuffers()
	for _, view := range s.Views {
		s.device.DestroyImageView(view)
	}
	s.Views = nil
	if s.Handle != 0 {
		s.device.DestroySwapchain(s.Handle)
		s.Handle = 0
	}
	s.Images = nil
	s.ImageCount = 0
}

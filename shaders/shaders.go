// Package shaders embeds the shader sources compiled at startup.
package shaders

import _ "embed"

// TriangleWGSL is the raster shader, entry points vs_main and fs_main.
//
//go:embed triangle.wgsl
var TriangleWGSL string

const (
	TriangleVertexEntry   = "vs_main"
	TriangleFragmentEntry = "fs_main"

	// RaygenBinary is the compiled raygen shader, built by `mage build:shaders`.
	RaygenBinary = "ray.rgen.spv"
)

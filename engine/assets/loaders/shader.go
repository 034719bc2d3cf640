package loaders

import (
	"path/filepath"
	"strings"
)

// Shader is a loaded shader module in SPIR-V words.
type Shader struct {
	Name     string
	FullPath string
	Code     []uint32
}

// Size is the code size in bytes.
func (s *Shader) Size() uint64 {
	return uint64(len(s.Code) * 4)
}

// shaderName strips the directory and every extension: ray.rgen.spv is "ray".
func shaderName(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i > 0 {
		return base[:i]
	}
	return base
}

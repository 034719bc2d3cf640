package loaders

import (
	"fmt"
	"os"

	"github.com/gogpu/naga"
)

// WGSLLoader compiles WGSL sources to SPIR-V with naga.
type WGSLLoader struct{}

func (wl *WGSLLoader) Load(path string) (*Shader, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	code, err := CompileWGSL(string(source))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Shader{
		Name:     shaderName(path),
		FullPath: path,
		Code:     code,
	}, nil
}

// CompileWGSL compiles WGSL source to SPIR-V words.
func CompileWGSL(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader: %w", err)
	}
	return BytesToBytecode(spirvBytes)
}

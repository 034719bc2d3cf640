//go:build mage

package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Compiles the ray tracing shaders under shaders/ to SPIR-V with glslc.
func (Build) Shaders() error {
	return buildShaders()
}

func buildShaders() error {
	sources, err := filepath.Glob(filepath.Join("shaders", "*.rgen"))
	if err != nil {
		return err
	}
	for _, src := range sources {
		out := src + ".spv"
		if upToDate(src, out) {
			continue
		}
		if _, err := executeCmd("glslc", withArgs("--target-env=vulkan1.2", src, "-o", out), withStream()); err != nil {
			return err
		}
	}
	return nil
}

// upToDate reports whether out exists and is newer than src.
func upToDate(src, out string) bool {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false
	}
	outInfo, err := os.Stat(out)
	if err != nil {
		return false
	}
	return outInfo.ModTime().After(srcInfo.ModTime())
}

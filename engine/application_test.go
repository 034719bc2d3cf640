package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/gpu"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lumen.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if *config != *DefaultConfig() {
		t.Errorf("LoadConfig() = %+v, want defaults", config)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
name = "quad"
width = 1280
height = 720
log_level = "debug"
render_path = "renderpass"
validation = false
hot_reload = false
`)
	config, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if config.Name != "quad" || config.StartWidth != 1280 || config.StartHeight != 720 {
		t.Errorf("window settings = %q %dx%d", config.Name, config.StartWidth, config.StartHeight)
	}
	if config.RenderPath != gpu.RenderPassFramebuffer {
		t.Errorf("RenderPath = %s, want %s", config.RenderPath, gpu.RenderPassFramebuffer)
	}
	if config.Level() != core.DebugLevel {
		t.Errorf("Level() = %s, want debug", config.Level())
	}
	if config.Validation || config.HotReload {
		t.Errorf("Validation = %v, HotReload = %v, want both false", config.Validation, config.HotReload)
	}
	// Unset keys keep their defaults.
	if config.ShaderDir != "shaders" || config.StartPosX != 100 {
		t.Errorf("defaults lost: %+v", config)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax", `name = `},
		{"render path", `render_path = "raytraced"`},
		{"log level", `log_level = "loud"`},
		{"zero width", `width = 0`},
		{"empty name", `name = ""`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.body)); err == nil {
				t.Errorf("LoadConfig() error = nil, want error")
			}
		})
	}
}

package assets

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spaghettifunk/lumen/engine/assets/loaders"
	"github.com/spaghettifunk/lumen/engine/core"
)

func writeSPIRV(t *testing.T, path string, words ...uint32) {
	t.Helper()
	buf := binary.LittleEndian.AppendUint32(nil, loaders.SPIRVMagic)
	for _, w := range words {
		buf = binary.LittleEndian.AppendUint32(buf, w)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDetermineAssetType(t *testing.T) {
	tests := []struct {
		path string
		want AssetType
	}{
		{"shaders/ray.rgen.spv", AssetTypeSPIRV},
		{"shaders/triangle.wgsl", AssetTypeWGSL},
		{"shaders/ray.rgen", AssetTypeNone},
	}
	for _, tt := range tests {
		if got := determineAssetType(tt.path); got != tt.want {
			t.Errorf("determineAssetType(%q) = %d, want %d", tt.path, got, tt.want)
		}
	}
}

func TestAssetManagerLoadShader(t *testing.T) {
	dir := t.TempDir()
	writeSPIRV(t, filepath.Join(dir, "ray.rgen.spv"), 42)

	am := NewAssetManager(core.NewEventBus())
	if err := am.Initialize(dir); err != nil {
		t.Fatal(err)
	}
	if !am.Has("ray.rgen.spv") {
		t.Fatalf("ray.rgen.spv not indexed")
	}
	shader, err := am.LoadShader("ray.rgen.spv")
	if err != nil {
		t.Fatal(err)
	}
	if len(shader.Code) != 2 || shader.Code[1] != 42 {
		t.Errorf("Code = %v", shader.Code)
	}
	if _, err := am.LoadShader("missing.spv"); err == nil {
		t.Errorf("LoadShader(missing) error = nil")
	}
}

func TestAssetManagerMissingDirectory(t *testing.T) {
	am := NewAssetManager(core.NewEventBus())
	if err := am.Initialize(filepath.Join(t.TempDir(), "nope")); err != nil {
		t.Errorf("Initialize() of a missing directory = %v, want nil", err)
	}
}

func TestAssetManagerWatchFiresShaderChanged(t *testing.T) {
	dir := t.TempDir()
	bus := core.NewEventBus()
	changed := make(chan string, 4)
	bus.Register(core.EVENT_CODE_SHADER_CHANGED, t, func(code core.SystemEventCode, sender, listener interface{}, data core.EventContext) bool {
		select {
		case changed <- data.Data.S:
		default:
		}
		return true
	})

	am := NewAssetManager(bus)
	if err := am.Initialize(dir); err != nil {
		t.Fatal(err)
	}
	if err := am.Watch(); err != nil {
		t.Fatal(err)
	}
	defer am.Shutdown()

	path := filepath.Join(dir, "ray.rgen.spv")
	writeSPIRV(t, path, 1)

	select {
	case got := <-changed:
		if got != path {
			t.Errorf("changed path = %q, want %q", got, path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no shader changed event")
	}
	if !am.Has("ray.rgen.spv") {
		t.Errorf("written shader not indexed")
	}
}

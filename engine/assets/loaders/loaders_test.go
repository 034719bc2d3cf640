package loaders

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spaghettifunk/lumen/shaders"
)

func spirvBytes(words ...uint32) []byte {
	out := make([]byte, 0, len(words)*4)
	for _, w := range words {
		out = binary.LittleEndian.AppendUint32(out, w)
	}
	return out
}

func TestBytesToBytecode(t *testing.T) {
	code, err := BytesToBytecode(spirvBytes(SPIRVMagic, 0x00010500, 7))
	if err != nil {
		t.Fatal(err)
	}
	if len(code) != 3 || code[0] != SPIRVMagic || code[2] != 7 {
		t.Errorf("BytesToBytecode() = %#x", code)
	}
}

func TestBytesToBytecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"empty", nil},
		{"unaligned", []byte{0x03, 0x02, 0x23, 0x07, 0x00}},
		{"bad magic", spirvBytes(0xdeadbeef, 1)},
	}
	for _, tt := range tests {
		if _, err := BytesToBytecode(tt.in); err == nil {
			t.Errorf("BytesToBytecode(%s) error = nil, want error", tt.name)
		}
	}
}

func TestSPIRVLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ray.rgen.spv")
	if err := os.WriteFile(path, spirvBytes(SPIRVMagic, 1, 2, 3), 0o644); err != nil {
		t.Fatal(err)
	}
	shader, err := (&SPIRVLoader{}).Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if shader.Name != "ray" {
		t.Errorf("Name = %q, want ray", shader.Name)
	}
	if shader.Size() != 16 {
		t.Errorf("Size() = %d, want 16", shader.Size())
	}
}

func TestCompileTriangleWGSL(t *testing.T) {
	code, err := CompileWGSL(shaders.TriangleWGSL)
	if err != nil {
		if strings.Contains(err.Error(), "not yet implemented") {
			t.Skipf("naga feature not yet implemented: %v", err)
		}
		t.Fatalf("CompileWGSL() error = %v", err)
	}
	if code[0] != SPIRVMagic {
		t.Errorf("first word = %#x, want SPIR-V magic", code[0])
	}
}

func TestCompileWGSLError(t *testing.T) {
	if _, err := CompileWGSL("fn broken( {"); err == nil {
		t.Errorf("CompileWGSL() of invalid source error = nil")
	}
}

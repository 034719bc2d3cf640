package gpu

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestVertexBytes(t *testing.T) {
	vertices := QuadVertices()
	data := VertexBytes(vertices)
	if len(data) != len(vertices)*VertexStride {
		t.Fatalf("len = %d, want %d", len(data), len(vertices)*VertexStride)
	}
	// Second vertex, color green channel.
	off := VertexStride + VertexColorOffset + 4
	if got := math.Float32frombits(binary.LittleEndian.Uint32(data[off:])); got != 1 {
		t.Errorf("vertex 1 color.g = %v, want 1", got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(data[VertexPositionOffset:])); got != -0.8 {
		t.Errorf("vertex 0 position.x = %v, want -0.8", got)
	}
}

func TestIndexBytes(t *testing.T) {
	data := IndexBytes(QuadIndices())
	want := []uint32{0, 2, 1, 0, 3, 2}
	for i, idx := range want {
		if got := binary.LittleEndian.Uint32(data[i*4:]); got != idx {
			t.Errorf("index %d = %d, want %d", i, got, idx)
		}
	}
}

func TestNewMesh(t *testing.T) {
	d := newFakeDevice()
	arena := NewArena(d)

	mesh, err := NewMesh(arena, d, QuadVertices(), QuadIndices())
	if err != nil {
		t.Fatalf("NewMesh() error = %v", err)
	}
	if mesh.VertexCount != 4 || mesh.IndexCount != 6 {
		t.Errorf("counts = %d, %d, want 4, 6", mesh.VertexCount, mesh.IndexCount)
	}
	if mesh.VertexBuffer.Size != 4*VertexStride || mesh.IndexBuffer.Size != 24 {
		t.Errorf("sizes = %d, %d", mesh.VertexBuffer.Size, mesh.IndexBuffer.Size)
	}
	for _, buf := range []*AllocatedBuffer{mesh.VertexBuffer, mesh.IndexBuffer} {
		if buf.Usage&BufferUsageShaderDeviceAddress == 0 || buf.Usage&BufferUsageAccelerationStructureBuildInputRead == 0 {
			t.Errorf("usage %#x missing acceleration structure input bits", uint32(buf.Usage))
		}
	}
	if got := d.memories[mesh.IndexBuffer.Memory].data[:24]; string(got) != string(IndexBytes(QuadIndices())) {
		t.Errorf("index buffer contents = %v", got)
	}
	if d.liveBuffers() != 2 {
		t.Errorf("%d live buffers, want 2", d.liveBuffers())
	}

	if _, err := NewMesh(arena, d, nil, QuadIndices()); err == nil {
		t.Errorf("NewMesh() without vertices succeeded")
	}
}

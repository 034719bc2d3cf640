package gpu

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Vertex is the interleaved layout consumed by the raster pipeline and the
// acceleration structure build: two tightly packed vec3.
type Vertex struct {
	Position [3]float32
	Color    [3]float32
}

// VertexStride is sizeof(Vertex) in bytes.
const VertexStride = 24

const (
	VertexPositionOffset = 0
	VertexColorOffset    = 12
)

// Mesh is a vertex buffer plus a 32-bit index buffer, both device local.
type Mesh struct {
	VertexBuffer *AllocatedBuffer
	IndexBuffer  *AllocatedBuffer
	VertexCount  uint32
	IndexCount   uint32
}

const meshBufferUsage = BufferUsageShaderDeviceAddress | BufferUsageAccelerationStructureBuildInputRead

// QuadVertices is the test quad drawn and traced by the renderer.
func QuadVertices() []Vertex {
	return []Vertex{
		{Position: [3]float32{-0.8, -0.8, 0}, Color: [3]float32{1, 0, 0}},
		{Position: [3]float32{0.8, -0.8, 0}, Color: [3]float32{0, 1, 0}},
		{Position: [3]float32{0.8, 0.8, 0}, Color: [3]float32{0, 0, 1}},
		{Position: [3]float32{-0.8, 0.8, 0}, Color: [3]float32{1, 0, 0}},
	}
}

func QuadIndices() []uint32 {
	return []uint32{0, 2, 1, 0, 3, 2}
}

// NewMesh uploads vertices and indices into device local buffers that can
// also be read by acceleration structure builds.
func NewMesh(arena *Arena, commands CommandDevice, vertices []Vertex, indices []uint32) (*Mesh, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return nil, fmt.Errorf("mesh needs vertices and indices, got %d and %d", len(vertices), len(indices))
	}

	vb, err := arena.Upload(commands, VertexBytes(vertices), BufferUsageVertexBuffer|meshBufferUsage)
	if err != nil {
		return nil, fmt.Errorf("vertex buffer: %w", err)
	}
	ib, err := arena.Upload(commands, IndexBytes(indices), BufferUsageIndexBuffer|meshBufferUsage)
	if err != nil {
		arena.DestroyBuffer(vb)
		return nil, fmt.Errorf("index buffer: %w", err)
	}

	return &Mesh{
		VertexBuffer: vb,
		IndexBuffer:  ib,
		VertexCount:  uint32(len(vertices)),
		IndexCount:   uint32(len(indices)),
	}, nil
}

func (m *Mesh) Destroy(arena *Arena) {
	arena.DestroyBuffer(m.VertexBuffer)
	arena.DestroyBuffer(m.IndexBuffer)
}

// VertexBytes encodes vertices in the little endian layout the GPU reads.
func VertexBytes(vertices []Vertex) []byte {
	out := make([]byte, 0, len(vertices)*VertexStride)
	for _, v := range vertices {
		for _, f := range v.Position {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
		}
		for _, f := range v.Color {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
		}
	}
	return out
}

func IndexBytes(indices []uint32) []byte {
	out := make([]byte, 0, len(indices)*4)
	for _, i := range indices {
		out = binary.LittleEndian.AppendUint32(out, i)
	}
	return out
}

package gpu

import (
	"fmt"

	"github.com/spaghettifunk/lumen/engine/core"
)

// BLAS is a built bottom level acceleration structure and the buffer that
// stores it. Both live until Destroy.
type BLAS struct {
	Handle         AccelerationStructure
	Buffer         *AllocatedBuffer
	Sizes          AccelerationStructureBuildSizes
	PrimitiveCount uint32
}

// BLASBuilder builds acceleration structures over mesh geometry using memory
// from the arena and one-shot commands on the graphics queue.
type BLASBuilder struct {
	device AccelerationDevice
	arena  *Arena
	cmds   CommandDevice
}

func NewBLASBuilder(device AccelerationDevice, arena *Arena, commands CommandDevice) *BLASBuilder {
	return &BLASBuilder{
		device: device,
		arena:  arena,
		cmds:   commands,
	}
}

// TriangleGeometry describes an indexed triangle list with Vertex layout.
func (b *BLASBuilder) TriangleGeometry(vertexBuffer *AllocatedBuffer, vertexCount uint32, indexBuffer *AllocatedBuffer) TriangleGeometry {
	return TriangleGeometry{
		VertexFormat: FormatR32G32B32Sfloat,
		VertexData:   b.arena.DeviceAddress(vertexBuffer),
		VertexStride: VertexStride,
		MaxVertex:    vertexCount - 1,
		IndexType:    IndexTypeUint32,
		IndexData:    b.arena.DeviceAddress(indexBuffer),
	}
}

// PrimitiveCount returns the triangle count of an index list. The geometry
// must be a plain triangle list without primitive restart.
func PrimitiveCount(vertexCount, indexCount uint32) (uint32, error) {
	if vertexCount == 0 || indexCount == 0 || indexCount%3 != 0 {
		return 0, fmt.Errorf("%d vertices, %d indices: %w", vertexCount, indexCount, core.ErrInvalidTopology)
	}
	return indexCount / 3, nil
}

// Build queries the size requirements for the geometry, allocates storage
// and scratch buffers from the arena, creates the structure at offset 0 of
// the storage buffer and records the build on a one-shot command buffer. The
// scratch buffer is destroyed once the build has completed.
func (b *BLASBuilder) Build(vertexBuffer *AllocatedBuffer, vertexCount uint32, indexBuffer *AllocatedBuffer, indexCount uint32) (*BLAS, error) {
	primitiveCount, err := PrimitiveCount(vertexCount, indexCount)
	if err != nil {
		return nil, err
	}

	geometry := b.TriangleGeometry(vertexBuffer, vertexCount, indexBuffer)
	sizes, err := b.device.AccelerationStructureBuildSizes(geometry, primitiveCount)
	if err != nil {
		return nil, fmt.Errorf("query acceleration structure build sizes: %w", err)
	}
	core.LogDebug("BLAS sizes: structure %d, build scratch %d, %d primitives", sizes.AccelerationStructureSize, sizes.BuildScratchSize, primitiveCount)

	storage, err := b.arena.CreateBuffer(sizes.AccelerationStructureSize,
		BufferUsageAccelerationStructureStorage|BufferUsageShaderDeviceAddress, MemoryPropertyDeviceLocal)
	if err != nil {
		return nil, fmt.Errorf("acceleration structure buffer: %w", err)
	}

	scratch, err := b.arena.CreateBuffer(sizes.BuildScratchSize,
		BufferUsageStorageBuffer|BufferUsageShaderDeviceAddress, MemoryPropertyDeviceLocal)
	if err != nil {
		b.arena.DestroyBuffer(storage)
		return nil, fmt.Errorf("scratch buffer: %w", err)
	}
	defer b.arena.DestroyBuffer(scratch)

	handle, err := b.device.CreateAccelerationStructure(storage.Handle, 0, sizes.AccelerationStructureSize)
	if err != nil {
		b.arena.DestroyBuffer(storage)
		return nil, fmt.Errorf("create acceleration structure: %w", err)
	}

	build := AccelerationStructureBuild{
		Geometry:       geometry,
		PrimitiveCount: primitiveCount,
		Destination:    handle,
		ScratchData:    b.arena.DeviceAddress(scratch),
	}
	err = RunOneShot(b.cmds, func(cb CommandBuffer) error {
		b.device.CmdBuildAccelerationStructure(cb, build)
		return nil
	})
	if err != nil {
		b.device.DestroyAccelerationStructure(handle)
		b.arena.DestroyBuffer(storage)
		return nil, fmt.Errorf("build acceleration structure: %w", err)
	}

	return &BLAS{
		Handle:         handle,
		Buffer:         storage,
		Sizes:          sizes,
		PrimitiveCount: primitiveCount,
	}, nil
}

// Destroy releases the structure and its storage buffer object. The device
// must be idle.
func (b *BLASBuilder) Destroy(blas *BLAS) {
	if blas == nil {
		return
	}
	if blas.Handle != 0 {
		b.device.DestroyAccelerationStructure(blas.Handle)
		blas.Handle = 0
	}
	b.arena.DestroyBuffer(blas.Buffer)
}

package instancer

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

/**
 * @brief One capacity-bounded output mesh. Vertices and indices of the
 * first InstanceCount() instances are always valid and contiguous. Storage
 * for the planned instance count is allocated on the first append and only
 * grows past it, up to capacity, if more instances arrive.
 */
type Segment struct {
	mutex sync.RWMutex

	name     string
	index    int
	capacity int
	planned  int
	// per instance
	vertexCount uint32
	indexCount  uint32

	count    int
	vertices []metadata.VertexPN
	indices  []uint32

	subMesh    metadata.SubMeshDescriptor
	bounds     math.Extents3D
	generation uint32
	origin     *math.Transform
	released   bool
}

func newSegment(name string, index, capacity, planned int, proto *metadata.PrototypeMesh, origin *math.Transform) *Segment {
	return &Segment{
		name:        name,
		index:       index,
		capacity:    capacity,
		planned:     min(planned, capacity),
		vertexCount: uint32(proto.VertexCount()),
		indexCount:  uint32(proto.IndexCount()),
		bounds:      math.ExtentsEmpty(),
		origin:      origin,
	}
}

/**
 * @brief Copies the spans of instanceCount freshly produced instances behind
 * the ones already stored. Index values are trusted as produced by
 * RemapIndices and are not inspected.
 * @returns ErrCapacityExceeded if the segment cannot hold the instances, in
 * which case nothing is written.
 */
func (s *Segment) Append(vertices []metadata.VertexPN, indices []uint32, instanceCount int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.released {
		return fmt.Errorf("%w: '%s'", ErrSegmentReleased, s.name)
	}
	if instanceCount < 0 || s.count+instanceCount > s.capacity {
		return fmt.Errorf("%w: '%s' holds %d of %d instances, cannot append %d", ErrCapacityExceeded, s.name, s.count, s.capacity, instanceCount)
	}
	if len(vertices) != instanceCount*int(s.vertexCount) || len(indices) != instanceCount*int(s.indexCount) {
		return fmt.Errorf("%w: %d instances with %d vertices and %d indices", ErrSpanLength, instanceCount, len(vertices), len(indices))
	}
	if instanceCount == 0 {
		return nil
	}

	s.reserve(s.count + instanceCount)

	vertexStart := s.count * int(s.vertexCount)
	indexStart := s.count * int(s.indexCount)
	copy(s.vertices[vertexStart:], vertices)
	copy(s.indices[indexStart:], indices)
	for i := range vertices {
		s.bounds = s.bounds.Grow(vertices[i].Position)
	}

	s.count += instanceCount
	s.subMesh = metadata.SubMeshDescriptor{
		IndexStart:  0,
		IndexCount:  uint32(s.count) * s.indexCount,
		BaseVertex:  0,
		FirstVertex: 0,
		VertexCount: uint32(s.count) * s.vertexCount,
		Topology:    metadata.MeshTopologyTriangles,
		Bounds:      s.bounds,
	}
	s.generation++

	return nil
}

// reserve makes room for instances in total, at least the planned count.
func (s *Segment) reserve(instances int) {
	if len(s.vertices) >= instances*int(s.vertexCount) {
		return
	}
	size := max(s.planned, instances)
	vertices := make([]metadata.VertexPN, size*int(s.vertexCount))
	indices := make([]uint32, size*int(s.indexCount))
	copy(vertices, s.vertices[:s.count*int(s.vertexCount)])
	copy(indices, s.indices[:s.count*int(s.indexCount)])
	s.vertices = vertices
	s.indices = indices
}

func (s *Segment) Name() string {
	return s.name
}

// Index returns the position of the segment within its job.
func (s *Segment) Index() int {
	return s.index
}

func (s *Segment) Capacity() int {
	return s.capacity
}

func (s *Segment) InstanceCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.count
}

// Remaining returns how many more instances fit.
func (s *Segment) Remaining() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.capacity - s.count
}

func (s *Segment) IsFull() bool {
	return s.Remaining() == 0
}

// VertexCount returns the number of valid vertices.
func (s *Segment) VertexCount() uint32 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return uint32(s.count) * s.vertexCount
}

// IndexCount returns the number of valid indices.
func (s *Segment) IndexCount() uint32 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return uint32(s.count) * s.indexCount
}

// Vertices returns a copy of the valid vertices.
func (s *Segment) Vertices() []metadata.VertexPN {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	out := make([]metadata.VertexPN, s.count*int(s.vertexCount))
	copy(out, s.vertices)
	return out
}

// Indices returns a copy of the valid indices.
func (s *Segment) Indices() []uint32 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	out := make([]uint32, s.count*int(s.indexCount))
	copy(out, s.indices)
	return out
}

func (s *Segment) SubMesh() metadata.SubMeshDescriptor {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.subMesh
}

// Bounds returns the extents of the written vertices, empty before the first append.
func (s *Segment) Bounds() math.Extents3D {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.bounds
}

// Generation increments on every successful append.
func (s *Segment) Generation() uint32 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.generation
}

/**
 * @brief Snapshots the segment as renderable buffers: interleaved VertexPN
 * bytes, little-endian uint32 indices and one submesh over both.
 */
func (s *Segment) MeshData() *metadata.MeshData {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	vertexCount := s.count * int(s.vertexCount)
	indexCount := s.count * int(s.indexCount)
	md := &metadata.MeshData{
		Name:         s.name,
		VertexLayout: metadata.VertexPNAttributes(),
		VertexStride: metadata.VertexPNSize,
		VertexCount:  uint32(vertexCount),
		VertexData:   metadata.EncodeVerticesPN(s.vertices[:vertexCount]),
		IndexFormat:  metadata.IndexFormatUInt32,
		IndexCount:   uint32(indexCount),
		IndexData:    metadata.EncodeIndices(s.indices[:indexCount]),
		SubMeshes:    []metadata.SubMeshDescriptor{s.subMesh},
		Bounds:       s.bounds,
		Generation:   s.generation,
	}
	if s.origin != nil {
		md.Transform = s.origin.Clone()
	}
	return md
}

// Release frees the storage. Later appends fail with ErrSegmentReleased.
func (s *Segment) Release() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.released {
		return
	}
	core.LogDebug("releasing segment '%s' (%d instances)", s.name, s.count)
	s.released = true
	s.vertices = nil
	s.indices = nil
	s.count = 0
	s.subMesh = metadata.SubMeshDescriptor{}
	s.bounds = math.ExtentsEmpty()
}

func (s *Segment) IsReleased() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.released
}

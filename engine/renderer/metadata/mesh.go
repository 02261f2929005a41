package metadata

import (
	"github.com/spaghettifunk/anima/engine/math"
)

/** @brief Primitive topology of a submesh. */
type MeshTopology int

const (
	MeshTopologyTriangles MeshTopology = iota
)

/**
 * @brief Describes a range of the index buffer drawn as one submesh.
 */
type SubMeshDescriptor struct {
	/** @brief First index of the range. */
	IndexStart uint32
	/** @brief Number of indices in the range. */
	IndexCount uint32
	/** @brief Value added to every index before fetching a vertex. */
	BaseVertex uint32
	/** @brief First vertex referenced by the range. */
	FirstVertex uint32
	/** @brief Number of vertices referenced by the range. */
	VertexCount uint32
	Topology    MeshTopology
	Bounds      math.Extents3D
}

/**
 * @brief A renderable snapshot of one output segment: an interleaved vertex
 * buffer, a 32-bit index buffer and the submesh ranges over them.
 */
type MeshData struct {
	Name string

	VertexLayout []VertexAttributeDescriptor
	VertexStride uint32
	VertexCount  uint32
	VertexData   []byte

	IndexFormat IndexFormat
	IndexCount  uint32
	IndexData   []byte

	SubMeshes []SubMeshDescriptor
	Bounds    math.Extents3D
	/** @brief Where the host places the batch. Nil means identity. */
	Transform *math.Transform
	/** @brief Incremented every time the segment changes. */
	Generation uint32
}

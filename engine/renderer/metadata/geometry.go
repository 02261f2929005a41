package metadata

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/anima/engine/math"
)

/** @brief The name of the default prototype geometry. */
const DefaultGeometryName string = "default"

var ErrInvalidPrototype = errors.New("invalid prototype mesh")

/**
 * @brief The immutable source geometry that gets instanced. Positions and
 * normals are parallel arrays; indices describe a triangle list.
 */
type PrototypeMesh struct {
	/** @brief The name of the prototype. */
	Name string
	/** @brief Vertex positions in model space. */
	Positions []math.Vec3
	/** @brief Vertex normals, one per position. */
	Normals []math.Vec3
	/** @brief Triangle list indices, each one < len(Positions). */
	Indices []uint32

	Center  math.Vec3
	Extents math.Extents3D
}

/**
 * @brief Creates a prototype from raw arrays and computes its extents.
 * The slices are not copied and must not be mutated afterwards.
 */
func NewPrototypeMesh(name string, positions, normals []math.Vec3, indices []uint32) (*PrototypeMesh, error) {
	if len(name) == 0 {
		name = DefaultGeometryName
	}
	p := &PrototypeMesh{
		Name:      name,
		Positions: positions,
		Normals:   normals,
		Indices:   indices,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.Extents = math.ExtentsFromPoints(positions)
	p.Center = p.Extents.Center()
	return p, nil
}

// VertexCount returns the number of vertices of one instance.
func (p *PrototypeMesh) VertexCount() int {
	return len(p.Positions)
}

// IndexCount returns the number of indices of one instance.
func (p *PrototypeMesh) IndexCount() int {
	return len(p.Indices)
}

/**
 * @brief Checks the structural contract of the prototype: matching
 * position/normal counts, a non-empty triangle list and in-range indices.
 */
func (p *PrototypeMesh) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil prototype", ErrInvalidPrototype)
	}
	if len(p.Positions) == 0 {
		return fmt.Errorf("%w: '%s' has no vertices", ErrInvalidPrototype, p.Name)
	}
	if len(p.Positions) != len(p.Normals) {
		return fmt.Errorf("%w: '%s' has %d positions but %d normals", ErrInvalidPrototype, p.Name, len(p.Positions), len(p.Normals))
	}
	if len(p.Indices) == 0 || len(p.Indices)%3 != 0 {
		return fmt.Errorf("%w: '%s' index count %d is not a positive multiple of 3", ErrInvalidPrototype, p.Name, len(p.Indices))
	}
	vertexCount := uint32(len(p.Positions))
	for i, idx := range p.Indices {
		if idx >= vertexCount {
			return fmt.Errorf("%w: '%s' index %d at slot %d is out of range (vertex count %d)", ErrInvalidPrototype, p.Name, idx, i, vertexCount)
		}
	}
	return nil
}

/** @brief Built-in prototype shapes. */
type PrototypeShape string

const (
	PrototypeShapeTriangle PrototypeShape = "triangle"
	PrototypeShapePlane    PrototypeShape = "plane"
	PrototypeShapeCube     PrototypeShape = "cube"
)

/**
 * @brief Describes a built-in prototype to generate.
 */
type PrototypeConfig struct {
	Name  string         `toml:"name" yaml:"name"`
	Shape PrototypeShape `toml:"shape" yaml:"shape"`
	/** @brief Size along x. Ignored by the triangle. */
	Width float32 `toml:"width" yaml:"width"`
	/** @brief Size along y. Ignored by the triangle. */
	Height float32 `toml:"height" yaml:"height"`
	/** @brief Size along z. Cube only. */
	Depth float32 `toml:"depth" yaml:"depth"`
	/** @brief Plane subdivisions along x. */
	XSegments uint32 `toml:"x_segments" yaml:"x_segments"`
	/** @brief Plane subdivisions along y. */
	YSegments uint32 `toml:"y_segments" yaml:"y_segments"`
}

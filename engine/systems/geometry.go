package systems

import (
	"fmt"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

/**
 * @brief Generates the prototype described by config.
 * @param config The shape and its dimensions.
 * @return The generated prototype or an error for an unknown shape.
 */
func GeometrySystemGeneratePrototype(config metadata.PrototypeConfig) (*metadata.PrototypeMesh, error) {
	switch config.Shape {
	case metadata.PrototypeShapeTriangle, "":
		return GeometrySystemGenerateTriangle(config.Name)
	case metadata.PrototypeShapePlane:
		return GeometrySystemGeneratePlane(config.Width, config.Height, config.XSegments, config.YSegments, config.Name)
	case metadata.PrototypeShapeCube:
		return GeometrySystemGenerateCube(config.Width, config.Height, config.Depth, config.Name)
	}
	err := fmt.Errorf("%w: unknown prototype shape '%s'", metadata.ErrInvalidPrototype, config.Shape)
	core.LogError(err.Error())
	return nil, err
}

/**
 * @brief Generates a right triangle with unit legs in the xy plane, facing +z.
 */
func GeometrySystemGenerateTriangle(name string) (*metadata.PrototypeMesh, error) {
	positions := []math.Vec3{
		math.NewVec3(0, 0, 0),
		math.NewVec3(1, 0, 0),
		math.NewVec3(0, 1, 0),
	}
	indices := []uint32{0, 1, 2}
	return metadata.NewPrototypeMesh(name, positions, math.GeometryGenerateNormals(positions, indices), indices)
}

/**
 * @brief Generates a plane in the xy plane facing +z, centered on the origin.
 *
 * @param width The overall width of the plane. Must be non-zero.
 * @param height The overall height of the plane. Must be non-zero.
 * @param xSegmentCount The number of segments along the x-axis in the plane. Must be non-zero.
 * @param ySegmentCount The number of segments along the y-axis in the plane. Must be non-zero.
 * @param name The name of the generated prototype.
 */
func GeometrySystemGeneratePlane(width, height float32, xSegmentCount, ySegmentCount uint32, name string) (*metadata.PrototypeMesh, error) {
	if width == 0 {
		core.LogWarn("Width must be nonzero. Defaulting to one.")
		width = 1.0
	}
	if height == 0 {
		core.LogWarn("Height must be nonzero. Defaulting to one.")
		height = 1.0
	}
	if xSegmentCount < 1 {
		core.LogWarn("xSegmentCount must be a positive number. Defaulting to one.")
		xSegmentCount = 1
	}
	if ySegmentCount < 1 {
		core.LogWarn("ySegmentCount must be a positive number. Defaulting to one.")
		ySegmentCount = 1
	}

	vertexCount := xSegmentCount * ySegmentCount * 4 // 4 verts per segment
	positions := make([]math.Vec3, vertexCount)
	normals := make([]math.Vec3, vertexCount)
	indices := make([]uint32, xSegmentCount*ySegmentCount*6) // 6 indices per segment

	// TODO: This generates extra vertices, but we can always deduplicate them later.
	seg_width := width / float32(xSegmentCount)
	seg_height := height / float32(ySegmentCount)
	half_width := width * 0.5
	half_height := height * 0.5
	for y := uint32(0); y < ySegmentCount; y++ {
		for x := uint32(0); x < xSegmentCount; x++ {
			min_x := (float32(x) * seg_width) - half_width
			min_y := (float32(y) * seg_height) - half_height
			max_x := min_x + seg_width
			max_y := min_y + seg_height

			v_offset := ((y * xSegmentCount) + x) * 4
			positions[v_offset+0] = math.NewVec3(min_x, min_y, 0)
			positions[v_offset+1] = math.NewVec3(max_x, max_y, 0)
			positions[v_offset+2] = math.NewVec3(min_x, max_y, 0)
			positions[v_offset+3] = math.NewVec3(max_x, min_y, 0)
			for i := uint32(0); i < 4; i++ {
				normals[v_offset+i] = math.NewVec3(0, 0, 1)
			}

			i_offset := ((y * xSegmentCount) + x) * 6
			indices[i_offset+0] = v_offset + 0
			indices[i_offset+1] = v_offset + 1
			indices[i_offset+2] = v_offset + 2
			indices[i_offset+3] = v_offset + 0
			indices[i_offset+4] = v_offset + 3
			indices[i_offset+5] = v_offset + 1
		}
	}

	return metadata.NewPrototypeMesh(name, positions, normals, indices)
}

/**
 * @brief Generates an axis aligned box centered on the origin with one
 * normal per face.
 */
func GeometrySystemGenerateCube(width, height, depth float32, name string) (*metadata.PrototypeMesh, error) {
	if width == 0 {
		core.LogWarn("Width must be nonzero. Defaulting to one.")
		width = 1.0
	}
	if height == 0 {
		core.LogWarn("Height must be nonzero. Defaulting to one.")
		height = 1.0
	}
	if depth == 0 {
		core.LogWarn("Depth must be nonzero. Defaulting to one.")
		depth = 1
	}

	half_width := width * 0.5
	half_height := height * 0.5
	half_depth := depth * 0.5
	min_x := -half_width
	min_y := -half_height
	min_z := -half_depth
	max_x := half_width
	max_y := half_height
	max_z := half_depth

	// 4 verts per side, 6 sides
	positions := []math.Vec3{
		// Front face
		math.NewVec3(min_x, min_y, max_z), math.NewVec3(max_x, max_y, max_z), math.NewVec3(min_x, max_y, max_z), math.NewVec3(max_x, min_y, max_z),
		// Back face
		math.NewVec3(max_x, min_y, min_z), math.NewVec3(min_x, max_y, min_z), math.NewVec3(max_x, max_y, min_z), math.NewVec3(min_x, min_y, min_z),
		// Left
		math.NewVec3(min_x, min_y, min_z), math.NewVec3(min_x, max_y, max_z), math.NewVec3(min_x, max_y, min_z), math.NewVec3(min_x, min_y, max_z),
		// Right face
		math.NewVec3(max_x, min_y, max_z), math.NewVec3(max_x, max_y, min_z), math.NewVec3(max_x, max_y, max_z), math.NewVec3(max_x, min_y, min_z),
		// Bottom face
		math.NewVec3(max_x, min_y, max_z), math.NewVec3(min_x, min_y, min_z), math.NewVec3(max_x, min_y, min_z), math.NewVec3(min_x, min_y, max_z),
		// Top face
		math.NewVec3(min_x, max_y, max_z), math.NewVec3(max_x, max_y, min_z), math.NewVec3(min_x, max_y, min_z), math.NewVec3(max_x, max_y, max_z),
	}
	faceNormals := []math.Vec3{
		math.NewVec3(0.0, 0.0, 1.0),
		math.NewVec3(0.0, 0.0, -1.0),
		math.NewVec3(-1.0, 0.0, 0.0),
		math.NewVec3(1.0, 0.0, 0.0),
		math.NewVec3(0.0, -1.0, 0.0),
		math.NewVec3(0.0, 1.0, 0.0),
	}

	normals := make([]math.Vec3, 24)
	indices := make([]uint32, 6*6) // 6 indices per side, 6 sides
	for i := 0; i < 6; i++ {
		v_offset := i * 4
		i_offset := i * 6
		for j := 0; j < 4; j++ {
			normals[v_offset+j] = faceNormals[i]
		}
		indices[i_offset+0] = uint32(v_offset + 0)
		indices[i_offset+1] = uint32(v_offset + 1)
		indices[i_offset+2] = uint32(v_offset + 2)
		indices[i_offset+3] = uint32(v_offset + 0)
		indices[i_offset+4] = uint32(v_offset + 3)
		indices[i_offset+5] = uint32(v_offset + 1)
	}

	return metadata.NewPrototypeMesh(name, positions, normals, indices)
}

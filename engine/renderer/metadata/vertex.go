package metadata

import (
	"encoding/binary"
	"fmt"
	stdmath "math"
	"slices"
	"unsafe"

	"github.com/spaghettifunk/anima/engine/math"
)

/** @brief The semantic of a vertex attribute. */
type VertexAttribute int

const (
	VertexAttributePosition VertexAttribute = iota
	VertexAttributeNormal
	VertexAttributeTexCoord0
)

func (va VertexAttribute) String() string {
	switch va {
	case VertexAttributePosition:
		return "position"
	case VertexAttributeNormal:
		return "normal"
	case VertexAttributeTexCoord0:
		return "texcoord0"
	}
	return fmt.Sprintf("attribute(%d)", int(va))
}

/** @brief The scalar format of a vertex attribute. */
type VertexAttributeFormat int

const (
	VertexAttributeFormatFloat32 VertexAttributeFormat = iota
)

/**
 * @brief Describes one attribute of an interleaved vertex stream.
 */
type VertexAttributeDescriptor struct {
	/** @brief What the attribute represents. */
	Attribute VertexAttribute `toml:"attribute" yaml:"attribute"`
	/** @brief The scalar type of each component. */
	Format VertexAttributeFormat `toml:"format" yaml:"format"`
	/** @brief The number of components. */
	Dimension uint32 `toml:"dimension" yaml:"dimension"`
	/** @brief Byte offset of the attribute inside one vertex. */
	Offset uint32 `toml:"offset" yaml:"offset"`
}

/** @brief The size of a single index in bytes. Indices are always 32-bit unsigned. */
const IndexSize uint32 = 4

/** @brief Index buffer formats. */
type IndexFormat int

const (
	IndexFormatUInt32 IndexFormat = iota
)

/**
 * @brief A vertex holding a position and a normal, tightly packed.
 * This is the layout written into every output vertex buffer.
 * Size: 24 bytes, no padding.
 */
type VertexPN struct {
	Position math.Vec3 // offset  0 (12 bytes)
	Normal   math.Vec3 // offset 12 (12 bytes)
}

/** @brief The size of a VertexPN in bytes. */
const VertexPNSize uint32 = 24

// compile time check that VertexPN has no padding
var _ [VertexPNSize - uint32(unsafe.Sizeof(VertexPN{}))]struct{}

// VertexPNAttributes returns the attribute layout matching VertexPN.
func VertexPNAttributes() []VertexAttributeDescriptor {
	return []VertexAttributeDescriptor{
		{Attribute: VertexAttributePosition, Format: VertexAttributeFormatFloat32, Dimension: 3, Offset: 0},
		{Attribute: VertexAttributeNormal, Format: VertexAttributeFormatFloat32, Dimension: 3, Offset: 12},
	}
}

/**
 * @brief A vertex with position, normal and one set of texture coordinates.
 * Size: 32 bytes. Provided for renderers that expect a uv channel; the
 * instancer itself only writes VertexPN.
 */
type VertexPNUV struct {
	Position math.Vec3 // offset  0 (12 bytes)
	Normal   math.Vec3 // offset 12 (12 bytes)
	UV0      math.Vec2 // offset 24 (8 bytes)
}

const VertexPNUVSize uint32 = 32

func VertexPNUVAttributes() []VertexAttributeDescriptor {
	return []VertexAttributeDescriptor{
		{Attribute: VertexAttributePosition, Format: VertexAttributeFormatFloat32, Dimension: 3, Offset: 0},
		{Attribute: VertexAttributeNormal, Format: VertexAttributeFormatFloat32, Dimension: 3, Offset: 12},
		{Attribute: VertexAttributeTexCoord0, Format: VertexAttributeFormatFloat32, Dimension: 2, Offset: 24},
	}
}

// VertexLayoutStride returns the byte size of one vertex described by attrs.
func VertexLayoutStride(attrs []VertexAttributeDescriptor) uint32 {
	stride := uint32(0)
	for _, a := range attrs {
		end := a.Offset + a.Dimension*4
		if end > stride {
			stride = end
		}
	}
	return stride
}

/** @brief Names of the known vertex layouts, as recorded in export manifests. */
const (
	VertexLayoutNamePN     = "pn"
	VertexLayoutNamePNUV   = "pnuv"
	VertexLayoutNameCustom = "custom"
)

// VertexLayoutName names attrs when they match a known layout.
func VertexLayoutName(attrs []VertexAttributeDescriptor) string {
	switch {
	case slices.Equal(attrs, VertexPNAttributes()):
		return VertexLayoutNamePN
	case slices.Equal(attrs, VertexPNUVAttributes()):
		return VertexLayoutNamePNUV
	}
	return VertexLayoutNameCustom
}

// VertexLayoutByName returns the attributes of a known layout.
func VertexLayoutByName(name string) ([]VertexAttributeDescriptor, bool) {
	switch name {
	case VertexLayoutNamePN:
		return VertexPNAttributes(), true
	case VertexLayoutNamePNUV:
		return VertexPNUVAttributes(), true
	}
	return nil, false
}

// Marshal writes the little-endian representation of v into buf, which must
// hold at least VertexPNSize bytes.
func (v *VertexPN) Marshal(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], stdmath.Float32bits(v.Position.X))
	binary.LittleEndian.PutUint32(buf[4:8], stdmath.Float32bits(v.Position.Y))
	binary.LittleEndian.PutUint32(buf[8:12], stdmath.Float32bits(v.Position.Z))
	binary.LittleEndian.PutUint32(buf[12:16], stdmath.Float32bits(v.Normal.X))
	binary.LittleEndian.PutUint32(buf[16:20], stdmath.Float32bits(v.Normal.Y))
	binary.LittleEndian.PutUint32(buf[20:24], stdmath.Float32bits(v.Normal.Z))
}

// Unmarshal reads v back from the first VertexPNSize bytes of buf.
func (v *VertexPN) Unmarshal(buf []byte) {
	v.Position.X = stdmath.Float32frombits(binary.LittleEndian.Uint32(buf[0:4]))
	v.Position.Y = stdmath.Float32frombits(binary.LittleEndian.Uint32(buf[4:8]))
	v.Position.Z = stdmath.Float32frombits(binary.LittleEndian.Uint32(buf[8:12]))
	v.Normal.X = stdmath.Float32frombits(binary.LittleEndian.Uint32(buf[12:16]))
	v.Normal.Y = stdmath.Float32frombits(binary.LittleEndian.Uint32(buf[16:20]))
	v.Normal.Z = stdmath.Float32frombits(binary.LittleEndian.Uint32(buf[20:24]))
}

// EncodeVerticesPN serializes vertices into an interleaved buffer ready for upload.
func EncodeVerticesPN(vertices []VertexPN) []byte {
	buf := make([]byte, len(vertices)*int(VertexPNSize))
	for i := range vertices {
		vertices[i].Marshal(buf[i*int(VertexPNSize):])
	}
	return buf
}

// DecodeVerticesPN is the inverse of EncodeVerticesPN.
func DecodeVerticesPN(buf []byte) ([]VertexPN, error) {
	if len(buf)%int(VertexPNSize) != 0 {
		return nil, fmt.Errorf("vertex buffer length %d is not a multiple of %d", len(buf), VertexPNSize)
	}
	vertices := make([]VertexPN, len(buf)/int(VertexPNSize))
	for i := range vertices {
		vertices[i].Unmarshal(buf[i*int(VertexPNSize):])
	}
	return vertices, nil
}

// EncodeIndices serializes 32-bit indices little-endian.
func EncodeIndices(indices []uint32) []byte {
	buf := make([]byte, len(indices)*int(IndexSize))
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}

func DecodeIndices(buf []byte) ([]uint32, error) {
	if len(buf)%int(IndexSize) != 0 {
		return nil, fmt.Errorf("index buffer length %d is not a multiple of %d", len(buf), IndexSize)
	}
	indices := make([]uint32, len(buf)/int(IndexSize))
	for i := range indices {
		indices[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}
	return indices, nil
}

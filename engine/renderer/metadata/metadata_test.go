package metadata

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima/engine/math"
)

func TestVertexPNEncoding(t *testing.T) {
	vertices := []VertexPN{
		{Position: math.NewVec3(1, 2, 3), Normal: math.NewVec3(0, 0, 1)},
		{Position: math.NewVec3(-1.5, 0.25, 8), Normal: math.NewVec3(0, 1, 0)},
	}
	buf := EncodeVerticesPN(vertices)
	require.Len(t, buf, 2*int(VertexPNSize))
	// little-endian 1.0f
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f}, buf[0:4])

	decoded, err := DecodeVerticesPN(buf)
	require.NoError(t, err)
	assert.Equal(t, vertices, decoded)

	_, err = DecodeVerticesPN(buf[:25])
	assert.Error(t, err)
}

func TestIndexEncoding(t *testing.T) {
	indices := []uint32{0, 1, 2, 0x01020304}
	buf := EncodeIndices(indices)
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, buf[12:16])

	decoded, err := DecodeIndices(buf)
	require.NoError(t, err)
	assert.Equal(t, indices, decoded)

	_, err = DecodeIndices(buf[:5])
	assert.Error(t, err)
}

func TestVertexLayouts(t *testing.T) {
	assert.Equal(t, VertexPNSize, VertexLayoutStride(VertexPNAttributes()))
	assert.Equal(t, VertexPNUVSize, VertexLayoutStride(VertexPNUVAttributes()))
	assert.Equal(t, "normal", VertexAttributeNormal.String())

	assert.Equal(t, VertexLayoutNamePN, VertexLayoutName(VertexPNAttributes()))
	assert.Equal(t, VertexLayoutNamePNUV, VertexLayoutName(VertexPNUVAttributes()))
	assert.Equal(t, VertexLayoutNameCustom, VertexLayoutName(VertexPNAttributes()[:1]))

	attrs, ok := VertexLayoutByName(VertexLayoutNamePNUV)
	require.True(t, ok)
	assert.Equal(t, VertexPNUVAttributes(), attrs)
	_, ok = VertexLayoutByName(VertexLayoutNameCustom)
	assert.False(t, ok)
}

func TestPrototypeValidate(t *testing.T) {
	positions := []math.Vec3{{}, {X: 1}, {Y: 1}}
	normals := []math.Vec3{{Z: 1}, {Z: 1}, {Z: 1}}

	tests := []struct {
		name      string
		positions []math.Vec3
		normals   []math.Vec3
		indices   []uint32
	}{
		{"no vertices", nil, nil, []uint32{0, 1, 2}},
		{"normal count", positions, normals[:2], []uint32{0, 1, 2}},
		{"no indices", positions, normals, nil},
		{"partial triangle", positions, normals, []uint32{0, 1}},
		{"index out of range", positions, normals, []uint32{0, 1, 3}},
	}
	for _, tt := range tests {
		_, err := NewPrototypeMesh("bad", tt.positions, tt.normals, tt.indices)
		assert.ErrorIs(t, err, ErrInvalidPrototype, tt.name)
	}

	proto, err := NewPrototypeMesh("", positions, normals, []uint32{0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, DefaultGeometryName, proto.Name)
	assert.Equal(t, 3, proto.VertexCount())
	assert.Equal(t, 3, proto.IndexCount())
	assert.Equal(t, math.NewVec3(1, 1, 0), proto.Extents.Max)
	assert.Equal(t, math.NewVec3(0.5, 0.5, 0), proto.Center)
}

func TestResourceHeader(t *testing.T) {
	buf := &bytes.Buffer{}
	h := NewResourceHeader(ResourceTypeVertexBuffer, 10, VertexPNSize)
	require.NoError(t, h.Write(buf))
	assert.Equal(t, ResourceHeaderSize, buf.Len())
	assert.Equal(t, int64(240), h.PayloadSize())

	read, err := ReadResourceHeader(bytes.NewReader(buf.Bytes()), ResourceTypeVertexBuffer)
	require.NoError(t, err)
	assert.Equal(t, h, read)

	_, err = ReadResourceHeader(bytes.NewReader(buf.Bytes()), ResourceTypeIndexBuffer)
	assert.ErrorIs(t, err, ErrInvalidResourceHeader)

	corrupt := append([]byte(nil), buf.Bytes()...)
	corrupt[0] = 0
	_, err = ReadResourceHeader(bytes.NewReader(corrupt), ResourceTypeVertexBuffer)
	assert.ErrorIs(t, err, ErrInvalidResourceHeader)

	_, err = ReadResourceHeader(bytes.NewReader(corrupt[:3]), ResourceTypeVertexBuffer)
	assert.ErrorIs(t, err, ErrInvalidResourceHeader)
}

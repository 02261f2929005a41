package metadata

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

type ResourceType uint8

/** @brief Pre-defined binary resource types. */
const (
	/** @brief Binary resource type. */
	ResourceTypeBinary ResourceType = iota + 1
	/** @brief A cache of spawn points (float32 xyz triplets). */
	ResourceTypePointCache
	/** @brief An interleaved VertexPN buffer. */
	ResourceTypeVertexBuffer
	/** @brief A uint32 index buffer. */
	ResourceTypeIndexBuffer
)

func (rt ResourceType) String() string {
	switch rt {
	case ResourceTypeBinary:
		return "binary"
	case ResourceTypePointCache:
		return "point-cache"
	case ResourceTypeVertexBuffer:
		return "vertex-buffer"
	case ResourceTypeIndexBuffer:
		return "index-buffer"
	}
	return fmt.Sprintf("resource(%d)", uint8(rt))
}

/** @brief A magic number indicating the file as an anima binary file. */
const ResourceMagic uint32 = 0xdaaaadd1

/** @brief The current version of the binary resource header. */
const ResourceVersion uint8 = 1

/** @brief The encoded size of ResourceHeader in bytes. */
const ResourceHeaderSize = 16

var ErrInvalidResourceHeader = errors.New("invalid resource header")

/**
 * @brief The header data for binary resource types. Encoded little-endian
 * at the start of the file, followed by ElementCount*ElementSize bytes.
 */
type ResourceHeader struct {
	/** @brief A magic number indicating the file as an anima binary file. */
	MagicNumber uint32
	/** @brief The resource type. */
	ResourceType ResourceType
	/** @brief The format version this resource uses. */
	Version uint8
	/** @brief Reserved for future header data.. */
	Reserved uint16
	/** @brief The number of elements in the payload. */
	ElementCount uint32
	/** @brief The size of one element in bytes. */
	ElementSize uint32
}

// NewResourceHeader returns a header for count elements of size bytes each.
func NewResourceHeader(rt ResourceType, count, size uint32) ResourceHeader {
	return ResourceHeader{
		MagicNumber:  ResourceMagic,
		ResourceType: rt,
		Version:      ResourceVersion,
		ElementCount: count,
		ElementSize:  size,
	}
}

// PayloadSize returns the number of bytes following the header.
func (h ResourceHeader) PayloadSize() int64 {
	return int64(h.ElementCount) * int64(h.ElementSize)
}

func (h ResourceHeader) Write(w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, h)
}

/**
 * @brief Reads a header from r and checks its magic, version and type.
 * @param expected The required resource type.
 */
func ReadResourceHeader(r io.Reader, expected ResourceType) (ResourceHeader, error) {
	h := ResourceHeader{}
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return h, fmt.Errorf("%w: %s", ErrInvalidResourceHeader, err)
	}
	if h.MagicNumber != ResourceMagic {
		return h, fmt.Errorf("%w: bad magic 0x%08x", ErrInvalidResourceHeader, h.MagicNumber)
	}
	if h.Version != ResourceVersion {
		return h, fmt.Errorf("%w: unsupported version %d", ErrInvalidResourceHeader, h.Version)
	}
	if h.ResourceType != expected {
		return h, fmt.Errorf("%w: expected %s, found %s", ErrInvalidResourceHeader, expected, h.ResourceType)
	}
	return h, nil
}

package systems

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	stdmath "math"

	"golang.org/x/exp/rand"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

/**
 * @brief Produces the spawn point sequence described by config.
 * @param config The point cache description.
 * @param fallbackCount Used when config.Count is zero.
 */
func PointsGenerate(config metadata.PointCacheConfig, fallbackCount int) ([]math.Vec3, error) {
	count := config.Count
	if count <= 0 {
		count = fallbackCount
	}
	switch config.Kind {
	case metadata.PointCacheKindGrid, "":
		return PointsGenerateGrid(count, config.Extent), nil
	case metadata.PointCacheKindScatter:
		return PointsGenerateScatter(count, config.Extent, config.Seed), nil
	case metadata.PointCacheKindFile:
		return PointsLoad(config.Path)
	}
	err := fmt.Errorf("unknown point cache kind '%s'", config.Kind)
	core.LogError(err.Error())
	return nil, err
}

/**
 * @brief Lays count points out row by row on a square grid of side extent
 * in the xz plane, centered on the origin.
 */
func PointsGenerateGrid(count int, extent float32) []math.Vec3 {
	if count <= 0 {
		return []math.Vec3{}
	}
	if extent <= 0 {
		core.LogWarn("extent must be positive. Defaulting to one.")
		extent = 1.0
	}
	side := int(stdmath.Ceil(stdmath.Sqrt(float64(count))))
	spacing := float32(0)
	if side > 1 {
		spacing = extent / float32(side-1)
	}
	half := extent * 0.5
	if side == 1 {
		half = 0
	}

	points := make([]math.Vec3, count)
	for i := range points {
		row := i / side
		col := i % side
		points[i] = math.NewVec3(float32(col)*spacing-half, 0, float32(row)*spacing-half)
	}
	return points
}

/**
 * @brief Scatters count points uniformly over a square of side extent in the
 * xz plane. The same seed always yields the same points.
 */
func PointsGenerateScatter(count int, extent float32, seed uint64) []math.Vec3 {
	if count <= 0 {
		return []math.Vec3{}
	}
	if extent <= 0 {
		core.LogWarn("extent must be positive. Defaulting to one.")
		extent = 1.0
	}
	rng := rand.New(rand.NewSource(seed))
	points := make([]math.Vec3, count)
	for i := range points {
		x := (rng.Float32() - 0.5) * extent
		z := (rng.Float32() - 0.5) * extent
		points[i] = math.NewVec3(x, 0, z)
	}
	return points
}

/**
 * @brief Loads a binary point cache. The file is either a resource header
 * of type point-cache followed by its points, or bare little-endian float32
 * xyz triplets.
 */
func PointsLoad(path string) ([]math.Vec3, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("failed to read point cache '%s': %w", path, err)
		core.LogError(err.Error())
		return nil, err
	}
	points, err := PointsDecode(data)
	if err != nil {
		err = fmt.Errorf("failed to decode point cache '%s': %w", path, err)
		core.LogError(err.Error())
		return nil, err
	}
	core.LogDebug("loaded %d points from '%s'", len(points), path)
	return points, nil
}

// PointsDecode parses the contents of a point cache file.
func PointsDecode(data []byte) ([]math.Vec3, error) {
	payload := data
	if len(data) >= 4 && binary.LittleEndian.Uint32(data) == metadata.ResourceMagic {
		header, err := metadata.ReadResourceHeader(bytes.NewReader(data), metadata.ResourceTypePointCache)
		if err != nil {
			return nil, err
		}
		if header.ElementSize != metadata.PointSize {
			return nil, fmt.Errorf("point size is %d bytes, expected %d", header.ElementSize, metadata.PointSize)
		}
		payload = data[metadata.ResourceHeaderSize:]
		if int64(len(payload)) != header.PayloadSize() {
			return nil, fmt.Errorf("header declares %d points but payload holds %d bytes", header.ElementCount, len(payload))
		}
	}
	if len(payload)%int(metadata.PointSize) != 0 {
		return nil, fmt.Errorf("payload length %d is not a multiple of %d", len(payload), metadata.PointSize)
	}

	points := make([]math.Vec3, len(payload)/int(metadata.PointSize))
	for i := range points {
		o := i * int(metadata.PointSize)
		points[i] = math.NewVec3(
			stdmath.Float32frombits(binary.LittleEndian.Uint32(payload[o:])),
			stdmath.Float32frombits(binary.LittleEndian.Uint32(payload[o+4:])),
			stdmath.Float32frombits(binary.LittleEndian.Uint32(payload[o+8:])),
		)
	}
	return points, nil
}

// PointsEncode writes points with a point-cache resource header.
func PointsEncode(w io.Writer, points []math.Vec3) error {
	header := metadata.NewResourceHeader(metadata.ResourceTypePointCache, uint32(len(points)), metadata.PointSize)
	if err := header.Write(w); err != nil {
		return err
	}
	buf := make([]byte, len(points)*int(metadata.PointSize))
	for i, p := range points {
		o := i * int(metadata.PointSize)
		binary.LittleEndian.PutUint32(buf[o:], stdmath.Float32bits(p.X))
		binary.LittleEndian.PutUint32(buf[o+4:], stdmath.Float32bits(p.Y))
		binary.LittleEndian.PutUint32(buf[o+8:], stdmath.Float32bits(p.Z))
	}
	_, err := w.Write(buf)
	return err
}

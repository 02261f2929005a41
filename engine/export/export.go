package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

const (
	VertexBufferExtension = ".vb"
	IndexBufferExtension  = ".ib"
	ManifestName          = "manifest"
)

type ManifestFormat string

const (
	ManifestFormatTOML ManifestFormat = "toml"
	ManifestFormatYAML ManifestFormat = "yaml"
)

var (
	ErrUnknownManifestFormat = errors.New("unknown manifest format")
	ErrLayoutMismatch        = errors.New("vertex layout does not match its stride")
)

/**
 * @brief Describes one exported segment and where its buffers live,
 * relative to the manifest.
 */
type SegmentManifest struct {
	Name          string                               `toml:"name" yaml:"name"`
	Index         int                                  `toml:"index" yaml:"index"`
	InstanceCount int                                  `toml:"instance_count" yaml:"instance_count"`
	VertexCount   uint32                               `toml:"vertex_count" yaml:"vertex_count"`
	IndexCount    uint32                               `toml:"index_count" yaml:"index_count"`
	VertexStride  uint32                               `toml:"vertex_stride" yaml:"vertex_stride"`
	VertexFile    string                               `toml:"vertex_file" yaml:"vertex_file"`
	IndexFile     string                               `toml:"index_file" yaml:"index_file"`
	LayoutName    string                               `toml:"layout_name" yaml:"layout_name"`
	Layout        []metadata.VertexAttributeDescriptor `toml:"layout" yaml:"layout"`
	BoundsMin     [3]float32                           `toml:"bounds_min" yaml:"bounds_min"`
	BoundsMax     [3]float32                           `toml:"bounds_max" yaml:"bounds_max"`
	Origin        [3]float32                           `toml:"origin" yaml:"origin"`
}

/**
 * @brief The index of an export directory.
 */
type Manifest struct {
	Job           string            `toml:"job" yaml:"job"`
	Prototype     string            `toml:"prototype" yaml:"prototype"`
	Seed          uint32            `toml:"seed" yaml:"seed"`
	InstanceCount int               `toml:"instance_count" yaml:"instance_count"`
	CreatedAt     time.Time         `toml:"created_at" yaml:"created_at"`
	Segments      []SegmentManifest `toml:"segments" yaml:"segments"`
}

/** @brief Identifies what is being exported. */
type JobInfo struct {
	Name      string
	Prototype string
	Seed      uint32
	// Per segment instance counts, parallel to the meshes.
	InstanceCounts []int
}

/**
 * @brief Writes every mesh as a pair of binary buffers plus a manifest into
 * dir. Empty meshes are skipped.
 * @returns the manifest that was written.
 */
func WriteSegments(dir string, format ManifestFormat, job JobInfo, meshes []*metadata.MeshData) (*Manifest, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		err = fmt.Errorf("failed to create export directory '%s': %w", dir, err)
		core.LogError(err.Error())
		return nil, err
	}

	manifest := &Manifest{
		Job:       job.Name,
		Prototype: job.Prototype,
		Seed:      job.Seed,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Segments:  []SegmentManifest{},
	}
	for i, md := range meshes {
		if md == nil || md.VertexCount == 0 {
			continue
		}
		instances := 0
		if i < len(job.InstanceCounts) {
			instances = job.InstanceCounts[i]
		}
		sm, err := writeSegment(dir, i, instances, md)
		if err != nil {
			core.LogError(err.Error())
			return nil, err
		}
		manifest.InstanceCount += instances
		manifest.Segments = append(manifest.Segments, sm)
	}

	path, err := ManifestPath(dir, format)
	if err != nil {
		return nil, err
	}
	data, err := marshalManifest(format, manifest)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		err = fmt.Errorf("failed to write manifest '%s': %w", path, err)
		core.LogError(err.Error())
		return nil, err
	}
	core.LogInfo("exported %d segments (%d instances) to '%s'", len(manifest.Segments), manifest.InstanceCount, dir)
	return manifest, nil
}

func writeSegment(dir string, index, instances int, md *metadata.MeshData) (SegmentManifest, error) {
	sm := SegmentManifest{
		Name:          md.Name,
		Index:         index,
		InstanceCount: instances,
		VertexCount:   md.VertexCount,
		IndexCount:    md.IndexCount,
		VertexStride:  md.VertexStride,
		VertexFile:    md.Name + VertexBufferExtension,
		IndexFile:     md.Name + IndexBufferExtension,
		LayoutName:    metadata.VertexLayoutName(md.VertexLayout),
		Layout:        md.VertexLayout,
		BoundsMin:     vecArray(md.Bounds.Min),
		BoundsMax:     vecArray(md.Bounds.Max),
	}
	if md.Transform != nil {
		sm.Origin = vecArray(md.Transform.Position)
	}

	vh := metadata.NewResourceHeader(metadata.ResourceTypeVertexBuffer, md.VertexCount, md.VertexStride)
	if err := writeBuffer(filepath.Join(dir, sm.VertexFile), vh, md.VertexData); err != nil {
		return sm, err
	}
	ih := metadata.NewResourceHeader(metadata.ResourceTypeIndexBuffer, md.IndexCount, metadata.IndexSize)
	if err := writeBuffer(filepath.Join(dir, sm.IndexFile), ih, md.IndexData); err != nil {
		return sm, err
	}
	return sm, nil
}

func writeBuffer(path string, header metadata.ResourceHeader, payload []byte) error {
	if int64(len(payload)) != header.PayloadSize() {
		return fmt.Errorf("buffer '%s' holds %d bytes, header declares %d", path, len(payload), header.PayloadSize())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create '%s': %w", path, err)
	}
	defer f.Close()

	if err := header.Write(f); err != nil {
		return fmt.Errorf("failed to write header of '%s': %w", path, err)
	}
	if _, err := f.Write(payload); err != nil {
		return fmt.Errorf("failed to write '%s': %w", path, err)
	}
	return f.Close()
}

// ManifestPath returns where the manifest of the given format lives in dir.
func ManifestPath(dir string, format ManifestFormat) (string, error) {
	switch format {
	case ManifestFormatTOML, "":
		return filepath.Join(dir, ManifestName+".toml"), nil
	case ManifestFormatYAML:
		return filepath.Join(dir, ManifestName+".yaml"), nil
	}
	return "", fmt.Errorf("%w: '%s'", ErrUnknownManifestFormat, format)
}

func marshalManifest(format ManifestFormat, manifest *Manifest) ([]byte, error) {
	switch format {
	case ManifestFormatTOML, "":
		return toml.Marshal(manifest)
	case ManifestFormatYAML:
		return yaml.Marshal(manifest)
	}
	return nil, fmt.Errorf("%w: '%s'", ErrUnknownManifestFormat, format)
}

// ReadManifest loads a manifest, picking the decoder from the file extension.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest '%s': %w", path, err)
	}
	manifest := &Manifest{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, manifest)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, manifest)
	default:
		err = fmt.Errorf("%w: '%s'", ErrUnknownManifestFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode manifest '%s': %w", path, err)
	}
	return manifest, nil
}

/**
 * @brief Reads the buffers of one exported segment back into mesh data.
 * @param dir The directory holding the manifest.
 */
func ReadSegment(dir string, sm SegmentManifest) (*metadata.MeshData, error) {
	layout := sm.Layout
	if known, ok := metadata.VertexLayoutByName(sm.LayoutName); ok {
		if stride := metadata.VertexLayoutStride(known); stride != sm.VertexStride {
			err := fmt.Errorf("%w: '%s' layout of '%s' is %d bytes, manifest declares %d", ErrLayoutMismatch, sm.LayoutName, sm.Name, stride, sm.VertexStride)
			core.LogError(err.Error())
			return nil, err
		}
		if len(layout) == 0 {
			layout = known
		}
	}

	vertexData, err := readBuffer(filepath.Join(dir, sm.VertexFile), metadata.ResourceTypeVertexBuffer)
	if err != nil {
		return nil, err
	}
	indexData, err := readBuffer(filepath.Join(dir, sm.IndexFile), metadata.ResourceTypeIndexBuffer)
	if err != nil {
		return nil, err
	}
	if uint32(len(vertexData)) != sm.VertexCount*sm.VertexStride {
		return nil, fmt.Errorf("vertex buffer of '%s' holds %d bytes, manifest expects %d", sm.Name, len(vertexData), sm.VertexCount*sm.VertexStride)
	}
	if uint32(len(indexData)) != sm.IndexCount*metadata.IndexSize {
		return nil, fmt.Errorf("index buffer of '%s' holds %d bytes, manifest expects %d", sm.Name, len(indexData), sm.IndexCount*metadata.IndexSize)
	}

	bounds := math.Extents3D{
		Min: math.NewVec3(sm.BoundsMin[0], sm.BoundsMin[1], sm.BoundsMin[2]),
		Max: math.NewVec3(sm.BoundsMax[0], sm.BoundsMax[1], sm.BoundsMax[2]),
	}
	return &metadata.MeshData{
		Name:         sm.Name,
		VertexLayout: layout,
		VertexStride: sm.VertexStride,
		VertexCount:  sm.VertexCount,
		VertexData:   vertexData,
		IndexFormat:  metadata.IndexFormatUInt32,
		IndexCount:   sm.IndexCount,
		IndexData:    indexData,
		SubMeshes: []metadata.SubMeshDescriptor{{
			IndexCount:  sm.IndexCount,
			VertexCount: sm.VertexCount,
			Topology:    metadata.MeshTopologyTriangles,
			Bounds:      bounds,
		}},
		Bounds:    bounds,
		Transform: math.TransformFromPosition(math.NewVec3(sm.Origin[0], sm.Origin[1], sm.Origin[2])),
	}, nil
}

func readBuffer(path string, expected metadata.ResourceType) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read '%s': %w", path, err)
	}
	r := bytes.NewReader(data)
	header, err := metadata.ReadResourceHeader(r, expected)
	if err != nil {
		return nil, fmt.Errorf("'%s': %w", path, err)
	}
	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if int64(len(payload)) != header.PayloadSize() {
		return nil, fmt.Errorf("'%s' holds %d payload bytes, header declares %d", path, len(payload), header.PayloadSize())
	}
	return payload, nil
}

func vecArray(v math.Vec3) [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}

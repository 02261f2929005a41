package preview

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

type Format string

const (
	FormatWebP Format = "webp"
	FormatPNG  Format = "png"
)

var (
	ErrUnknownFormat = errors.New("unknown preview format")
	ErrNothingToDraw = errors.New("no vertices to draw")
)

/**
 * @brief Controls the top-down preview render.
 */
type Options struct {
	Width  int `toml:"width" yaml:"width"`
	Height int `toml:"height" yaml:"height"`
	/** @brief The image is rendered this many times larger, then downscaled. */
	Supersample int    `toml:"supersample" yaml:"supersample"`
	Format      Format `toml:"format" yaml:"format"`
	/** @brief Direction the light travels towards. */
	LightDir   math.Vec3 `toml:"-" yaml:"-"`
	Background [4]uint8  `toml:"-" yaml:"-"`
	Albedo     [4]uint8  `toml:"-" yaml:"-"`
}

func DefaultOptions() Options {
	return Options{
		Width:       512,
		Height:      512,
		Supersample: 2,
		Format:      FormatWebP,
		LightDir:    math.NewVec3(-0.4, -1, -0.3),
		Background:  [4]uint8{24, 26, 32, 255},
		Albedo:      [4]uint8{110, 180, 90, 255},
	}
}

/**
 * @brief Renders the meshes looking straight down the y axis, framed on
 * their combined bounds. Triangles are flat shaded with their stored vertex
 * normals.
 */
func Render(meshes []*metadata.MeshData, opts Options) (*image.RGBA, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("preview size must be positive, got %dx%d", opts.Width, opts.Height)
	}
	if opts.Supersample < 1 {
		opts.Supersample = 1
	}

	type worldMesh struct {
		vertices []metadata.VertexPN
		indices  []uint32
	}
	worlds := []worldMesh{}
	bounds := math.ExtentsEmpty()
	for _, md := range meshes {
		if md == nil || md.VertexCount == 0 {
			continue
		}
		vertices, err := metadata.DecodeVerticesPN(md.VertexData)
		if err != nil {
			return nil, err
		}
		indices, err := metadata.DecodeIndices(md.IndexData)
		if err != nil {
			return nil, err
		}
		world := md.Transform.GetWorld()
		for i := range vertices {
			vertices[i].Position = vertices[i].Position.Transform(world)
			vertices[i].Normal = vertices[i].Normal.TransformDirection(world).Normalized()
			bounds = bounds.Grow(vertices[i].Position)
		}
		worlds = append(worlds, worldMesh{vertices: vertices, indices: indices})
	}
	if bounds.IsEmpty() {
		return nil, ErrNothingToDraw
	}

	w := opts.Width * opts.Supersample
	h := opts.Height * opts.Supersample
	fb := newFrameBuffer(w, h, opts.Background)

	// fit the xz footprint into the frame with a small margin, keeping aspect
	size := bounds.Size()
	extent := max(size.X, size.Z, 1e-3) * 1.1
	scale := min(float32(w), float32(h)) / extent
	center := bounds.Center()
	light := opts.LightDir.MulScalar(-1).Normalized()

	for _, wm := range worlds {
		for t := 0; t+2 < len(wm.indices); t += 3 {
			var xs, ys, zs [3]float32
			normal := math.NewVec3Zero()
			skip := false
			for k := 0; k < 3; k++ {
				idx := wm.indices[t+k]
				if int(idx) >= len(wm.vertices) {
					skip = true
					break
				}
				v := wm.vertices[idx]
				xs[k] = (v.Position.X-center.X)*scale + float32(w)*0.5
				ys[k] = (v.Position.Z-center.Z)*scale + float32(h)*0.5
				zs[k] = v.Position.Y
				normal = normal.Add(v.Normal)
			}
			if skip {
				continue
			}
			fb.rasterizeTriangle(xs, ys, zs, shade(opts.Albedo, normal.Normalized(), light))
		}
	}

	img := &image.RGBA{
		Pix:    fb.color,
		Stride: w * 4,
		Rect:   image.Rect(0, 0, w, h),
	}
	if opts.Supersample == 1 {
		return img, nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst, nil
}

// shade applies an ambient term plus two-sided lambert lighting.
func shade(albedo [4]uint8, normal, light math.Vec3) [4]uint8 {
	ndl := normal.Dot(light)
	if ndl < 0 {
		ndl = -ndl
	}
	intensity := math.Clamp(0.25+0.75*ndl, 0, 1)
	return [4]uint8{
		uint8(float32(albedo[0]) * intensity),
		uint8(float32(albedo[1]) * intensity),
		uint8(float32(albedo[2]) * intensity),
		albedo[3],
	}
}

// Write encodes img to path in the given format, creating parent directories.
func Write(path string, img image.Image, format Format) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch format {
	case FormatWebP, "":
		err = nativewebp.Encode(f, img, nil)
	case FormatPNG:
		err = png.Encode(f, img)
	default:
		err = fmt.Errorf("%w: '%s'", ErrUnknownFormat, format)
	}
	if err != nil {
		core.LogError("failed to write preview '%s': %s", path, err.Error())
		return err
	}
	return f.Close()
}

// Extension returns the file extension for format, including the dot.
func Extension(format Format) string {
	if format == FormatPNG {
		return ".png"
	}
	return ".webp"
}

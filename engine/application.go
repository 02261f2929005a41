package engine

import (
	"runtime"

	"github.com/spaghettifunk/anima/engine/export"
	"github.com/spaghettifunk/anima/engine/instancer"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/preview"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

/**
 * @brief Process level settings of the application.
 */
type ApplicationSection struct {
	// The application name, used in logs.
	Name     string `toml:"name" yaml:"name"`
	LogLevel string `toml:"log_level" yaml:"log_level"`
	// Ticks per second. Zero ticks as fast as possible.
	TickRate float64 `toml:"tick_rate" yaml:"tick_rate"`
	// Worker goroutines of the job system. Zero uses one per cpu.
	Workers int `toml:"workers" yaml:"workers"`
	// Capacity of the job queue.
	QueueSize int `toml:"queue_size" yaml:"queue_size"`
	// Keep running after completion and respawn when the config file changes.
	Watch bool `toml:"watch" yaml:"watch"`
}

/**
 * @brief Where and how the finished job is written out.
 */
type OutputSection struct {
	Dir string `toml:"dir" yaml:"dir"`
	// Write the vertex and index buffers of every segment.
	Export         bool                  `toml:"export" yaml:"export"`
	ManifestFormat export.ManifestFormat `toml:"manifest_format" yaml:"manifest_format"`
	// Render a top-down image of the result.
	WritePreview bool            `toml:"write_preview" yaml:"write_preview"`
	Preview      preview.Options `toml:"preview" yaml:"preview"`
}

/**
 * @brief Where the host places the generated batch. Carried by every
 * segment and applied by the preview.
 */
type OriginSection struct {
	Position [3]float32 `toml:"position" yaml:"position"`
	// Rotation about the up axis, in degrees.
	Yaw   float32 `toml:"yaw" yaml:"yaw"`
	Scale float32 `toml:"scale" yaml:"scale"`
}

// Transform builds the origin transform.
func (o OriginSection) Transform() *math.Transform {
	t := math.TransformCreate()
	t.SetPosition(math.NewVec3(o.Position[0], o.Position[1], o.Position[2]))
	if o.Yaw != 0 {
		t.Rotate(math.NewQuatFromAxisAngle(math.NewVec3Up(), math.DegToRad(o.Yaw), true))
	}
	t.SetScale(math.NewVec3(o.Scale, o.Scale, o.Scale))
	return t
}

type ApplicationConfig struct {
	Application ApplicationSection        `toml:"application" yaml:"application"`
	Origin      OriginSection             `toml:"origin" yaml:"origin"`
	Instancer   instancer.Settings        `toml:"instancer" yaml:"instancer"`
	Prototype   metadata.PrototypeConfig  `toml:"prototype" yaml:"prototype"`
	Points      metadata.PointCacheConfig `toml:"points" yaml:"points"`
	Output      OutputSection             `toml:"output" yaml:"output"`
}

func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Application: ApplicationSection{
			Name:      "anima",
			LogLevel:  "info",
			TickRate:  60,
			Workers:   runtime.NumCPU(),
			QueueSize: 256,
		},
		Origin:    OriginSection{Scale: 1},
		Instancer: instancer.DefaultSettings(),
		Prototype: metadata.PrototypeConfig{
			Name:  "grass",
			Shape: metadata.PrototypeShapeTriangle,
		},
		Points: metadata.PointCacheConfig{
			Kind:   metadata.PointCacheKindScatter,
			Extent: 100,
			Seed:   1,
		},
		Output: OutputSection{
			Dir:            "out",
			Export:         true,
			ManifestFormat: export.ManifestFormatTOML,
			WritePreview:   true,
			Preview:        preview.DefaultOptions(),
		},
	}
}

package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima/engine/export"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/preview"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const tomlConfig = `
[application]
name = "meadow"
tick_rate = 0
workers = 2

[instancer]
total_count = 12
rate_per_tick = 5
max_instances_per_segment = 4
seed = 7
min_size = 0.5

[prototype]
shape = "cube"
width = 1.0
height = 2.0
depth = 1.0

[points]
kind = "grid"
extent = 10.0

[output]
dir = "build"
manifest_format = "yaml"

[output.preview]
width = 64
height = 32
format = "png"
`

const yamlConfig = `
application:
  name: meadow
  tick_rate: 0
  workers: 2
instancer:
  total_count: 12
  rate_per_tick: 5
  max_instances_per_segment: 4
  seed: 7
  min_size: 0.5
prototype:
  shape: cube
  width: 1.0
  height: 2.0
  depth: 1.0
points:
  kind: grid
  extent: 10.0
output:
  dir: build
  manifest_format: yaml
  preview:
    width: 64
    height: 32
    format: png
`

func TestLoadConfigFormats(t *testing.T) {
	dir := t.TempDir()
	for _, path := range []string{
		writeFile(t, dir, "instancer.toml", tomlConfig),
		writeFile(t, dir, "instancer.yaml", yamlConfig),
	} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			config, err := LoadConfig(path)
			require.NoError(t, err)

			defaults := DefaultApplicationConfig()
			assert.Equal(t, "meadow", config.Application.Name)
			assert.Equal(t, defaults.Application.LogLevel, config.Application.LogLevel)
			assert.Equal(t, 0.0, config.Application.TickRate)
			assert.Equal(t, 2, config.Application.Workers)

			assert.Equal(t, 12, config.Instancer.TotalCount)
			assert.Equal(t, 5, config.Instancer.RatePerTick)
			assert.Equal(t, 4, config.Instancer.MaxInstancesPerSegment)
			assert.Equal(t, uint32(7), config.Instancer.Seed)
			assert.Equal(t, float32(0.5), config.Instancer.MinSize)
			// untouched keys keep their defaults
			assert.Equal(t, defaults.Instancer.MaxSize, config.Instancer.MaxSize)
			assert.Equal(t, defaults.Instancer.ParallelBatchSize, config.Instancer.ParallelBatchSize)

			assert.Equal(t, metadata.PrototypeShapeCube, config.Prototype.Shape)
			assert.Equal(t, float32(2), config.Prototype.Height)
			assert.Equal(t, metadata.PointCacheKindGrid, config.Points.Kind)

			assert.Equal(t, "build", config.Output.Dir)
			assert.True(t, config.Output.Export)
			assert.Equal(t, export.ManifestFormatYAML, config.Output.ManifestFormat)
			assert.Equal(t, 64, config.Output.Preview.Width)
			assert.Equal(t, 32, config.Output.Preview.Height)
			assert.Equal(t, defaults.Output.Preview.Supersample, config.Output.Preview.Supersample)
			assert.Equal(t, preview.FormatPNG, config.Output.Preview.Format)
			assert.Equal(t, defaults.Output.Preview.LightDir, config.Output.Preview.LightDir)
		})
	}
}

func TestLoadConfigEmptyYAMLKeepsDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.yml", "")
	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultApplicationConfig().Instancer, config.Instancer)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadConfig(writeFile(t, dir, "config.json", "{}"))
	assert.ErrorIs(t, err, ErrUnknownConfigFormat)

	tests := []struct {
		name    string
		file    string
		content string
		invalid bool
	}{
		{"unknown toml key", "a.toml", "[instancer]\ntotal = 3\n", false},
		{"unknown yaml key", "a.yaml", "instancer:\n  total: 3\n", false},
		{"malformed toml", "b.toml", "[instancer\n", false},
		{"bad log level", "c.toml", "[application]\nlog_level = \"loud\"\n", true},
		{"negative tick rate", "d.yaml", "application:\n  tick_rate: -1\n", true},
		{"negative workers", "e.yaml", "application:\n  workers: -2\n", true},
		{"bad manifest format", "f.toml", "[output]\nmanifest_format = \"json\"\n", true},
		{"bad preview format", "g.toml", "[output.preview]\nformat = \"gif\"\n", true},
		{"empty preview", "h.toml", "[output.preview]\nwidth = 0\n", true},
		{"missing output dir", "i.toml", "[output]\ndir = \"\"\n", true},
		{"zero origin scale", "j.yaml", "origin:\n  scale: 0\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeFile(t, dir, tt.file, tt.content))
			require.Error(t, err)
			if tt.invalid {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NotErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestOriginTransform(t *testing.T) {
	origin := OriginSection{Position: [3]float32{1, 0, -2}, Yaw: 90, Scale: 2}
	world := origin.Transform().GetWorld()

	// scale, then a quarter turn about up, then the offset
	p := math.NewVec3(1, 0, 0).Transform(world)
	assert.True(t, p.Compare(math.NewVec3(1, 0, -4), 1e-5), "got %v", p)

	identity := DefaultApplicationConfig().Origin.Transform().GetWorld()
	assert.Equal(t, math.NewMat4Identity(), identity)
}

func TestValidateSkipsPreviewWhenDisabled(t *testing.T) {
	config := DefaultApplicationConfig()
	config.Output.WritePreview = false
	config.Output.Preview.Format = "gif"
	assert.NoError(t, config.Validate())
}

func TestLoadConfigSamples(t *testing.T) {
	for _, name := range []string{"instancer.toml", "instancer.yaml"} {
		t.Run(name, func(t *testing.T) {
			config, err := LoadConfig(filepath.Join("..", "testbed", name))
			require.NoError(t, err)
			assert.Greater(t, config.Instancer.TotalCount, 0)
			assert.NotEmpty(t, config.Output.Dir)
		})
	}
}

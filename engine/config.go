package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/export"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/preview"
)

var (
	ErrUnknownConfigFormat = errors.New("unknown config file format")
	ErrInvalidConfig       = errors.New("invalid config")
)

/**
 * @brief Loads the application config at path on top of the defaults. The
 * format follows the extension (.toml, .yaml or .yml) and unknown keys are
 * rejected.
 */
func LoadConfig(path string) (*ApplicationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("failed to read config '%s': %w", path, err)
		core.LogError(err.Error())
		return nil, err
	}

	config := DefaultApplicationConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		err = decoder.Decode(config)
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		// an empty document leaves the defaults alone
		if err = decoder.Decode(config); errors.Is(err, io.EOF) {
			err = nil
		}
	default:
		err = fmt.Errorf("%w: '%s'", ErrUnknownConfigFormat, path)
		core.LogError(err.Error())
		return nil, err
	}
	if err != nil {
		err = fmt.Errorf("failed to parse config '%s': %w", path, err)
		core.LogError(err.Error())
		return nil, err
	}

	if err := config.Validate(); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	core.LogDebug("loaded config '%s'", path)
	return config, nil
}

/**
 * @brief Checks the settings the engine owns. Instancer settings are checked
 * against the prototype and points when the job is spawned.
 */
func (c *ApplicationConfig) Validate() error {
	if _, err := log.ParseLevel(c.Application.LogLevel); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}
	if c.Application.TickRate < 0 {
		return fmt.Errorf("%w: tick rate must be >= 0, got %f", ErrInvalidConfig, c.Application.TickRate)
	}
	if c.Application.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalidConfig, c.Application.Workers)
	}
	if c.Application.QueueSize < 0 {
		return fmt.Errorf("%w: queue size must be >= 0, got %d", ErrInvalidConfig, c.Application.QueueSize)
	}
	if !(c.Origin.Scale > 0) || !math.NewVec3(c.Origin.Position[0], c.Origin.Position[1], c.Origin.Position[2]).IsFinite() {
		return fmt.Errorf("%w: origin needs a finite position and a positive scale", ErrInvalidConfig)
	}
	switch c.Output.ManifestFormat {
	case export.ManifestFormatTOML, export.ManifestFormatYAML:
	default:
		return fmt.Errorf("%w: unknown manifest format '%s'", ErrInvalidConfig, c.Output.ManifestFormat)
	}
	if c.Output.WritePreview {
		switch c.Output.Preview.Format {
		case preview.FormatWebP, preview.FormatPNG:
		default:
			return fmt.Errorf("%w: unknown preview format '%s'", ErrInvalidConfig, c.Output.Preview.Format)
		}
		if c.Output.Preview.Width <= 0 || c.Output.Preview.Height <= 0 {
			return fmt.Errorf("%w: preview size must be positive, got %dx%d", ErrInvalidConfig, c.Output.Preview.Width, c.Output.Preview.Height)
		}
	}
	if (c.Output.Export || c.Output.WritePreview) && c.Output.Dir == "" {
		return fmt.Errorf("%w: output dir is required", ErrInvalidConfig)
	}
	return nil
}

// Package config loads conversion jobs.
//
// Settings come from a YAML job file, then OSM2BREP_* environment
// variables, then command-line flags, each layer overriding the previous
// one. Unknown keys in the job file are rejected.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/philipparndt/osm2brep/pkg/kernel"
	"github.com/philipparndt/osm2brep/pkg/sqlresult"
	"github.com/philipparndt/osm2brep/pkg/topology"
)

// Config holds one conversion job.
type Config struct {
	Model    ModelConfig    `yaml:"model"`
	Output   OutputConfig   `yaml:"output"`
	Geometry GeometryConfig `yaml:"geometry"`
	Results  ResultsConfig  `yaml:"results"`
	Log      LogConfig      `yaml:"log"`
}

// ModelConfig selects the input model.
type ModelConfig struct {
	Path    string `yaml:"path"`
	Upgrade bool   `yaml:"upgrade"` // migrate pre-3.0 models instead of failing
}

// OutputConfig names the files to write. Empty paths are skipped, except
// Cells which defaults to the model path with a .brep extension.
type OutputConfig struct {
	Cells     string `yaml:"cells"`
	Apertures string `yaml:"apertures"`
	Shading   string `yaml:"shading"`
	STL       string `yaml:"stl"`
	Overwrite bool   `yaml:"overwrite"`
}

// GeometryConfig tunes the reconstruction.
type GeometryConfig struct {
	Tolerance         float64   `yaml:"tolerance"`
	AperturePlacement Placement `yaml:"aperture_placement"`
	SkipInvalidSpaces bool      `yaml:"skip_invalid_spaces"`
}

// Placement is the parametric anchor of apertures on their host face.
type Placement struct {
	U float64 `yaml:"u"`
	V float64 `yaml:"v"`
	W float64 `yaml:"w"`
}

// ResultsConfig points at an EnergyPlus SQL output and the values to read.
type ResultsConfig struct {
	SQL     string            `yaml:"sql"`
	Queries []sqlresult.Query `yaml:"queries"`
}

// LogConfig sets the log level (debug, info, warn, error).
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a job with default settings and no model.
func Default() *Config {
	return &Config{
		Geometry: GeometryConfig{
			Tolerance: kernel.DefaultTolerance,
			AperturePlacement: Placement{
				U: topology.CenterPlacement.U,
				V: topology.CenterPlacement.V,
				W: topology.CenterPlacement.W,
			},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the job file at path on top of the defaults and applies the
// environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Model.Path = getEnv("OSM2BREP_MODEL_PATH", c.Model.Path)
	c.Model.Upgrade = getEnvBool("OSM2BREP_MODEL_UPGRADE", c.Model.Upgrade)
	c.Output.Cells = getEnv("OSM2BREP_OUTPUT_CELLS", c.Output.Cells)
	c.Output.Apertures = getEnv("OSM2BREP_OUTPUT_APERTURES", c.Output.Apertures)
	c.Output.Shading = getEnv("OSM2BREP_OUTPUT_SHADING", c.Output.Shading)
	c.Output.STL = getEnv("OSM2BREP_OUTPUT_STL", c.Output.STL)
	c.Output.Overwrite = getEnvBool("OSM2BREP_OUTPUT_OVERWRITE", c.Output.Overwrite)
	c.Geometry.Tolerance = getEnvFloat("OSM2BREP_GEOMETRY_TOLERANCE", c.Geometry.Tolerance)
	c.Geometry.SkipInvalidSpaces = getEnvBool("OSM2BREP_GEOMETRY_SKIP_INVALID_SPACES", c.Geometry.SkipInvalidSpaces)
	c.Results.SQL = getEnv("OSM2BREP_RESULTS_SQL", c.Results.SQL)
	c.Log.Level = getEnv("OSM2BREP_LOG_LEVEL", c.Log.Level)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Model.Path == "" {
		return errors.New("model.path is required")
	}
	if c.Geometry.Tolerance <= 0 {
		return fmt.Errorf("geometry.tolerance must be positive, got %g", c.Geometry.Tolerance)
	}
	p := c.Geometry.AperturePlacement
	for _, v := range []struct {
		name  string
		value float64
	}{{"u", p.U}, {"v", p.V}, {"w", p.W}} {
		if v.value < 0 || v.value > 1 {
			return fmt.Errorf("geometry.aperture_placement.%s must be within [0, 1], got %g", v.name, v.value)
		}
	}
	if len(c.Results.Queries) > 0 && c.Results.SQL == "" {
		return errors.New("results.sql is required when results.queries are set")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// CellsPath returns the output path for the cell cluster.
func (c *Config) CellsPath() string {
	if c.Output.Cells != "" {
		return c.Output.Cells
	}
	return strings.TrimSuffix(c.Model.Path, filepath.Ext(c.Model.Path)) + ".brep"
}

// Placement returns the configured aperture placement.
func (c *Config) Placement() topology.Placement {
	p := c.Geometry.AperturePlacement
	return topology.Placement{U: p.U, V: p.V, W: p.W}
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default
// value when it is unset or unparsable.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultValue
}

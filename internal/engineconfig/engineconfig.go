package engineconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"flex-engine/internal/flex"
	"flex-engine/internal/instances"
	"flex-engine/internal/primitives"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the scene config used when none is given, relative to the process working directory.
const DefaultPath = "config/flex.yaml"

// Device selects the compute device.
type Device struct {
	// Preference is "auto", "gpu" or "cpu".
	Preference string `yaml:"preference" toml:"preference" json:"preference"`
	// PowerPreference is "high" or "low".
	PowerPreference string `yaml:"power_preference" toml:"power_preference" json:"power_preference"`
	ForceFallback   bool   `yaml:"force_fallback" toml:"force_fallback" json:"force_fallback"`
}

// Bounds is an axis-aligned box in world space.
type Bounds struct {
	Min [3]float32 `yaml:"min" toml:"min" json:"min"`
	Max [3]float32 `yaml:"max" toml:"max" json:"max"`
}

// Viewer holds the window and debug overlay preferences.
type Viewer struct {
	Width        int  `yaml:"width" toml:"width" json:"width"`
	Height       int  `yaml:"height" toml:"height" json:"height"`
	ShowFPS      bool `yaml:"show_fps" toml:"show_fps" json:"show_fps"`
	ShowMemAlloc bool `yaml:"show_memalloc" toml:"show_memalloc" json:"show_memalloc"`
	ShowStats    bool `yaml:"show_stats" toml:"show_stats" json:"show_stats"`
	GridVisible  bool `yaml:"grid_visible" toml:"grid_visible" json:"grid_visible"`

	Palette primitives.Palette `yaml:"palette" toml:"palette" json:"palette"`
}

// Config is a complete simulation scene: device, buffer capacities, timing, solver
// parameters, viewer preferences and the instances to build.
type Config struct {
	Device      Device        `yaml:"device" toml:"device" json:"device"`
	Capacity    flex.Capacity `yaml:"capacity" toml:"capacity" json:"capacity"`
	DT          float32       `yaml:"dt" toml:"dt" json:"dt"`
	Substeps    int           `yaml:"substeps" toml:"substeps" json:"substeps"`
	Frames      int           `yaml:"frames" toml:"frames" json:"frames"`
	FloorTilt   [3]float32    `yaml:"floor_tilt" toml:"floor_tilt" json:"floor_tilt"`
	SceneBounds *Bounds       `yaml:"scene_bounds,omitempty" toml:"scene_bounds,omitempty" json:"scene_bounds,omitempty"`
	Params      flex.Params   `yaml:"params" toml:"params" json:"params"`
	Viewer      Viewer        `yaml:"viewer" toml:"viewer" json:"viewer"`
	LogPath     string        `yaml:"log_path" toml:"log_path" json:"log_path"`

	Instances []instances.Spec `yaml:"instances" toml:"instances" json:"instances"`
}

// Default returns a runnable scene: a block of particles dropped onto a static box.
func Default() Config {
	return Config{
		Device:   Device{Preference: "auto", PowerPreference: "high"},
		Capacity: flex.Capacity{MaxParticles: 8192},
		DT:       1.0 / 60.0,
		Substeps: 2,
		Frames:   300,
		Params:   flex.DefaultParams(),
		Viewer: Viewer{
			Width:       1280,
			Height:      720,
			ShowStats:   true,
			GridVisible: true,
			Palette:     primitives.DefaultPalette(),
		},
		LogPath:   "logs/flex.txt",
		Instances: defaultInstances(),
	}
}

func defaultInstances() []instances.Spec {
	return []instances.Spec{
		{
			Kind:    "particle_grid",
			Name:    "block",
			Origin:  [3]float32{-0.5, 1.5, -0.5},
			Dims:    [3]int{8, 8, 8},
			Spacing: 0.15,
		},
		{
			Kind: "colliders",
			Name: "ground",
			Colliders: []instances.ColliderSpec{
				{Shape: "box", Position: [3]float32{0, 0.25, 0}, HalfExtents: [3]float32{1, 0.25, 1}},
			},
		},
	}
}

// FlexConfig returns the controller configuration.
func (c Config) FlexConfig() flex.Config {
	fc := flex.Config{
		Capacity:  c.Capacity,
		DT:        c.DT,
		Substeps:  c.Substeps,
		FloorTilt: rl.NewVector3(c.FloorTilt[0], c.FloorTilt[1], c.FloorTilt[2]),
	}
	if c.SceneBounds != nil {
		b := rl.NewBoundingBox(
			rl.NewVector3(c.SceneBounds.Min[0], c.SceneBounds.Min[1], c.SceneBounds.Min[2]),
			rl.NewVector3(c.SceneBounds.Max[0], c.SceneBounds.Max[1], c.SceneBounds.Max[2]),
		)
		fc.SceneBounds = &b
	}
	return fc
}

// Load reads a config file. The decoder is picked by extension: .yaml/.yml, .toml or
// .json. Fields the file omits keep their Default values; a file without instances gets
// the default scene. If the file is missing, Load returns Default() and an error that
// satisfies errors.Is(err, fs.ErrNotExist).
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	cfg.Instances = nil
	if err := decode(path, data, &cfg); err != nil {
		return Default(), fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(cfg.Instances) == 0 {
		cfg.Instances = defaultInstances()
	}
	return cfg, nil
}

// Save writes cfg to path, creating the parent directory if needed. The encoder follows the
// same extension rule as Load.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := encode(path, cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func format(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return "yaml", nil
	case ".toml":
		return "toml", nil
	case ".json":
		return "json", nil
	default:
		return "", fmt.Errorf("unsupported config extension %q", ext)
	}
}

func decode(path string, data []byte, cfg *Config) error {
	f, err := format(path)
	if err != nil {
		return err
	}
	switch f {
	case "yaml":
		return yaml.Unmarshal(data, cfg)
	case "toml":
		return toml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

func encode(path string, cfg Config) ([]byte, error) {
	f, err := format(path)
	if err != nil {
		return nil, err
	}
	switch f {
	case "yaml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "toml":
		return toml.Marshal(cfg)
	default:
		return json.MarshalIndent(cfg, "", "\t")
	}
}

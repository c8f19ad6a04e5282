// Package config loads renderer settings from a TOML file layered over built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidConfig is wrapped by every validation failure returned from Validate and Load.
var ErrInvalidConfig = errors.New("invalid config")

// WindowConfig holds the initial window settings.
type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// VoxelConfig holds the voxel grid settings.
type VoxelConfig struct {
	// Resolution is the number of voxels along each side of the cubic grid. Must be a power of two.
	Resolution uint32 `toml:"resolution"`
	// Padding grows the scene bounds by this fraction of the largest extent before fitting the grid.
	Padding float32 `toml:"padding"`
}

// CameraConfig holds the camera and controller settings.
type CameraConfig struct {
	FovDeg      float32 `toml:"fov_deg"`
	Near        float32 `toml:"near"`
	Far         float32 `toml:"far"`
	Speed       float32 `toml:"speed"`
	Sensitivity float32 `toml:"sensitivity"`
}

// RenderConfig holds device and presentation settings.
type RenderConfig struct {
	// VSync selects FIFO presentation when true and immediate presentation otherwise.
	VSync bool `toml:"vsync"`
	// ForceFallbackAdapter requests a software adapter.
	ForceFallbackAdapter bool `toml:"force_fallback_adapter"`
	// LoadWorkers is the number of workers used to pack scene data at load time.
	LoadWorkers int `toml:"load_workers"`
	// Profile enables the once-per-second frame time log line.
	Profile bool `toml:"profile"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Config is the full renderer configuration.
type Config struct {
	Window WindowConfig `toml:"window"`
	Voxel  VoxelConfig  `toml:"voxel"`
	Camera CameraConfig `toml:"camera"`
	Render RenderConfig `toml:"render"`
	Log    LogConfig    `toml:"log"`
}

// Default returns the configuration used when no file is given.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:  "oxy-voxel",
			Width:  1280,
			Height: 720,
		},
		Voxel: VoxelConfig{
			Resolution: 128,
			Padding:    0.05,
		},
		Camera: CameraConfig{
			FovDeg:      60,
			Near:        0.1,
			Far:         100,
			Speed:       0.01,
			Sensitivity: 8e-3,
		},
		Render: RenderConfig{
			VSync:       true,
			LoadWorkers: 4,
			Profile:     true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a TOML file and decodes it over Default. Unknown keys are rejected.
// An empty path returns Default unchanged.
//
// Parameters:
//   - path: the TOML file path, or "" for defaults
//
// Returns:
//   - Config: the loaded and validated configuration
//   - error: an error if the file cannot be read, decoded, or fails validation
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config %q: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return cfg, fmt.Errorf("%w: %s", ErrInvalidConfig, strict.String())
		}
		return cfg, fmt.Errorf("failed to decode config %q: %w", path, err)
	}

	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// fillDefaults restores defaults for fields a file explicitly zeroed where zero is never meaningful.
func (c *Config) fillDefaults() {
	def := Default()
	c.Window.Title = common.Coalesce(c.Window.Title, def.Window.Title)
	c.Camera.Sensitivity = common.Coalesce(c.Camera.Sensitivity, def.Camera.Sensitivity)
	c.Render.LoadWorkers = common.Coalesce(c.Render.LoadWorkers, def.Render.LoadWorkers)
	c.Log.Level = common.Coalesce(c.Log.Level, def.Log.Level)
}

// Validate checks every field against its allowed range.
//
// Returns:
//   - error: an error wrapping ErrInvalidConfig that lists every violation, or nil
func (c Config) Validate() error {
	var problems []string

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		problems = append(problems, fmt.Sprintf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if r := c.Voxel.Resolution; r < 8 || r > 512 || r&(r-1) != 0 {
		problems = append(problems, fmt.Sprintf("voxel resolution %d must be a power of two in [8, 512]", r))
	}
	if c.Voxel.Padding < 0 {
		problems = append(problems, "voxel padding must not be negative")
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		problems = append(problems, fmt.Sprintf("camera planes near=%g far=%g must satisfy 0 < near < far", c.Camera.Near, c.Camera.Far))
	}
	if c.Camera.FovDeg <= 0 || c.Camera.FovDeg >= 180 {
		problems = append(problems, fmt.Sprintf("camera fov %g must be in (0, 180)", c.Camera.FovDeg))
	}
	if c.Camera.Speed <= 0 {
		problems = append(problems, "camera speed must be positive")
	}
	if c.Render.LoadWorkers < 1 {
		problems = append(problems, "render load_workers must be at least 1")
	}
	if _, err := common.ParseLogLevel(c.Log.Level); err != nil {
		problems = append(problems, fmt.Sprintf("log level %q is not one of debug, info, warn, error", c.Log.Level))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

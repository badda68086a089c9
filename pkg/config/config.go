// Package config holds the render settings surface: defaults, LUMEN_*
// environment overrides and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chazu/lumen/pkg/sdf"
	"github.com/chazu/lumen/pkg/vec"
)

// Renderer selects the per-pixel policy.
type Renderer string

const (
	Phong     Renderer = "phong"
	PBR       Renderer = "pbr"
	PathTrace Renderer = "pathtrace"
	Graph     Renderer = "graph"
)

// Renderers lists the accepted renderer names.
var Renderers = []Renderer{Phong, PBR, PathTrace, Graph}

const (
	DefaultWidth        = 640
	DefaultHeight       = 480
	DefaultAntialias    = 1
	DefaultOpacity      = 1.0
	DefaultSteps        = 256
	DefaultStepSize     = 1.0
	DefaultMaxDistance  = 100.0
	DefaultVoxelDensity = 32.0
	DefaultAmbient      = 0.05
	DefaultSpecular     = 0.3
	DefaultIterations   = 16
	DefaultTileSize     = 32
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid settings")

// Settings is everything a render invocation consumes besides the scene.
type Settings struct {
	Width  int
	Height int

	// Antialias is the per-axis sample grid; 2 means 2x2 samples per pixel.
	Antialias int

	Background vec.Vec4
	// BackgroundFunc replaces the flat background with a vertical sky
	// gradient.
	BackgroundFunc bool
	// Opacity scales the alpha of background pixels.
	Opacity float64

	Steps       int
	StepSize    float64
	MaxDistance float64

	VoxelDensity float64
	VoxelBounds  vec.Vec3

	Renderer   Renderer
	Ambient    float64
	Specular   float64
	Iterations int

	TileW   int
	TileH   int
	Workers int

	Gamma bool
	// Checkpoint, when set, is the path the partial image is written to
	// after every tile.
	Checkpoint string

	LogLevel string
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Width:        DefaultWidth,
		Height:       DefaultHeight,
		Antialias:    DefaultAntialias,
		Background:   vec.XYZW(0, 0, 0, 1),
		Opacity:      DefaultOpacity,
		Steps:        DefaultSteps,
		StepSize:     DefaultStepSize,
		MaxDistance:  DefaultMaxDistance,
		VoxelDensity: DefaultVoxelDensity,
		VoxelBounds:  vec.XYZ(4, 4, 4),
		Renderer:     Phong,
		Ambient:      DefaultAmbient,
		Specular:     DefaultSpecular,
		Iterations:   DefaultIterations,
		TileW:        DefaultTileSize,
		TileH:        DefaultTileSize,
		Gamma:        true,
		LogLevel:     "notice",
	}
}

// MarchOptions returns the sphere-tracing parameters.
func (s Settings) MarchOptions() sdf.MarchOptions {
	opts := sdf.DefaultMarchOptions()
	opts.Steps = s.Steps
	opts.StepSize = s.StepSize
	opts.MaxDistance = s.MaxDistance
	return opts
}

// Aspect returns width over height.
func (s Settings) Aspect() float64 {
	if s.Height == 0 {
		return 1
	}
	return float64(s.Width) / float64(s.Height)
}

// Validate reports every out-of-range field at once.
func (s Settings) Validate() error {
	var problems []string
	if s.Width <= 0 || s.Height <= 0 {
		problems = append(problems, fmt.Sprintf("image size must be positive, got %dx%d", s.Width, s.Height))
	}
	if s.Antialias < 1 {
		problems = append(problems, fmt.Sprintf("antialias must be at least 1, got %d", s.Antialias))
	}
	if s.Opacity < 0 || s.Opacity > 1 {
		problems = append(problems, fmt.Sprintf("opacity must be within [0, 1], got %g", s.Opacity))
	}
	if s.Steps <= 0 {
		problems = append(problems, fmt.Sprintf("steps must be positive, got %d", s.Steps))
	}
	if s.StepSize <= 0 || s.StepSize > 1 {
		problems = append(problems, fmt.Sprintf("step size must be within (0, 1], got %g", s.StepSize))
	}
	if s.MaxDistance <= 0 {
		problems = append(problems, fmt.Sprintf("max distance must be positive, got %g", s.MaxDistance))
	}
	if s.VoxelDensity <= 0 {
		problems = append(problems, fmt.Sprintf("voxel density must be positive, got %g", s.VoxelDensity))
	}
	if s.VoxelBounds[0] <= 0 || s.VoxelBounds[1] <= 0 || s.VoxelBounds[2] <= 0 {
		problems = append(problems, fmt.Sprintf("voxel bounds must be positive, got %v", s.VoxelBounds))
	}
	if !validRenderer(s.Renderer) {
		problems = append(problems, fmt.Sprintf("unknown renderer %q", s.Renderer))
	}
	if s.Iterations < 1 {
		problems = append(problems, fmt.Sprintf("iterations must be at least 1, got %d", s.Iterations))
	}
	if s.TileW <= 0 || s.TileH <= 0 {
		problems = append(problems, fmt.Sprintf("tile size must be positive, got %dx%d", s.TileW, s.TileH))
	}
	if s.Workers < 0 {
		problems = append(problems, fmt.Sprintf("workers must not be negative, got %d", s.Workers))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

func validRenderer(r Renderer) bool {
	for _, known := range Renderers {
		if r == known {
			return true
		}
	}
	return false
}

// FromEnv applies LUMEN_* environment overrides on top of base. Malformed
// values are collected and reported together; the returned settings are not
// validated.
func FromEnv(base Settings) (Settings, error) {
	cfg := base
	var problems []string

	envInt("LUMEN_WIDTH", &cfg.Width, &problems)
	envInt("LUMEN_HEIGHT", &cfg.Height, &problems)
	envInt("LUMEN_ANTIALIAS", &cfg.Antialias, &problems)
	envInt("LUMEN_STEPS", &cfg.Steps, &problems)
	envInt("LUMEN_ITERATIONS", &cfg.Iterations, &problems)
	envInt("LUMEN_TILE_W", &cfg.TileW, &problems)
	envInt("LUMEN_TILE_H", &cfg.TileH, &problems)
	envInt("LUMEN_WORKERS", &cfg.Workers, &problems)

	envFloat("LUMEN_OPACITY", &cfg.Opacity, &problems)
	envFloat("LUMEN_STEP_SIZE", &cfg.StepSize, &problems)
	envFloat("LUMEN_MAX_DISTANCE", &cfg.MaxDistance, &problems)
	envFloat("LUMEN_VOXEL_DENSITY", &cfg.VoxelDensity, &problems)
	envFloat("LUMEN_AMBIENT", &cfg.Ambient, &problems)
	envFloat("LUMEN_SPECULAR", &cfg.Specular, &problems)

	envBool("LUMEN_BACKGROUND_FUNC", &cfg.BackgroundFunc, &problems)
	envBool("LUMEN_GAMMA", &cfg.Gamma, &problems)

	if raw := strings.TrimSpace(os.Getenv("LUMEN_BACKGROUND")); raw != "" {
		v, err := ParseFloats(raw)
		switch {
		case err != nil || (len(v) != 3 && len(v) != 4):
			problems = append(problems, fmt.Sprintf("LUMEN_BACKGROUND must be r,g,b or r,g,b,a, got %q", raw))
		case len(v) == 3:
			cfg.Background = vec.XYZW(v[0], v[1], v[2], 1)
		default:
			cfg.Background = vec.XYZW(v[0], v[1], v[2], v[3])
		}
	}
	if raw := strings.TrimSpace(os.Getenv("LUMEN_VOXEL_BOUNDS")); raw != "" {
		v, err := ParseFloats(raw)
		if err != nil || len(v) != 3 {
			problems = append(problems, fmt.Sprintf("LUMEN_VOXEL_BOUNDS must be x,y,z, got %q", raw))
		} else {
			cfg.VoxelBounds = vec.XYZ(v[0], v[1], v[2])
		}
	}
	if raw := strings.TrimSpace(os.Getenv("LUMEN_RENDERER")); raw != "" {
		r := Renderer(strings.ToLower(raw))
		if !validRenderer(r) {
			problems = append(problems, fmt.Sprintf("LUMEN_RENDERER must be one of %v, got %q", Renderers, raw))
		} else {
			cfg.Renderer = r
		}
	}
	if raw := strings.TrimSpace(os.Getenv("LUMEN_CHECKPOINT")); raw != "" {
		cfg.Checkpoint = raw
	}
	if raw := strings.TrimSpace(os.Getenv("LUMEN_LOG_LEVEL")); raw != "" {
		cfg.LogLevel = strings.ToLower(raw)
	}

	if len(problems) > 0 {
		return base, fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return cfg, nil
}

// ParseFloats parses a comma separated list of numbers.
func ParseFloats(raw string) ([]float64, error) {
	parts := strings.Split(raw, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func envInt(key string, dst *int, problems *[]string) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("%s must be an integer, got %q", key, raw))
		return
	}
	*dst = v
}

func envFloat(key string, dst *float64, problems *[]string) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("%s must be a number, got %q", key, raw))
		return
	}
	*dst = v
}

func envBool(key string, dst *bool, problems *[]string) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("%s must be a boolean value, got %q", key, raw))
		return
	}
	*dst = v
}

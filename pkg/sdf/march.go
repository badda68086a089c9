package sdf

import "github.com/chazu/lumen/pkg/vec"

// MarchOptions controls sphere tracing against a distance field.
type MarchOptions struct {
	Steps       int     // iteration cap
	StepSize    float64 // relaxation factor applied to each step
	MaxDistance float64
	Epsilon     float64 // surface threshold
}

// DefaultMarchOptions mirrors the renderer defaults.
func DefaultMarchOptions() MarchOptions {
	return MarchOptions{Steps: 256, StepSize: 1, MaxDistance: 100, Epsilon: 0.001}
}

// March sphere-traces f along r and returns the hit parameter.
func March(f Field, r vec.Ray, opts MarchOptions) (float64, bool) {
	if opts.Steps <= 0 {
		opts.Steps = 256
	}
	if opts.StepSize <= 0 {
		opts.StepSize = 1
	}
	if opts.Epsilon <= 0 {
		opts.Epsilon = 0.001
	}
	t := 0.0
	for i := 0; i < opts.Steps && t <= opts.MaxDistance; i++ {
		d := f.Distance(r.At(t))
		if d < opts.Epsilon {
			return t, true
		}
		t += d * opts.StepSize
	}
	return 0, false
}

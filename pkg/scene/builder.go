package scene

import (
	"fmt"

	"github.com/chazu/lumen/pkg/material"
	"github.com/chazu/lumen/pkg/sdf"
)

// Builder is the typed entry point used by scene front ends. Objects are
// registered in order; Build resolves which SDFs are consumed as boolean
// operands and freezes the result.
type Builder struct {
	sdfs      []*sdf.SDF
	analytics []*sdf.Analytic
	lights    []Light
	materials []material.Material
	camera    Camera
	ids       map[string]bool
	built     bool
}

// NewBuilder returns an empty builder with the default camera.
func NewBuilder() *Builder {
	return &Builder{
		camera: DefaultCamera(),
		ids:    make(map[string]bool),
	}
}

// AddSDF registers an SDF. Ids must be unique across SDFs and analytic
// objects; an empty id is assigned one.
func (b *Builder) AddSDF(s *sdf.SDF) error {
	if s == nil {
		return ErrNilObject
	}
	id, err := b.claimID(s.ID, "sdf")
	if err != nil {
		return err
	}
	s.ID = id
	b.sdfs = append(b.sdfs, s)
	return nil
}

// AddAnalytic registers a closed-form object.
func (b *Builder) AddAnalytic(a *sdf.Analytic) error {
	if a == nil {
		return ErrNilObject
	}
	id, err := b.claimID(a.ID, "analytic")
	if err != nil {
		return err
	}
	a.ID = id
	b.analytics = append(b.analytics, a)
	return nil
}

// AddLight registers a light.
func (b *Builder) AddLight(l Light) {
	if l.ID == "" {
		l.ID = fmt.Sprintf("light_%d", len(b.lights))
	}
	b.lights = append(b.lights, l)
}

// AddMaterial registers a material that is not attached to any SDF, for
// volumes and graphs that address materials by id. The returned id is valid
// in the built scene's material table.
func (b *Builder) AddMaterial(m material.Material) int {
	b.materials = append(b.materials, m)
	return len(b.materials)
}

// SetCamera replaces the camera.
func (b *Builder) SetCamera(c Camera) {
	b.camera = c
}

// Lookup returns a registered SDF by id, or nil.
func (b *Builder) Lookup(id string) *sdf.SDF {
	for _, s := range b.sdfs {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (b *Builder) claimID(id, prefix string) (string, error) {
	if b.built {
		return "", ErrBuilt
	}
	if id == "" {
		id = fmt.Sprintf("%s_%d", prefix, len(b.ids))
	}
	if b.ids[id] {
		return "", fmt.Errorf("%w: %q", ErrDuplicateID, id)
	}
	b.ids[id] = true
	return id, nil
}

// Build validates the registered objects and produces the immutable scene.
// Operand SDFs that were never registered directly are adopted so that ids
// and materials resolve for them too.
func (b *Builder) Build() (*Scene, error) {
	if b.built {
		return nil, ErrBuilt
	}
	if err := b.camera.Validate(); err != nil {
		return nil, err
	}

	all := b.collect()
	if err := checkOperandCycles(all); err != nil {
		return nil, err
	}

	used := make(map[*sdf.SDF]bool)
	for _, s := range all {
		for _, op := range s.Ops {
			if op.Other == nil {
				return nil, fmt.Errorf("%w: operand of %q", ErrNilObject, s.ID)
			}
			used[op.Other] = true
		}
	}

	sc := &Scene{
		Analytics:  b.analytics,
		Lights:     b.lights,
		Camera:     b.camera,
		Materials:  []material.Material{material.Default()},
		all:        all,
		byID:       make(map[string]*sdf.SDF, len(all)),
		materialID: make(map[*sdf.SDF]int, len(all)),
	}
	sc.Materials[0].Finalize()
	for _, m := range b.materials {
		m.Finalize()
		sc.Materials = append(sc.Materials, m)
	}

	for _, s := range all {
		s.Material.Finalize()
		sc.byID[s.ID] = s
		sc.materialID[s] = len(sc.Materials)
		sc.Materials = append(sc.Materials, s.Material)
		if !used[s] {
			sc.SDFs = append(sc.SDFs, s)
		}
	}
	for _, a := range b.analytics {
		a.Material.Finalize()
	}

	b.built = true
	logger.Debugf("built scene: %d render sdfs (%d total), %d analytic, %d lights",
		len(sc.SDFs), len(all), len(sc.Analytics), len(sc.Lights))
	return sc, nil
}

// collect returns registered SDFs followed by any operand reachable only
// through boolean operations.
func (b *Builder) collect() []*sdf.SDF {
	seen := make(map[*sdf.SDF]bool)
	var out []*sdf.SDF
	var visit func(s *sdf.SDF)
	visit = func(s *sdf.SDF) {
		if s == nil || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}
	for _, s := range b.sdfs {
		visit(s)
	}
	for i := 0; i < len(out); i++ {
		for _, op := range out[i].Ops {
			if op.Other != nil && !seen[op.Other] {
				if op.Other.ID == "" || b.ids[op.Other.ID] {
					op.Other.ID = fmt.Sprintf("%s_operand_%d", out[i].ID, len(out))
				}
				visit(op.Other)
			}
		}
	}
	return out
}

// checkOperandCycles walks operand edges with 3-color DFS marking.
func checkOperandCycles(all []*sdf.SDF) error {
	const (
		white = iota
		gray
		black
	)
	color := make(map[*sdf.SDF]int)

	var visit func(s *sdf.SDF) error
	visit = func(s *sdf.SDF) error {
		switch color[s] {
		case black:
			return nil
		case gray:
			return fmt.Errorf("%w: %q", ErrOperandCycle, s.ID)
		}
		color[s] = gray
		for _, o := range s.Operands() {
			if err := visit(o); err != nil {
				return err
			}
		}
		color[s] = black
		return nil
	}

	for _, s := range all {
		if color[s] == white {
			if err := visit(s); err != nil {
				return err
			}
		}
	}
	return nil
}

package render

import "errors"

var (
	ErrNoScene  = errors.New("render: renderer needs a scene")
	ErrNoGraph  = errors.New("render: renderer needs a node graph")
	ErrNoVolume = errors.New("render: pbr renderer needs a volume, a field graph or a scene")
)

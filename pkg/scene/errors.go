package scene

import "errors"

var (
	ErrDuplicateID   = errors.New("scene: duplicate object id")
	ErrNilObject     = errors.New("scene: nil object")
	ErrOperandCycle  = errors.New("scene: boolean operands form a cycle")
	ErrInvalidCamera = errors.New("scene: invalid camera")
	ErrBuilt         = errors.New("scene: builder already built")
)

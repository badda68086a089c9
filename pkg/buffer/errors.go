package buffer

import "errors"

var (
	ErrSizeMismatch = errors.New("buffer: size mismatch")
	ErrBadSnapshot  = errors.New("buffer: malformed snapshot")
)

package voxel

import "errors"

var (
	ErrFrozen       = errors.New("voxel: buffer is frozen")
	ErrInvalidSize  = errors.New("voxel: bounds and density must be positive")
	ErrBadCache     = errors.New("voxel: malformed cache file")
	ErrCacheVersion = errors.New("voxel: unsupported cache version")
)

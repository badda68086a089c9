package voxel

import "github.com/chazu/lumen/pkg/log"

var logger = log.New("voxel")

package render

import "github.com/chazu/lumen/pkg/log"

var logger = log.New("render")

package scene

import "github.com/chazu/lumen/pkg/log"

var logger = log.New("scene")

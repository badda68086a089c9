package tile

import "github.com/chazu/lumen/pkg/log"

var logger = log.New("tile")

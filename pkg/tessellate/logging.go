package tessellate

import "github.com/chazu/lumen/pkg/log"

var logger = log.New("tessellate")

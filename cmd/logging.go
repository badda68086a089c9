package cmd

import (
	"github.com/urfave/cli"

	"github.com/chazu/lumen/pkg/log"
)

var logger = log.New("lumen")

// setupLogging applies the configured level, then the global -v/-vv flags.
func setupLogging(ctx *cli.Context, level string) {
	if l, ok := log.ParseLevel(level); ok {
		log.SetLevel(l)
	} else {
		logger.Warningf("unknown log level %q, using notice", level)
	}

	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}

package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/docreview/cmd"
)

func main() {
	if err := cmd.NewApp().Run(os.Args); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

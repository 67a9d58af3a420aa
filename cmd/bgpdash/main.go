package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

const (
	version = "0.1.0"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/muxkeep/muxkeep/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}

package main

import (
	"os"

	"github.com/rustyeddy/alphapulse/cmd/alphapulse/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

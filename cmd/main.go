package main

import (
	"os"

	"BetenlaceSync/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

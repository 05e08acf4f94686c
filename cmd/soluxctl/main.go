package main

import (
	"os"

	"github.com/solux-card/solux_card/cmd/soluxctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

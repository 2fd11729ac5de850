package main

import (
	"os"

	"github.com/arlock/arlock/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

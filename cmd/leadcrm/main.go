package main

import (
	"os"

	"github.com/smartconvert/leadcrm/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/akkalak213/edpplatform-sub000/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

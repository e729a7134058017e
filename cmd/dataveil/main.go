// Package main provides the CLI for the dataveil anonymization toolkit.
package main

import (
	"os"

	"github.com/dataveil/dataveil/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

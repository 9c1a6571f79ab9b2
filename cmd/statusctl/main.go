// Package main is the entry point for the statusctl CLI.
package main

import (
	"os"

	"github.com/statuswatch/statuswatch/cmd/statusctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

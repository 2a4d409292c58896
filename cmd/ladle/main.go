// Package main is the entry point for the ladle CLI.
package main

import (
	"os"

	"github.com/ladlehq/ladle/cmd/ladle/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

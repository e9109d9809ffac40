// Package main is the entry point for the lienwatch CLI.
package main

import (
	"os"

	"lienwatch/cmd/lienwatch/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

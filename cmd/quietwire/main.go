package main

import (
	"os"

	"quietwire/cmd/quietwire/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"bricklayers/cmd/bricklayers/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

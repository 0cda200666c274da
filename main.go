package main

import (
	"os"

	"github.com/excellere/excellere/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/vportnov/resume-scout/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"querydeck/internal/cli"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "0.1.0"

func main() {
	if err := cli.Execute(Version); err != nil {
		os.Exit(1)
	}
}

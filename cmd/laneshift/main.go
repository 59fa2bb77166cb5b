package main

import (
	"fmt"
	"os"

	"github.com/Versifine/laneshift/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "laneshift:", err)
		os.Exit(1)
	}
}

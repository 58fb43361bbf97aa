// Package main provides the CLI for PlotLogic, a surface, tangent plane and
// vector field geometry engine.
package main

import (
	"os"

	"github.com/leapstack-labs/plotlogic/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

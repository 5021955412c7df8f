// Command pad-bench scores liveness images and evaluates result logs with
// APCER/BPCER threshold sweeps.
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/jamesainslie/go-liveness/internal/ui"
)

// version is set at build time.
var version = "dev"

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(version),
		fang.WithColorSchemeFunc(ui.FangColorScheme),
	); err != nil {
		os.Exit(1)
	}
}

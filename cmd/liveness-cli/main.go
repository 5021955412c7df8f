// Command liveness-cli scores face images for liveness.
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/jamesainslie/go-liveness/internal/ui"
)

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

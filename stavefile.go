//go:build stave

package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/yaklabco/stave/pkg/sh"
	"github.com/yaklabco/stave/pkg/st"
	"github.com/yaklabco/stave/pkg/target"
)

// Default target when running `stave` with no arguments.
var Default = All

// Aliases for common targets.
var Aliases = map[string]interface{}{
	"b": Build,
	"t": Test,
	"l": Lint,
	"c": Clean,
}

var binaries = []string{"liveness-cli", "pad-bench"}

const syntheticResults = "testdata/synthetic/liveness_results.csv"

// All runs the complete build pipeline: lint, test, and build.
func All() error {
	st.Deps(Init)
	st.Deps(Lint, Test)
	st.Deps(Build)
	return nil
}

// Init ensures the module dependencies are up to date.
func Init() error {
	return sh.Run("go", "mod", "tidy")
}

// Build compiles the liveness-cli and pad-bench binaries.
func Build() error {
	st.Deps(Init)
	st.Deps(Build_CLI, Build_Bench)
	return nil
}

// Build_CLI compiles the liveness-cli binary with version information.
func Build_CLI() error {
	st.Deps(Init)
	return buildBinary("liveness-cli")
}

// Build_Bench compiles the pad-bench binary with version information.
func Build_Bench() error {
	st.Deps(Init)
	return buildBinary("pad-bench")
}

func buildBinary(name string) error {
	out := "bin/" + name
	rebuild, err := target.Glob(out, "**/*.go", "go.mod", "go.sum")
	if err != nil {
		return fmt.Errorf("checking rebuild: %w", err)
	}
	if !rebuild {
		if st.Verbose() {
			fmt.Printf("%s is up to date\n", name)
		}
		return nil
	}
	return sh.RunV("go", "build", "-ldflags", buildLdflags(), "-o", out, "./cmd/"+name)
}

// buildLdflags returns ldflags for version injection.
func buildLdflags() string {
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || strings.TrimSpace(version) == "" {
		version = "dev"
	}
	return "-X main.version=" + strings.TrimSpace(version)
}

// Test runs all tests with race detection and coverage.
func Test() error {
	st.Deps(Init)
	return goTest("-race", "-cover")
}

// TestShort runs tests in short mode.
func TestShort() error {
	st.Deps(Init)
	return goTest("-short", "-race")
}

func goTest(flags ...string) error {
	args := append([]string{"test"}, flags...)
	if st.Verbose() {
		args = append(args, "-v")
	}
	return sh.RunV("go", append(args, "./...")...)
}

// Lint runs golangci-lint on the codebase. LINT_FIX=1 applies fixes.
func Lint() error {
	args := []string{"run"}
	if os.Getenv("LINT_FIX") != "" {
		args = append(args, "--fix")
	}
	return sh.RunV("golangci-lint", append(args, "./...")...)
}

// Fmt formats all Go code using gofmt and goimports.
func Fmt() error {
	if err := sh.Run("gofmt", "-w", "."); err != nil {
		return fmt.Errorf("gofmt: %w", err)
	}
	if err := sh.Run("goimports", "-w", "."); err != nil {
		return fmt.Errorf("goimports: %w", err)
	}
	return nil
}

// Vet runs go vet on all packages.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Clean removes build artifacts and generated charts.
func Clean() error {
	artifacts := append([]string{"bin/", "out/", "coverage.out", "coverage.html"}, binaries...)
	for _, a := range artifacts {
		if err := sh.Rm(a); err != nil {
			return fmt.Errorf("removing %s: %w", a, err)
		}
	}
	return nil
}

// Install builds and installs the binaries to GOBIN.
func Install() error {
	st.Deps(Build)

	gocmd := st.GoCmd()
	bin, err := sh.Output(gocmd, "env", "GOBIN")
	if err != nil {
		return fmt.Errorf("determining GOBIN: %w", err)
	}
	if bin == "" {
		gopath, err := sh.Output(gocmd, "env", "GOPATH")
		if err != nil {
			return fmt.Errorf("determining GOPATH: %w", err)
		}
		bin = gopath + "/bin"
	}

	for _, name := range binaries {
		src := "bin/" + name
		dst := bin + "/" + name
		if runtime.GOOS == "windows" {
			dst += ".exe"
		}
		if err := sh.Copy(dst, src); err != nil {
			return fmt.Errorf("installing %s: %w", name, err)
		}
		if st.Verbose() {
			fmt.Printf("Installed %s to %s\n", name, dst)
		}
	}
	return nil
}

// Bench namespace for evaluation targets.
type Bench st.Namespace

// Data writes the synthetic result log used by the other Bench targets.
func (Bench) Data() error {
	return sh.RunV("go", "run", "./scripts/gen-results.go")
}

// Sweep evaluates a result log and renders its APCER/BPCER chart.
// LIVENESS_RESULTS selects the log; the synthetic one is generated otherwise.
func (Bench) Sweep() error {
	st.Deps(Build_Bench)

	results := os.Getenv("LIVENESS_RESULTS")
	if results == "" {
		st.Deps(Bench.Data)
		results = syntheticResults
	}
	return sh.RunV("./bin/pad-bench", "sweep", "--report", "table", results)
}

// Timing renders the per-image processing time chart for a result log.
func (Bench) Timing() error {
	st.Deps(Build_Bench)

	results := os.Getenv("LIVENESS_RESULTS")
	if results == "" {
		st.Deps(Bench.Data)
		results = syntheticResults
	}
	return sh.RunV("./bin/pad-bench", "timing", results)
}

// Scan scores image folders with the model in LIVENESS_MODEL, or the
// heuristic scorer when it is unset.
func (Bench) Scan() error {
	st.Deps(Build_Bench)

	attack := envOr("LIVENESS_ATTACK_DIR", "testdata/images/attack")
	bona := envOr("LIVENESS_BONA_FIDE_DIR", "testdata/images/real")
	args := []string{"scan", "--attack", attack, "--bona-fide", bona}
	if model := os.Getenv("LIVENESS_MODEL"); model != "" {
		args = append(args, "--scorer", "onnx", "--model", model)
	}
	return sh.RunV("./bin/pad-bench", args...)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// CI runs the full CI pipeline (lint, test, build).
func CI() error {
	st.Deps(Init)
	st.SerialDeps(Lint, Test, Build)
	return nil
}

// Check runs quick validation (vet, lint, short tests).
func Check() error {
	st.Deps(Vet, Lint, TestShort)
	return nil
}

// Coverage writes coverage.out and an HTML view of it.
func Coverage() error {
	st.Deps(Init)
	if err := goTest("-race", "-coverprofile=coverage.out"); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-html=coverage.out", "-o", "coverage.html")
}

// Tidy runs go mod tidy and verifies the go.sum is clean.
func Tidy() error {
	if err := sh.Run("go", "mod", "tidy"); err != nil {
		return err
	}
	output, err := sh.Output("git", "diff", "--exit-code", "go.sum")
	if err != nil {
		if output != "" {
			return fmt.Errorf("go.sum is not clean:\n%s", output)
		}
	}
	return nil
}

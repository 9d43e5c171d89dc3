//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitfield/script"
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir    = "bin"
	binary    = "bin/sitestack"
	mainPkg   = "./cmd/sitestack"
	outDir    = "cdk.out"
	versionLd = "main.version"
)

// Default target to run when none is specified.
var Default = Build

// version returns the tag of HEAD, or the short commit when untagged.
func version() string {
	out, err := script.Exec("git describe --tags --always --dirty").String()
	if err != nil {
		return "dev"
	}
	return strings.TrimSpace(out)
}

// Build compiles the sitestack binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", binDir, err)
	}
	ldflags := fmt.Sprintf("-s -w -X %s=%s", versionLd, version())
	return sh.RunV("go", "build", "-ldflags", ldflags, "-o", binary, mainPkg)
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "-count=1", "./...")
}

// Lint runs go vet and golangci-lint when it is installed.
func Lint() error {
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return err
	}
	if _, err := script.Exec("golangci-lint version").String(); err != nil {
		fmt.Println("golangci-lint not found, skipping")
		return nil
	}
	return sh.RunV("golangci-lint", "run", "./...")
}

// Synth writes the cloud assembly and runs the template security rules.
func Synth() error {
	mg.Deps(Build)
	if err := sh.RunV(binary, "synth", "--out", outDir); err != nil {
		return err
	}
	return sh.RunV(binary, "lint")
}

// Deploy deploys the stack and publishes the site.
func Deploy() error {
	mg.SerialDeps(Build, Synth)
	return sh.RunV(binary, "deploy")
}

// Clean removes build output and the cloud assembly.
func Clean() error {
	matches, err := filepath.Glob("*.template.json")
	if err != nil {
		return fmt.Errorf("glob search: %w", err)
	}
	for _, path := range append([]string{binDir, outDir}, matches...) {
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("clean %s: %w", path, err)
		}
	}
	return nil
}

//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
// If not set, running mage will list available targets
var Default = Build

// Build all executables
func Build() error {
	mg.Deps(BuildUnpacker)
	fmt.Println("Compilation finished")
	return nil
}

func BuildUnpacker() error {
	fmt.Println("Building unpacker executable...")
	return run("go", "build", "-o", "./bin/unpacker", "./unpacker")
}

// Run the package tests
func Test() error {
	fmt.Println("Running tests...")
	return run("go", "test", "./...")
}

func run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

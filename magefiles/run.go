//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Builds the binary and opens the given model with it.
func (Run) Model(path string) error {
	mg.Deps(Build.Binary)
	fmt.Printf("Opening %s...\n", path)
	if _, err := executeCmd("bin/bricklayer", withArgs(path), withStream()); err != nil {
		return err
	}
	return nil
}

// Like Model, but keeps watching the part library in dir.
func (Run) Watch(dir, path string) error {
	mg.Deps(Build.Binary)
	if _, err := executeCmd("bin/bricklayer", withArgs("-library", dir, "-watch", path), withStream()); err != nil {
		return err
	}
	return nil
}

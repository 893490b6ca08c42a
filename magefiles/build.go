//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Compiles the GLSL shaders into SPIR-V modules next to their sources.
func (Build) Shaders() error {
	return buildShaders()
}

// Runs go mod download and then installs the binary.
func (Build) Engine() error {
	mg.Deps(Build.Shaders)
	if _, err := executeCmd("go", withArgs("mod", "download"), withStream()); err != nil {
		return err
	}
	if _, err := executeCmd("go", withArgs("install", "."), withStream()); err != nil {
		return err
	}
	return nil
}

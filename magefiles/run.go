//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the instancer with the sample config in testbed/.
func (Run) Instancer() error {
	mg.Deps(Build.Binary)
	fmt.Println("Run instancer...")
	if _, err := executeCmd("bin/anima", withArgs("-config", "testbed/instancer.toml"), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the instancer in watch mode, respawning whenever the sample config is saved.
func (Run) Watch() error {
	mg.Deps(Build.Binary)
	if _, err := executeCmd("bin/anima", withArgs("-config", "testbed/instancer.toml", "-watch"), withStream()); err != nil {
		return err
	}
	return nil
}

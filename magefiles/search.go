//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Search builds the CLI and runs a search for query with the configured provider.
func Search(query string) error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "search", "--reasons", query)
}

// Snapshot builds the CLI and records a search for query into snapshots/offline.json.
func Snapshot(query string) error {
	mg.Deps(Init, Build)
	return sh.RunV(binPath(), "snapshot", "record", "--out", "snapshots/offline.json", query)
}

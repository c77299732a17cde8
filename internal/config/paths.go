package config

import (
	"os"
	"path/filepath"
)

// ProjectRoot returns the working directory, stepping out of cmd/<name> when
// a binary is started from its own source directory with `go run .`.
func ProjectRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return rootFrom(wd), nil
}

func rootFrom(wd string) string {
	if filepath.Base(filepath.Dir(wd)) == "cmd" {
		return filepath.Join(wd, "..", "..")
	}
	return wd
}

// ResolvePaths makes relative model and metadata paths relative to root.
func (c *Config) ResolvePaths(root string) {
	c.ModelPath = resolve(root, c.ModelPath)
	c.MetadataPath = resolve(root, c.MetadataPath)
}

func resolve(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

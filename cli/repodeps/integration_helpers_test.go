//go:build integration

package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
)

// smallSnapshot is the five package test repository shared with the
// package tests.
var smallSnapshot = filepath.Join("..", "..", "pkg", "snapshot", "testdata", "small.yaml")

// isolate points the configuration and data directories at a fresh
// temporary directory and returns the config path to pass with --config.
func isolate(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(root, "data"))
	return filepath.Join(root, "config", "repodeps", "config.yaml")
}

// runCLI executes the root command with args and returns what it wrote to
// stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

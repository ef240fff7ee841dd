package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cplteam/cplc/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, dir, text string) string {
	t.Helper()
	path := filepath.Join(dir, "in.cpl")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestRunCleanCompileExitsZero(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "PROGRAM p; VAR x; BEGIN x := 1; END.")
	listingPath := filepath.Join(dir, "out.lst")
	codePath := filepath.Join(dir, "out.cod")

	status := run(src, listingPath, codePath, config.DefaultConfig(), false, false)
	assert.Equal(t, 0, status)

	assert.FileExists(t, listingPath)
	assert.FileExists(t, codePath)

	code, err := os.ReadFile(codePath)
	require.NoError(t, err)
	assert.NotEmpty(t, code)
}

func TestRunRecoveredErrorExitsOne(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "PROGRAM p; BEGIN x := 1; END.")
	listingPath := filepath.Join(dir, "out.lst")
	codePath := filepath.Join(dir, "out.cod")

	status := run(src, listingPath, codePath, config.DefaultConfig(), false, false)
	assert.Equal(t, 1, status, "an undeclared identifier is a recoverable semantic error")

	code, err := os.ReadFile(codePath)
	require.NoError(t, err)
	assert.Contains(t, string(code), "Errors detected", "the code file must carry only the error banner, not emitted instructions")
}

func TestRunMissingSourceExitsTwo(t *testing.T) {
	dir := t.TempDir()
	listingPath := filepath.Join(dir, "out.lst")
	codePath := filepath.Join(dir, "out.cod")

	status := run(filepath.Join(dir, "does-not-exist.cpl"), listingPath, codePath, config.DefaultConfig(), false, false)
	assert.Equal(t, 2, status)
}

func TestRunDumpSymbolsDoesNotChangeExitStatus(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "PROGRAM p; VAR x; BEGIN x := 1; END.")
	listingPath := filepath.Join(dir, "out.lst")
	codePath := filepath.Join(dir, "out.cod")

	status := run(src, listingPath, codePath, config.DefaultConfig(), true, false)
	assert.Equal(t, 0, status)
}

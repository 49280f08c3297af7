package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsxform/cli/internal/config"
	oerrors "github.com/tsxform/cli/internal/errors"
	"github.com/tsxform/cli/internal/testutil"
)

// isolate points the config lookup at an empty home directory.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, name := range []string{
		config.EnvConfig, config.EnvTimestamps, config.EnvDebounce, config.EnvClassify,
		config.EnvStrictClassify, config.EnvConcurrency, config.EnvTSC, config.EnvEngineTimeout,
	} {
		t.Setenv(name, "")
	}
	return home
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// fakeTSC writes a tsc stand-in that succeeds without emitting anything.
func fakeTSC(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake")
	}
	path := filepath.Join(t.TempDir(), "tsc")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755))
	return path
}

func TestNewRootCmd_Commands(t *testing.T) {
	root := NewRootCmd()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"transform", "rename-to-jsx", "config", "version"} {
		assert.True(t, names[want], want)
	}

	for _, flag := range []string{"config", "verbose", "timestamps"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
	assert.Equal(t, "v", root.PersistentFlags().Lookup("verbose").Shorthand)
}

func TestTransformCmd_Flags(t *testing.T) {
	c := NewTransformCmd(nil)

	assert.Equal(t, "src", c.Flags().Lookup("src").DefValue)
	for _, flag := range []string{
		"dist", "watch", "clean", "tsConfig", "babelConfig", "no-classify",
		"strict-classify", "debounce", "witty", "version", "concurrency", "tsc", "engine-timeout",
	} {
		assert.NotNil(t, c.Flags().Lookup(flag), flag)
	}
}

func TestTransformCmd_EndToEnd(t *testing.T) {
	isolate(t)
	tsc := fakeTSC(t)

	pkg := t.TempDir()
	src := filepath.Join(pkg, "src")
	testutil.WriteFile(t, src, "a.tsx", "export const A = () => <div>hi</div>;\n")
	testutil.WriteFile(t, src, "b.ts", "export const b: number = 1;\n")
	testutil.WriteFile(t, src, "c.png", "PNG")

	_, _, err := execute(t, "transform", "--src", src, "--tsc", tsc)
	require.NoError(t, err)

	tree := testutil.ReadTree(t, filepath.Join(pkg, "dist"))
	assert.Contains(t, tree, "a.jsx")
	assert.Contains(t, tree, "b.js")
	assert.Equal(t, "PNG", tree["c.png"])
	assert.NotContains(t, tree, "a.js")
}

func TestTransformCmd_NoClassifyAndClean(t *testing.T) {
	isolate(t)
	tsc := fakeTSC(t)

	pkg := t.TempDir()
	src := filepath.Join(pkg, "src")
	dist := filepath.Join(pkg, "out")
	testutil.WriteFile(t, src, "a.tsx", "export const n = 1;\n")
	testutil.WriteFile(t, dist, "stale.js", "old")

	_, _, err := execute(t, "transform", "--src", src, "--dist", dist, "--clean", "--no-classify", "--tsc", tsc)
	require.NoError(t, err)

	tree := testutil.ReadTree(t, dist)
	assert.Contains(t, tree, "a.jsx")
	assert.NotContains(t, tree, "stale.js")
}

func TestTransformCmd_MissingSource(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "transform", "--src", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitGeneralError, ExitCodeFromError(err))
	assert.ErrorIs(t, err, oerrors.ErrMissingSource)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.True(t, exitErr.Printed)
}

func TestTransformCmd_FailureRollsBack(t *testing.T) {
	isolate(t)
	tsc := fakeTSC(t)

	pkg := t.TempDir()
	src := filepath.Join(pkg, "src")
	testutil.WriteFile(t, src, "ok.ts", "export const ok = 1;\n")
	testutil.WriteFile(t, src, "bad.ts", "export const = ;\n")

	_, _, err := execute(t, "transform", "--src", src, "--tsc", tsc)
	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrCodeTransform)
	assert.NoDirExists(t, filepath.Join(pkg, "dist"))
}

func TestTransformCmd_InvalidBabelConfig(t *testing.T) {
	isolate(t)

	src := filepath.Join(t.TempDir(), "src")
	testutil.WriteFile(t, src, "a.ts", "export {}\n")
	cfgFile := filepath.Join(t.TempDir(), "babel.json")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`{"jsx": "sideways"}`), 0o644))

	_, _, err := execute(t, "transform", "--src", src, "--babelConfig", cfgFile)
	require.Error(t, err)
	assert.Equal(t, ExitValidationError, ExitCodeFromError(err))
}

func TestTransformCmd_Version(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, "transform", "--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "tsxform")
}

func TestRenameCmd(t *testing.T) {
	isolate(t)

	dir := t.TempDir()
	testutil.WriteFile(t, dir, "view.js", "export const v = <p>x</p>;\n")
	testutil.WriteFile(t, dir, "util.js", "export const u = 1;\n")
	testutil.WriteFile(t, dir, "types.d.ts", "export declare const u: number;\n")

	_, _, err := execute(t, "rename-to-jsx", "--src", dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"types.d.ts", "util.js", "view.jsx"}, testutil.Paths(testutil.ReadTree(t, dir)))
}

func TestRenameCmd_RequiresSrc(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "rename-to-jsx")
	require.Error(t, err)
	assert.Equal(t, ExitValidationError, ExitCodeFromError(err))
}

func TestRenameCmd_StrictClassify(t *testing.T) {
	isolate(t)

	dir := t.TempDir()
	testutil.WriteFile(t, dir, "broken.js", "export const = ;\n")

	_, _, err := execute(t, "rename-to-jsx", "--src", dir)
	require.NoError(t, err, "lenient by default")

	_, _, err = execute(t, "rename-to-jsx", "--src", dir, "--strict-classify")
	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrClassifyParse)
}

func TestVersionCmd(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "tsxform:")
	assert.Contains(t, stdout, "esbuild:")
	assert.Contains(t, stdout, "tsc:")
}

func TestInvalidConfigFile(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, ".tsxform", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("watch:\n  debounce: soon\n"), 0o644))

	_, _, err := execute(t, "version")
	require.Error(t, err)
	assert.Equal(t, ExitValidationError, ExitCodeFromError(err))
}

func TestInvalidEnvValue(t *testing.T) {
	isolate(t)
	t.Setenv(config.EnvDebounce, "soon")

	_, _, err := execute(t, "version")
	require.Error(t, err)
	assert.Equal(t, ExitValidationError, ExitCodeFromError(err))
}

func TestSkipConfigCheck(t *testing.T) {
	root := NewRootCmd()
	vet, _, err := root.Find([]string{"config", "vet"})
	require.NoError(t, err)
	assert.True(t, skipConfigCheck(vet))

	transform, _, err := root.Find([]string{"transform"})
	require.NoError(t, err)
	assert.False(t, skipConfigCheck(transform))
	assert.False(t, skipConfigCheck(&cobra.Command{}))
}

func TestExitCodeName(t *testing.T) {
	assert.Equal(t, "Success", ExitCodeName(ExitSuccess))
	assert.Equal(t, "General Error", ExitCodeName(ExitGeneralError))
	assert.Equal(t, "Validation Error", ExitCodeName(ExitValidationError))
	assert.Equal(t, "Unknown", ExitCodeName(99))
}

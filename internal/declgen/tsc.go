package declgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	oerrors "github.com/tsxform/cli/internal/errors"
	"github.com/tsxform/cli/internal/output"
)

// TSCEngine emits declarations by running the TypeScript compiler.
type TSCEngine struct {
	// Path is the compiler binary. If empty, the package's
	// node_modules/.bin/tsc is tried, then "tsc" from PATH.
	Path string

	Log *log.Logger
}

// NewTSCEngine creates an engine using the given binary path (may be empty).
func NewTSCEngine(path string) *TSCEngine {
	return &TSCEngine{Path: path}
}

// Emit implements Engine. A temporary config listing files, rooted at the
// source directory, is written into the package root and removed afterwards.
// Project and explicit configs are extended by it rather than used directly.
func (e *TSCEngine) Emit(ctx context.Context, files []string, cfg Config) ([]Diagnostic, error) {
	logger := e.Log
	if logger == nil {
		logger = output.Logger()
	}

	bin, err := e.binary(cfg.PackageRoot)
	if err != nil {
		return nil, err
	}

	project, err := writeTempConfig(cfg, files)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rmErr := os.Remove(project); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logger.Warn("removing temporary declaration config", "path", project, "err", rmErr)
		}
	}()

	logger.Debug("emitting declarations", "tsc", bin, "project", project, "extends", cfg.Path, "source", cfg.Source, "files", len(files))

	args := []string{
		"--project", project,
		"--declaration",
		"--emitDeclarationOnly",
		"--outDir", cfg.OutDir,
		"--pretty", "false",
	}
	return e.run(ctx, bin, cfg.PackageRoot, args...)
}

// run executes tsc and turns its output into diagnostics. A non-zero exit
// with no recognisable diagnostics is an execution failure.
func (e *TSCEngine) run(ctx context.Context, bin, dir string, args ...string) ([]Diagnostic, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	diags := ParseDiagnostics(stdout.String() + "\n" + stderr.String())

	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if len(diags) > 0 {
			return diags, nil
		}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return nil, fmt.Errorf("tsc %s failed with exit code %d: %s",
				strings.Join(args, " "), exitErr.ExitCode(), strings.TrimSpace(stderr.String()+stdout.String()))
		}
		return nil, fmt.Errorf("tsc %s: %w", strings.Join(args, " "), runErr)
	}

	return diags, nil
}

// binary resolves the compiler to run.
func (e *TSCEngine) binary(packageRoot string) (string, error) {
	if e.Path != "" {
		return e.Path, nil
	}
	local := filepath.Join(packageRoot, "node_modules", ".bin", "tsc")
	if info, err := os.Stat(local); err == nil && !info.IsDir() {
		return local, nil
	}
	path, err := exec.LookPath("tsc")
	if err != nil {
		return "", oerrors.NewNotFoundError(
			"TypeScript compiler (tsc) not found",
			packageRoot,
			"Install typescript in the package or set engines.tsc in the config file.",
		)
	}
	return path, nil
}

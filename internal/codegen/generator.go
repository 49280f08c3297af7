package codegen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/tsxform/cli/internal/output"
	"github.com/tsxform/cli/internal/scan"
)

// TargetExt maps a source extension to its output extension. Markup-capable
// sources map to plain ".js" when a classify pass follows (it promotes files
// that really contain markup); otherwise they keep a markup extension.
func TargetExt(ext string, classify bool) string {
	switch strings.ToLower(ext) {
	case ".tsx":
		if classify {
			return ".js"
		}
		return ".jsx"
	case ".ts":
		return ".js"
	default:
		return ext
	}
}

// OutputPath returns the output relative path for a source relative path.
func OutputPath(rel string, classify bool) string {
	ext := filepath.Ext(rel)
	return strings.TrimSuffix(rel, ext) + TargetExt(ext, classify)
}

// Generator runs the code generation pass over a scanned tree.
type Generator struct {
	Engine  Engine
	Options Options

	// Classify selects the extension table; see TargetExt.
	Classify bool

	// Concurrency bounds parallel per-file work. Zero means GOMAXPROCS.
	Concurrency int

	Log *log.Logger
}

// Report lists what the pass wrote, as output-relative paths.
type Report struct {
	Written []string
	Copied  []string
}

// Generate writes the transformed tree below outRoot. Per-file failures do
// not stop sibling files; all of them are returned joined.
func (g *Generator) Generate(ctx context.Context, tree *scan.SourceTree, outRoot string) (*Report, error) {
	logger := g.Log
	if logger == nil {
		logger = output.Logger()
	}

	if err := os.MkdirAll(outRoot, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	for _, dir := range tree.Directories() {
		if err := os.MkdirAll(filepath.Join(outRoot, dir), 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}

	limit := g.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	var (
		mu     sync.Mutex
		report Report
		errs   []error
	)
	record := func(written, copied string, err error) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err != nil:
			errs = append(errs, err)
		case written != "":
			report.Written = append(report.Written, written)
		case copied != "":
			report.Copied = append(report.Copied, copied)
		}
	}

	var eg errgroup.Group
	eg.SetLimit(limit)

	for _, entry := range tree.Entries {
		if entry.Kind == scan.KindDirectory {
			continue
		}
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				record("", "", err)
				return nil
			}
			src := tree.AbsPath(entry.RelPath)

			if entry.Kind == scan.KindAsset || scan.IsDeclaration(entry.RelPath) {
				err := copyFile(src, filepath.Join(outRoot, entry.RelPath))
				if err != nil {
					err = &FileError{Op: "copy", Path: src, Err: err}
				}
				record("", entry.RelPath, err)
				return nil
			}

			rel := OutputPath(entry.RelPath, g.Classify)
			err := g.transformFile(ctx, src, filepath.Join(outRoot, rel))
			if err == nil {
				logger.Debug("transformed", "src", entry.RelPath, "out", rel)
			}
			record(rel, "", err)
			return nil
		})
	}
	_ = eg.Wait()

	sort.Strings(report.Written)
	sort.Strings(report.Copied)

	if len(errs) > 0 {
		return &report, errors.Join(errs...)
	}
	return &report, nil
}

func (g *Generator) transformFile(ctx context.Context, src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return &FileError{Op: "read", Path: src, Err: err}
	}

	code, err := g.Engine.Transform(ctx, data, src, g.Options)
	if err != nil {
		var fe *FileError
		if errors.As(err, &fe) {
			return fe
		}
		return &FileError{Op: "transform", Path: src, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return &FileError{Op: "write", Path: src, Err: err}
	}
	if err := os.WriteFile(dst, code, 0o644); err != nil {
		return &FileError{Op: "write", Path: src, Err: err}
	}
	return nil
}

// copyFile copies src to dst byte for byte, keeping the permission bits.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Package classify finds files whose extension hides markup and renames them
// to the markup-capable extension (.js to .jsx, .ts to .tsx).
package classify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/tsxform/cli/internal/output"
	"github.com/tsxform/cli/internal/scan"
)

// ClassifiableExtensions are the extensions the classifier inspects.
var ClassifiableExtensions = []string{".js", ".ts"}

var renames = map[string]string{
	".js": ".jsx",
	".ts": ".tsx",
}

// RenameTarget returns the markup-capable path for path, or "" when path is
// not classifiable.
func RenameTarget(path string) string {
	ext := filepath.Ext(path)
	to, ok := renames[strings.ToLower(ext)]
	if !ok {
		return ""
	}
	return strings.TrimSuffix(path, ext) + to
}

// Rename is one file moved by the classifier, as root-relative paths.
type Rename struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Report summarises a classify pass.
type Report struct {
	// Scanned counts the files handed to the parser.
	Scanned int

	Renamed []Rename

	// Skipped lists files that failed to parse in lenient mode.
	Skipped []ParseError
}

// CollisionError reports a rename whose target already exists.
type CollisionError struct {
	From, To string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("cannot rename %s: %s already exists", e.From, e.To)
}

// Classifier walks a tree and renames every classifiable file that contains
// markup.
type Classifier struct {
	Parser Parser

	// Strict turns parse failures into a pass failure. All files are still
	// visited first.
	Strict bool

	Log *log.Logger
}

// New returns a Classifier using the esbuild parser.
func New(strict bool, logger *log.Logger) *Classifier {
	return &Classifier{Parser: NewESBuildParser(), Strict: strict, Log: logger}
}

// Classify walks root and renames markup files in place.
func (c *Classifier) Classify(ctx context.Context, root string) (*Report, error) {
	logger := c.Log
	if logger == nil {
		logger = output.Logger()
	}

	tree, err := scan.Scan(root, scan.WithSourceExtensions(ClassifiableExtensions...))
	if err != nil {
		return nil, err
	}

	report := &Report{}
	var errs []error

	for _, rel := range tree.SourceFiles() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if scan.IsDeclaration(rel) {
			continue
		}

		abs := tree.AbsPath(rel)
		src, err := os.ReadFile(abs)
		if err != nil {
			errs = append(errs, fmt.Errorf("reading %s: %w", rel, err))
			continue
		}

		report.Scanned++
		parsed, err := c.Parser.Parse(abs, src)
		if err != nil {
			var pe *ParseError
			if !errors.As(err, &pe) {
				pe = &ParseError{Path: abs, Err: err}
			}
			if c.Strict {
				errs = append(errs, pe)
			} else {
				logger.Warn("skipping unparseable file", "path", rel, "err", pe.Err)
				report.Skipped = append(report.Skipped, *pe)
			}
			continue
		}
		if !parsed.ContainsMarkup() {
			continue
		}

		to := RenameTarget(rel)
		if err := renameNoClobber(abs, tree.AbsPath(to)); err != nil {
			if errors.Is(err, os.ErrExist) {
				err = &CollisionError{From: rel, To: to}
			}
			errs = append(errs, err)
			continue
		}
		logger.Debug("renamed", "from", rel, "to", to)
		report.Renamed = append(report.Renamed, Rename{From: rel, To: to})
	}

	if len(errs) > 0 {
		return report, errors.Join(errs...)
	}
	return report, nil
}

// renameNoClobber renames from to to, failing with os.ErrExist when to is
// already present.
func renameNoClobber(from, to string) error {
	if _, err := os.Lstat(to); err == nil {
		return os.ErrExist
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return os.Rename(from, to)
}

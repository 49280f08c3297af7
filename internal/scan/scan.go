// Package scan enumerates a source tree and classifies every entry as a
// directory, a transformable source file or an asset.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	oerrors "github.com/tsxform/cli/internal/errors"
)

// DefaultMaxDepth bounds how deep the scanner descends below the root.
const DefaultMaxDepth = 64

// SourceExtensions is the fixed set of transformable source extensions.
var SourceExtensions = []string{".ts", ".tsx"}

// Kind classifies a FileEntry.
type Kind int

const (
	// KindDirectory is a directory (mirrored, never transformed).
	KindDirectory Kind = iota
	// KindSource is a file whose extension is in the source set.
	KindSource
	// KindAsset is any other file; copied verbatim.
	KindAsset
)

// String returns a lowercase name for the kind.
func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindSource:
		return "source"
	case KindAsset:
		return "asset"
	default:
		return "unknown"
	}
}

// FileEntry is one entry of a SourceTree, relative to the tree root.
type FileEntry struct {
	RelPath string
	Kind    Kind
}

// SourceTree is the inventory of a directory built by Scan.
// Entries are sorted by RelPath.
type SourceTree struct {
	Root    string
	Entries []FileEntry
}

// AbsPath joins rel onto the tree root.
func (t *SourceTree) AbsPath(rel string) string {
	return filepath.Join(t.Root, rel)
}

// SourceFiles returns the relative paths of all source entries.
func (t *SourceTree) SourceFiles() []string {
	return t.filter(KindSource)
}

// Assets returns the relative paths of all asset entries.
func (t *SourceTree) Assets() []string {
	return t.filter(KindAsset)
}

// Directories returns the relative paths of all directory entries.
func (t *SourceTree) Directories() []string {
	return t.filter(KindDirectory)
}

func (t *SourceTree) filter(kind Kind) []string {
	var out []string
	for _, e := range t.Entries {
		if e.Kind == kind {
			out = append(out, e.RelPath)
		}
	}
	return out
}

// IOError reports a directory that could not be listed or an entry that
// disappeared while the tree was being walked.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("scan: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *IOError) Unwrap() []error {
	return []error{oerrors.ErrScanIO, e.Err}
}

// Option configures Scan.
type Option func(*options)

type options struct {
	maxDepth   int
	extensions map[string]bool
	exclude    []string
}

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

// WithSourceExtensions replaces the source extension set. The classifier
// uses this to select its own classifiable files.
func WithSourceExtensions(exts ...string) Option {
	return func(o *options) {
		o.extensions = extensionSet(exts)
	}
}

// WithExclude skips the given absolute paths and everything below them.
func WithExclude(paths ...string) Option {
	return func(o *options) {
		for _, p := range paths {
			if p != "" {
				o.exclude = append(o.exclude, filepath.Clean(p))
			}
		}
	}
}

type pending struct {
	rel   string
	depth int
}

// Scan walks root and returns its inventory. Directories are visited with an
// explicit worklist so stack depth does not grow with the tree.
func Scan(root string, opts ...Option) (*SourceTree, error) {
	o := options{
		maxDepth:   DefaultMaxDepth,
		extensions: extensionSet(SourceExtensions),
	}
	for _, opt := range opts {
		opt(&o)
	}

	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, &IOError{Op: "stat", Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &IOError{Op: "stat", Path: root, Err: fmt.Errorf("not a directory")}
	}

	tree := &SourceTree{Root: root}
	stack := []pending{{rel: "", depth: 0}}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		dir := filepath.Join(root, cur.rel)
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, &IOError{Op: "readdir", Path: dir, Err: err}
		}

		for _, de := range entries {
			rel := filepath.Join(cur.rel, de.Name())
			abs := filepath.Join(root, rel)
			if o.excluded(abs) {
				continue
			}

			isDir := de.IsDir()
			if de.Type()&os.ModeSymlink != 0 {
				target, err := os.Stat(abs)
				if err != nil {
					return nil, &IOError{Op: "stat", Path: abs, Err: err}
				}
				isDir = target.IsDir()
			}

			if isDir {
				if cur.depth+1 > o.maxDepth {
					return nil, &IOError{Op: "descend", Path: abs, Err: fmt.Errorf("maximum depth %d exceeded", o.maxDepth)}
				}
				tree.Entries = append(tree.Entries, FileEntry{RelPath: rel, Kind: KindDirectory})
				stack = append(stack, pending{rel: rel, depth: cur.depth + 1})
				continue
			}

			kind := KindAsset
			if o.extensions[extOf(de.Name())] {
				kind = KindSource
			}
			tree.Entries = append(tree.Entries, FileEntry{RelPath: rel, Kind: kind})
		}
	}

	sort.Slice(tree.Entries, func(i, j int) bool { return tree.Entries[i].RelPath < tree.Entries[j].RelPath })
	return tree, nil
}

func (o *options) excluded(abs string) bool {
	for _, ex := range o.exclude {
		if abs == ex || strings.HasPrefix(abs, ex+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func extensionSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		set[strings.ToLower(e)] = true
	}
	return set
}

// extOf returns the lowercase extension of name.
func extOf(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// IsDeclaration reports whether rel is a type declaration input (foo.d.ts).
// These are inputs to the declaration pass and produce no code output.
func IsDeclaration(rel string) bool {
	lower := strings.ToLower(rel)
	return strings.HasSuffix(lower, ".d.ts") || strings.HasSuffix(lower, ".d.tsx")
}

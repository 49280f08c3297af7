package classify

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	oerrors "github.com/tsxform/cli/internal/errors"
)

// Tree is the parse result the classifier needs.
type Tree interface {
	ContainsMarkup() bool
}

// Parser parses one file into a Tree.
type Parser interface {
	Parse(path string, src []byte) (Tree, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(path string, src []byte) (Tree, error)

// Parse calls f.
func (f ParserFunc) Parse(path string, src []byte) (Tree, error) {
	return f(path, src)
}

// Markup is a Tree that is fully described by whether it contains markup.
type Markup bool

// ContainsMarkup implements Tree.
func (m Markup) ContainsMarkup() bool { return bool(m) }

// ParseError reports a file the parser could not handle.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.Path, e.Err)
}

// Unwrap exposes the cause and ErrClassifyParse.
func (e *ParseError) Unwrap() []error {
	return []error{oerrors.ErrClassifyParse, e.Err}
}

// ESBuildParser detects markup with esbuild's parser. Markup elements and
// fragments are only legal under the JSX and TSX loaders, so a file that
// the plain loader rejects but the markup loader accepts contains markup.
// Files the plain loader accepts have none, including angle-bracket type
// assertions, which only parse with markup disabled.
type ESBuildParser struct{}

// NewESBuildParser returns an esbuild-backed parser.
func NewESBuildParser() *ESBuildParser {
	return &ESBuildParser{}
}

// Parse implements Parser.
func (p *ESBuildParser) Parse(path string, src []byte) (Tree, error) {
	markupLoader, plainLoader, err := loaders(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	input := string(src)
	if transform(input, path, plainLoader) == nil {
		return Markup(false), nil
	}
	if err := transform(input, path, markupLoader); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return Markup(true), nil
}

// transform parses input with the given loader and reports the first error.
// Markup is preserved so in-file pragmas cannot change the outcome.
func transform(input, path string, loader api.Loader) error {
	result := api.Transform(input, api.TransformOptions{
		Loader:     loader,
		Sourcefile: path,
		Target:     api.ESNext,
		JSX:        api.JSXPreserve,
		LogLevel:   api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return messagesError(result.Errors)
	}
	return nil
}

func loaders(path string) (markup, plain api.Loader, err error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".jsx", ".mjs", ".cjs":
		return api.LoaderJSX, api.LoaderJS, nil
	case ".ts", ".tsx", ".mts", ".cts":
		return api.LoaderTSX, api.LoaderTS, nil
	default:
		return api.LoaderNone, api.LoaderNone, fmt.Errorf("unsupported extension %q", filepath.Ext(path))
	}
}

func messagesError(msgs []api.Message) error {
	m := msgs[0]
	if m.Location != nil {
		return fmt.Errorf("%d:%d: %s", m.Location.Line, m.Location.Column+1, m.Text)
	}
	return errors.New(m.Text)
}

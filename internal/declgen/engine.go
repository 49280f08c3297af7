// Package declgen runs the declaration pass: it resolves the declaration
// configuration of a run and asks a declaration engine to emit .d.ts files
// for every source file.
package declgen

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	oerrors "github.com/tsxform/cli/internal/errors"
)

// Engine emits declaration files for files according to cfg. Diagnostics
// are returned, not raised; the error result is reserved for failures to run
// the engine at all.
type Engine interface {
	Emit(ctx context.Context, files []string, cfg Config) ([]Diagnostic, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, files []string, cfg Config) ([]Diagnostic, error)

// Emit calls f.
func (f EngineFunc) Emit(ctx context.Context, files []string, cfg Config) ([]Diagnostic, error) {
	return f(ctx, files, cfg)
}

// Diagnostic is one message reported by the declaration engine.
type Diagnostic struct {
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
	Code     string `json:"code,omitempty"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

func (d Diagnostic) String() string {
	var b strings.Builder
	if d.File != "" {
		b.WriteString(d.File)
		if d.Line > 0 {
			fmt.Fprintf(&b, ":%d:%d", d.Line, d.Column)
		}
		b.WriteString(": ")
	}
	b.WriteString(d.Category)
	if d.Code != "" {
		b.WriteString(" ")
		b.WriteString(d.Code)
	}
	b.WriteString(": ")
	b.WriteString(d.Message)
	return b.String()
}

// EmitError reports a declaration pass that produced diagnostics.
type EmitError struct {
	Diagnostics []Diagnostic
}

func (e *EmitError) Error() string {
	switch len(e.Diagnostics) {
	case 0:
		return "declaration emit failed"
	case 1:
		return "declaration emit failed: " + e.Diagnostics[0].String()
	default:
		return fmt.Sprintf("declaration emit failed with %d diagnostics: %s",
			len(e.Diagnostics), e.Diagnostics[0].String())
	}
}

// Unwrap returns ErrDeclarationEmit.
func (e *EmitError) Unwrap() error {
	return oerrors.ErrDeclarationEmit
}

var (
	// src/a.ts(3,7): error TS2322: Type 'string' is not assignable to type 'number'.
	locatedDiagRegex = regexp.MustCompile(`^(.+)\((\d+),(\d+)\): (error|warning|message) (TS\d+): (.*)$`)

	// error TS5083: Cannot read file '/x/tsconfig.json'.
	globalDiagRegex = regexp.MustCompile(`^(error|warning|message) (TS\d+): (.*)$`)
)

// ParseDiagnostics extracts diagnostics from non-pretty tsc output.
// Continuation lines are appended to the preceding message.
func ParseDiagnostics(out string) []Diagnostic {
	var diags []Diagnostic
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if m := locatedDiagRegex.FindStringSubmatch(line); m != nil {
			ln, _ := strconv.Atoi(m[2])
			col, _ := strconv.Atoi(m[3])
			diags = append(diags, Diagnostic{
				File:     m[1],
				Line:     ln,
				Column:   col,
				Category: m[4],
				Code:     m[5],
				Message:  m[6],
			})
			continue
		}
		if m := globalDiagRegex.FindStringSubmatch(line); m != nil {
			diags = append(diags, Diagnostic{Category: m[1], Code: m[2], Message: m[3]})
			continue
		}
		if len(diags) > 0 && (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")) {
			last := &diags[len(diags)-1]
			last.Message += "\n" + strings.TrimSpace(line)
		}
	}
	return diags
}

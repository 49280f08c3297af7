package cmdutil

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tsxform/cli/internal/classify"
	"github.com/tsxform/cli/internal/codegen"
	"github.com/tsxform/cli/internal/declgen"
	oerrors "github.com/tsxform/cli/internal/errors"
	"github.com/tsxform/cli/internal/output"
	"github.com/tsxform/cli/internal/pipeline"
)

// PrintRunError prints a failed run: a summary line, then one line per leaf
// failure. Declaration diagnostics are rendered as a table on w.
func PrintRunError(logger *log.Logger, w io.Writer, msg string, err error) {
	logger.Error(output.FormatCross(msg))
	for _, leaf := range leafErrors(err) {
		var (
			emitErr   *declgen.EmitError
			fileErr   *codegen.FileError
			parseErr  *classify.ParseError
			collision *classify.CollisionError
			rollback  *pipeline.RollbackError
			detail    *oerrors.DetailError
		)
		switch {
		case errors.As(leaf, &emitErr):
			logger.Error("declaration emit failed", "diagnostics", len(emitErr.Diagnostics))
			if len(emitErr.Diagnostics) > 0 {
				fmt.Fprintln(w, DiagnosticsTable(emitErr.Diagnostics))
			}
		case errors.As(leaf, &fileErr):
			fields := []any{"op", fileErr.Op, "path", fileErr.Path}
			if fileErr.Line > 0 {
				fields = append(fields, "line", fileErr.Line, "column", fileErr.Column)
			}
			logger.Error(fileErr.Err.Error(), fields...)
		case errors.As(leaf, &parseErr):
			logger.Error("cannot parse for markup detection", "path", parseErr.Path, "err", parseErr.Err)
		case errors.As(leaf, &collision):
			logger.Error("rename target exists", "from", collision.From, "to", collision.To)
		case errors.As(leaf, &rollback):
			logger.Error("rollback failed, output left in place", "path", rollback.Path, "err", rollback.Err)
		case errors.As(leaf, &detail):
			fmt.Fprint(w, detail.Error())
		default:
			logger.Error(leaf.Error())
		}
	}
}

// leafErrors flattens errors.Join trees. Typed errors that unwrap to several
// causes are kept whole.
func leafErrors(err error) []error {
	if err == nil {
		return nil
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok || isTyped(err) {
		return []error{err}
	}
	var out []error
	for _, e := range joined.Unwrap() {
		out = append(out, leafErrors(e)...)
	}
	return out
}

func isTyped(err error) bool {
	switch err.(type) {
	case *codegen.FileError, *classify.ParseError, *pipeline.RollbackError:
		return true
	}
	return false
}

// DiagnosticsTable renders declaration diagnostics as a table.
func DiagnosticsTable(diags []declgen.Diagnostic) string {
	t := output.NewTable("FILE", "LINE", "CODE", "MESSAGE")
	for _, d := range diags {
		line := ""
		if d.Line > 0 {
			line = strconv.Itoa(d.Line) + ":" + strconv.Itoa(d.Column)
		}
		file := d.File
		if file == "" {
			file = "-"
		}
		t.Row(file, line, d.Code, d.Message)
	}
	return t.String()
}

// PrintResult prints the summary of a successful run. With verbose, the
// output tree is written to w with every file annotated by how it got there.
func PrintResult(logger *log.Logger, w io.Writer, msg string, result *pipeline.Result, verbose bool) {
	logger.Info(output.FormatCheckmark(msg),
		"written", len(result.Written),
		"copied", len(result.Copied),
		"declarations", len(result.Declarations),
		"renamed", len(result.Renamed),
		"duration", result.Duration.Round(time.Millisecond),
	)
	for _, r := range result.Renamed {
		logger.Info(output.FormatRename(r.From, r.To))
	}
	if verbose {
		fmt.Fprint(w, OutputTree(result))
	}
}

// OutputTree renders the files a run produced below its output root.
func OutputTree(result *pipeline.Result) string {
	files := make(map[string]string, len(result.Written)+len(result.Copied)+len(result.Declarations))
	for _, f := range result.Written {
		files[f] = "transformed"
	}
	for _, r := range result.Renamed {
		files[r.To] = "transformed, renamed from " + filepath.Base(r.From)
	}
	for _, f := range result.Copied {
		files[f] = "copied"
	}
	for _, f := range result.Declarations {
		files[f] = "declaration"
	}

	root := "dist"
	if result.Run != nil {
		root = filepath.Base(result.Run.Key.OutRoot)
	}
	return output.RenderFileTree(root, files)
}

// PrintRenameReport prints the summary of a rename-to-jsx pass.
func PrintRenameReport(logger *log.Logger, msg string, report *classify.Report) {
	logger.Info(output.FormatCheckmark(msg),
		"scanned", report.Scanned,
		"renamed", len(report.Renamed),
		"skipped", len(report.Skipped),
	)
	for _, r := range report.Renamed {
		logger.Info(output.FormatRename(r.From, r.To))
	}
}

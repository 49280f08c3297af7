// Package pipeline runs one transformation of a source tree into an output
// tree: scan, code and declaration generation in parallel, an optional
// classify pass, and rollback of the output when any step fails.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/tsxform/cli/internal/classify"
	"github.com/tsxform/cli/internal/codegen"
	"github.com/tsxform/cli/internal/declgen"
	oerrors "github.com/tsxform/cli/internal/errors"
	"github.com/tsxform/cli/internal/output"
	"github.com/tsxform/cli/internal/scan"
)

// Pipeline holds the engines shared by all runs and the registry of active
// runs. It is safe for concurrent use.
type Pipeline struct {
	code   codegen.Engine
	decl   declgen.Engine
	parser classify.Parser

	mu     sync.Mutex
	active map[Key]struct{}
}

// New creates a Pipeline. A nil parser selects the esbuild parser.
func New(code codegen.Engine, decl declgen.Engine, parser classify.Parser) *Pipeline {
	if parser == nil {
		parser = classify.NewESBuildParser()
	}
	return &Pipeline{
		code:   code,
		decl:   decl,
		parser: parser,
		active: make(map[Key]struct{}),
	}
}

// DefaultOut returns the output directory used when none is given: "dist"
// next to src.
func DefaultOut(src string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(src)), "dist")
}

// Clean removes the output directory of opts. A missing directory is not an
// error. The directories are checked the same way Run checks them, so Clean
// never removes the sources.
func Clean(opts RunOptions) error {
	key, err := resolveKey(opts)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(key.OutRoot); err != nil {
		return fmt.Errorf("cleaning %s: %w", key.OutRoot, err)
	}
	return nil
}

// Run executes the pipeline once.
//
// Phase sequence:
//  1. SCANNING:    scan.Scan(src) → *scan.SourceTree; declaration config resolved
//  2. GENERATING:  codegen.Generator ∥ declgen.Engine, joined before moving on
//  3. CLASSIFYING: classify.Classifier over the output tree (when enabled)
//
// Any failure removes the output directory. The returned Result is non-nil
// whenever a run was started, including failed runs; its Run records the
// outcome.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	key, err := resolveKey(opts)
	if err != nil {
		return nil, err
	}

	if !p.acquire(key) {
		return nil, fmt.Errorf("%w: %s", ErrRunActive, key.SrcRoot)
	}
	defer p.release(key)

	base := opts.Log
	if base == nil {
		base = output.Logger()
	}

	run := &Run{
		ID:        uuid.New(),
		Key:       key,
		Phase:     PhaseIdle,
		StartedAt: time.Now(),
	}
	r := &runner{
		pipeline: p,
		opts:     opts,
		run:      run,
		log:      output.RunLogger(base, run.ID.String()),
	}

	result, err := r.execute(ctx)
	run.FinishedAt = time.Now()
	result.Run = run
	result.Duration = run.FinishedAt.Sub(run.StartedAt)

	if err != nil {
		failedIn := run.Phase
		r.transition(PhaseFailed)
		run.Status = StatusFailed
		if failedIn == PhaseGenerating || failedIn == PhaseClassifying {
			err = r.rollback(err)
		}
		r.log.Debug("run failed", "duration", result.Duration, "err", err)
		return result, err
	}

	r.transition(PhaseSucceeded)
	run.Status = StatusSucceeded
	r.log.Debug("run succeeded",
		"duration", result.Duration,
		"written", len(result.Written),
		"copied", len(result.Copied),
		"declarations", len(result.Declarations),
		"renamed", len(result.Renamed),
	)
	return result, nil
}

// resolveKey validates the source directory and resolves absolute roots.
func resolveKey(opts RunOptions) (Key, error) {
	if opts.Src == "" {
		return Key{}, oerrors.NewMissingSourceError(opts.Src)
	}
	src, err := filepath.Abs(opts.Src)
	if err != nil {
		return Key{}, fmt.Errorf("resolving source directory: %w", err)
	}
	info, err := os.Stat(src)
	if err != nil || !info.IsDir() {
		return Key{}, oerrors.NewMissingSourceError(opts.Src)
	}

	out := opts.Out
	if out == "" {
		out = DefaultOut(src)
	}
	out, err = filepath.Abs(out)
	if err != nil {
		return Key{}, fmt.Errorf("resolving output directory: %w", err)
	}
	// Rollback removes out, so it must never contain the sources.
	if out == src || strings.HasPrefix(src, out+string(filepath.Separator)) {
		return Key{}, oerrors.NewOutputConflictError(src, out)
	}
	return Key{SrcRoot: src, OutRoot: out}, nil
}

func (p *Pipeline) acquire(key Key) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, busy := p.active[key]; busy {
		return false
	}
	p.active[key] = struct{}{}
	return true
}

func (p *Pipeline) release(key Key) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.active, key)
}

// runner carries the state of one run through its phases.
type runner struct {
	pipeline *Pipeline
	opts     RunOptions
	run      *Run
	log      *log.Logger
}

func (r *runner) transition(to Phase) {
	r.log.Debug("phase", "from", r.run.Phase, "to", to)
	r.run.Phase = to
}

func (r *runner) execute(ctx context.Context) (*Result, error) {
	result := &Result{}
	src, out := r.run.Key.SrcRoot, r.run.Key.OutRoot

	// Phase 1: SCANNING. The output directory is excluded in case it lives
	// below the source directory.
	r.transition(PhaseScanning)
	tree, err := scan.Scan(src, scan.WithExclude(out))
	if err != nil {
		return result, err
	}
	declCfg, err := declgen.Resolve(src, out, r.opts.TSConfig)
	if err != nil {
		return result, err
	}
	r.log.Debug("scanned",
		"sources", len(tree.SourceFiles()),
		"assets", len(tree.Assets()),
		"declarationConfig", declCfg.Source,
	)

	if err := ctx.Err(); err != nil {
		return result, err
	}

	// Phase 2: GENERATING. Both passes finish before the run moves on.
	r.transition(PhaseGenerating)
	codeReport, diags, err := r.generate(ctx, tree, declCfg)
	r.run.Diagnostics = diags
	if codeReport != nil {
		result.Written = codeReport.Written
		result.Copied = codeReport.Copied
	}
	if err != nil {
		return result, err
	}

	// Phase 3: CLASSIFYING
	if r.opts.Classify {
		r.transition(PhaseClassifying)
		c := &classify.Classifier{
			Parser: r.pipeline.parser,
			Strict: r.opts.StrictClassify,
			Log:    r.log,
		}
		report, err := c.Classify(ctx, out)
		if report != nil {
			result.Renamed = report.Renamed
			result.Written = applyRenames(result.Written, report.Renamed)
		}
		if err != nil {
			return result, err
		}
	}

	result.Declarations, err = declarations(out, result.Copied)
	if err != nil {
		return result, err
	}
	return result, nil
}

// generate runs code and declaration generation concurrently and joins their
// failures.
func (r *runner) generate(ctx context.Context, tree *scan.SourceTree, declCfg declgen.Config) (*codegen.Report, []declgen.Diagnostic, error) {
	codeOpts := codegen.DefaultOptions()
	if r.opts.CodeOptions != nil {
		codeOpts = *r.opts.CodeOptions
	}
	gen := &codegen.Generator{
		Engine:      withCodeTimeout(r.pipeline.code, r.opts.EngineTimeout),
		Options:     codeOpts,
		Classify:    r.opts.Classify,
		Concurrency: r.opts.Concurrency,
		Log:         r.log,
	}
	decl := withDeclTimeout(r.pipeline.decl, r.opts.EngineTimeout)

	files := make([]string, 0, len(tree.SourceFiles()))
	for _, rel := range tree.SourceFiles() {
		files = append(files, tree.AbsPath(rel))
	}

	var (
		wg         sync.WaitGroup
		codeReport *codegen.Report
		codeErr    error
		diags      []declgen.Diagnostic
		declErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		codeReport, codeErr = gen.Generate(ctx, tree, r.run.Key.OutRoot)
	}()
	go func() {
		defer wg.Done()
		if len(files) == 0 {
			return
		}
		diags, declErr = decl.Emit(ctx, files, declCfg)
		if declErr == nil && len(diags) > 0 {
			declErr = &declgen.EmitError{Diagnostics: diags}
		}
	}()
	wg.Wait()

	for _, d := range diags {
		r.log.Debug("declaration diagnostic", "diagnostic", d.String())
	}
	return codeReport, diags, errors.Join(codeErr, declErr)
}

// rollback removes the output directory after a failure and joins any
// removal error with the cause.
func (r *runner) rollback(cause error) error {
	out := r.run.Key.OutRoot
	if err := os.RemoveAll(out); err != nil {
		r.log.Error("rollback failed, output left in place", "path", out, "err", err)
		return errors.Join(cause, &RollbackError{Path: out, Err: err})
	}
	r.log.Debug("rolled back", "path", out)
	return cause
}

// applyRenames maps written paths through the classifier's renames.
func applyRenames(written []string, renamed []classify.Rename) []string {
	if len(renamed) == 0 {
		return written
	}
	to := make(map[string]string, len(renamed))
	for _, rn := range renamed {
		to[rn.From] = rn.To
	}
	out := make([]string, len(written))
	for i, w := range written {
		if dst, ok := to[w]; ok {
			w = dst
		}
		out[i] = w
	}
	sort.Strings(out)
	return out
}

// declarations lists the generated declaration files below out, leaving out
// declaration inputs that were copied from the source tree.
func declarations(out string, copied []string) ([]string, error) {
	skip := make(map[string]bool, len(copied))
	for _, c := range copied {
		skip[c] = true
	}

	tree, err := scan.Scan(out, scan.WithSourceExtensions(".ts"))
	if err != nil {
		return nil, err
	}
	var decls []string
	for _, rel := range tree.SourceFiles() {
		if scan.IsDeclaration(rel) && !skip[rel] {
			decls = append(decls, rel)
		}
	}
	return decls, nil
}

func withCodeTimeout(engine codegen.Engine, timeout time.Duration) codegen.Engine {
	if timeout <= 0 {
		return engine
	}
	return codegen.EngineFunc(func(ctx context.Context, src []byte, path string, opts codegen.Options) ([]byte, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return engine.Transform(ctx, src, path, opts)
	})
}

func withDeclTimeout(engine declgen.Engine, timeout time.Duration) declgen.Engine {
	if timeout <= 0 {
		return engine
	}
	return declgen.EngineFunc(func(ctx context.Context, files []string, cfg declgen.Config) ([]declgen.Diagnostic, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return engine.Emit(ctx, files, cfg)
	})
}

package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsxform/cli/internal/classify"
	"github.com/tsxform/cli/internal/codegen"
	"github.com/tsxform/cli/internal/declgen"
	oerrors "github.com/tsxform/cli/internal/errors"
	"github.com/tsxform/cli/internal/output"
	"github.com/tsxform/cli/internal/scan"
	"github.com/tsxform/cli/internal/testutil"
)

// fakeDecl writes an empty declaration file for every source file and
// reports diags.
func fakeDecl(diags ...declgen.Diagnostic) declgen.Engine {
	return declgen.EngineFunc(func(_ context.Context, files []string, cfg declgen.Config) ([]declgen.Diagnostic, error) {
		for _, f := range files {
			if scan.IsDeclaration(f) {
				continue
			}
			rel, err := filepath.Rel(cfg.SrcRoot, f)
			if err != nil {
				return nil, err
			}
			dst := filepath.Join(cfg.OutDir, strings.TrimSuffix(rel, filepath.Ext(rel))+".d.ts")
			if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
				return nil, err
			}
			if err := os.WriteFile(dst, []byte("export {};\n"), 0o644); err != nil {
				return nil, err
			}
		}
		return diags, nil
	})
}

// copyEngine returns sources unchanged.
var copyEngine = codegen.EngineFunc(func(_ context.Context, src []byte, _ string, _ codegen.Options) ([]byte, error) {
	return src, nil
})

// newPackage creates <tmp>/src and returns the package root and source dir.
func newPackage(t *testing.T) (pkg, src string) {
	t.Helper()
	pkg = t.TempDir()
	src = filepath.Join(pkg, "src")
	require.NoError(t, os.Mkdir(src, 0o755))
	return pkg, src
}

func TestRun_ConcreteScenario(t *testing.T) {
	pkg, src := newPackage(t)
	testutil.WriteFile(t, src, "a.tsx", "export const A = (p: { n: string }) => <div>{p.n}</div>;\n")
	testutil.WriteFile(t, src, "b.ts", "export const b: number = 1;\n")
	testutil.WriteFile(t, src, "c.png", "\x89PNG")

	p := New(codegen.NewESBuildEngine(), fakeDecl(), nil)
	result, err := p.Run(context.Background(), RunOptions{
		Src:      src,
		Classify: true,
		Log:      output.Discard(),
	})
	require.NoError(t, err)

	out := filepath.Join(pkg, "dist")
	files := testutil.ReadTree(t, out)
	assert.Equal(t, []string{"a.d.ts", "a.jsx", "b.d.ts", "b.js", "c.png"}, testutil.Paths(files))
	assert.Contains(t, files["a.jsx"], "<div>")
	assert.Contains(t, files["b.js"], "export const b = 1;")
	assert.Equal(t, "\x89PNG", files["c.png"])

	assert.Equal(t, StatusSucceeded, result.Run.Status)
	assert.Equal(t, PhaseSucceeded, result.Run.Phase)
	assert.Equal(t, []string{"a.jsx", "b.js"}, result.Written)
	assert.Equal(t, []string{"c.png"}, result.Copied)
	assert.Equal(t, []string{"a.d.ts", "b.d.ts"}, result.Declarations)
	assert.Equal(t, []classify.Rename{{From: "a.js", To: "a.jsx"}}, result.Renamed)
	assert.False(t, result.Run.FinishedAt.Before(result.Run.StartedAt))
}

func TestRun_MirrorsTreeWithoutClassify(t *testing.T) {
	pkg, src := newPackage(t)
	testutil.WriteFile(t, src, "x/y/z.ts", "z")
	testutil.WriteFile(t, src, "x/view.tsx", "v")
	testutil.WriteFile(t, src, "x/types.d.ts", "declare const t: 1;")
	testutil.WriteFile(t, src, "assets/logo.svg", "<svg/>")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "empty", "nested"), 0o755))

	out := filepath.Join(pkg, "build")
	_, err := New(copyEngine, fakeDecl(), nil).Run(context.Background(), RunOptions{
		Src: src,
		Out: out,
		Log: output.Discard(),
	})
	require.NoError(t, err)

	srcTree, err := scan.Scan(src)
	require.NoError(t, err)
	for _, dir := range srcTree.Directories() {
		assert.DirExists(t, filepath.Join(out, dir))
	}

	assert.Equal(t, []string{
		"assets/logo.svg",
		"x/types.d.ts",
		"x/view.d.ts",
		"x/view.jsx",
		"x/y/z.d.ts",
		"x/y/z.js",
	}, testutil.Paths(testutil.ReadTree(t, out)))
}

func TestRun_DiagnosticsRollBack(t *testing.T) {
	pkg, src := newPackage(t)
	testutil.WriteFile(t, src, "a.ts", "export const a: number = 'x';")
	testutil.WriteFile(t, src, "logo.png", "png")

	diag := declgen.Diagnostic{File: "src/a.ts", Line: 1, Column: 14, Category: "error", Code: "TS2322", Message: "bad"}
	result, err := New(copyEngine, fakeDecl(diag), nil).Run(context.Background(), RunOptions{
		Src: src,
		Log: output.Discard(),
	})
	require.Error(t, err)

	assert.True(t, errors.Is(err, oerrors.ErrDeclarationEmit))
	assert.NoDirExists(t, filepath.Join(pkg, "dist"))
	require.NotNil(t, result)
	assert.Equal(t, StatusFailed, result.Run.Status)
	assert.Equal(t, PhaseFailed, result.Run.Phase)
	assert.Equal(t, []declgen.Diagnostic{diag}, result.Run.Diagnostics)
}

func TestRun_CodeFailureRollsBackAndWaitsForDeclarations(t *testing.T) {
	pkg, src := newPackage(t)
	testutil.WriteFile(t, src, "a.ts", "a")
	testutil.WriteFile(t, src, "b.ts", "b")

	failing := codegen.EngineFunc(func(_ context.Context, src []byte, path string, _ codegen.Options) ([]byte, error) {
		if strings.HasSuffix(path, "a.ts") {
			return nil, errors.New("unexpected token")
		}
		return src, nil
	})

	declDone := false
	decl := declgen.EngineFunc(func(ctx context.Context, files []string, cfg declgen.Config) ([]declgen.Diagnostic, error) {
		time.Sleep(50 * time.Millisecond)
		declDone = true
		return nil, nil
	})

	_, err := New(failing, decl, nil).Run(context.Background(), RunOptions{Src: src, Log: output.Discard()})
	require.Error(t, err)

	assert.True(t, declDone, "run must not finish before the declaration pass")
	assert.True(t, errors.Is(err, oerrors.ErrCodeTransform))
	assert.NoDirExists(t, filepath.Join(pkg, "dist"))
}

func TestRun_StrictClassifyFailureRollsBack(t *testing.T) {
	pkg, src := newPackage(t)
	testutil.WriteFile(t, src, "a.ts", "export const a = 1;")

	broken := classify.ParserFunc(func(path string, _ []byte) (classify.Tree, error) {
		return nil, errors.New("cannot parse")
	})

	_, err := New(copyEngine, fakeDecl(), broken).Run(context.Background(), RunOptions{
		Src:            src,
		Classify:       true,
		StrictClassify: true,
		Log:            output.Discard(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, oerrors.ErrClassifyParse))
	assert.NoDirExists(t, filepath.Join(pkg, "dist"))
}

func TestRun_IdempotentAfterClean(t *testing.T) {
	pkg, src := newPackage(t)
	testutil.WriteFile(t, src, "a.tsx", "export const A = () => <b />;\n")
	testutil.WriteFile(t, src, "lib/b.ts", "export const b = 2;\n")
	testutil.WriteFile(t, src, "lib/data.json", `{"k": 1}`)
	out := filepath.Join(pkg, "dist")

	p := New(codegen.NewESBuildEngine(), fakeDecl(), nil)
	opts := RunOptions{Src: src, Classify: true, Log: output.Discard()}

	_, err := p.Run(context.Background(), opts)
	require.NoError(t, err)
	first := testutil.ReadTree(t, out)

	require.NoError(t, Clean(opts))
	assert.NoDirExists(t, out)
	require.NoError(t, Clean(opts), "cleaning twice is not an error")

	_, err = p.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, first, testutil.ReadTree(t, out))
}

func TestRun_RejectsConcurrentRunForSameKey(t *testing.T) {
	_, src := newPackage(t)
	testutil.WriteFile(t, src, "a.ts", "a")

	started := make(chan struct{})
	unblock := make(chan struct{})
	var once sync.Once
	decl := declgen.EngineFunc(func(ctx context.Context, _ []string, _ declgen.Config) ([]declgen.Diagnostic, error) {
		once.Do(func() { close(started) })
		<-unblock
		return nil, nil
	})

	p := New(copyEngine, decl, nil)
	opts := RunOptions{Src: src, Log: output.Discard()}

	done := make(chan error, 1)
	go func() {
		_, err := p.Run(context.Background(), opts)
		done <- err
	}()
	<-started

	_, err := p.Run(context.Background(), opts)
	assert.ErrorIs(t, err, ErrRunActive)

	close(unblock)
	require.NoError(t, <-done)

	_, err = p.Run(context.Background(), opts)
	assert.NoError(t, err, "lock released after the run")
}

func TestRun_MissingSource(t *testing.T) {
	_, err := New(copyEngine, fakeDecl(), nil).Run(context.Background(), RunOptions{
		Src: filepath.Join(t.TempDir(), "nope"),
		Log: output.Discard(),
	})
	assert.ErrorIs(t, err, oerrors.ErrMissingSource)
}

func TestRun_OutputMustNotContainSource(t *testing.T) {
	pkg, src := newPackage(t)

	_, err := New(copyEngine, fakeDecl(), nil).Run(context.Background(), RunOptions{
		Src: src,
		Out: pkg,
		Log: output.Discard(),
	})
	assert.ErrorIs(t, err, oerrors.ErrValidation)
	assert.Contains(t, err.Error(), "Source: "+src)
	assert.DirExists(t, src)
}

func TestRun_FailureBeforeGeneratingKeepsPreviousOutput(t *testing.T) {
	pkg, src := newPackage(t)
	testutil.WriteFile(t, src, "a.ts", "export const a = 1;\n")
	testutil.WriteFile(t, pkg, "tsconfig.json", `{"compilerOptions": {`)

	previous := t.TempDir()
	testutil.WriteFile(t, previous, "a.js", "export const a = 0;\n")
	testutil.WriteFile(t, previous, "a.d.ts", "export declare const a = 0;\n")
	out := filepath.Join(pkg, "dist")
	testutil.CopyDir(t, previous, out)

	result, err := New(copyEngine, fakeDecl(), nil).Run(context.Background(), RunOptions{
		Src: src,
		Log: output.Discard(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrValidation)
	assert.Equal(t, StatusFailed, result.Run.Status)
	assert.Equal(t, testutil.ReadTree(t, previous), testutil.ReadTree(t, out))
}

func TestRun_OutputInsideSourceIsExcluded(t *testing.T) {
	_, src := newPackage(t)
	testutil.WriteFile(t, src, "a.ts", "a")
	out := filepath.Join(src, "dist")

	p := New(copyEngine, fakeDecl(), nil)
	opts := RunOptions{Src: src, Out: out, Log: output.Discard()}

	_, err := p.Run(context.Background(), opts)
	require.NoError(t, err)
	_, err = p.Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.d.ts", "a.js"}, testutil.Paths(testutil.ReadTree(t, out)))
}

func TestRun_EngineTimeout(t *testing.T) {
	pkg, src := newPackage(t)
	testutil.WriteFile(t, src, "a.ts", "a")

	slow := declgen.EngineFunc(func(ctx context.Context, _ []string, _ declgen.Config) ([]declgen.Diagnostic, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	_, err := New(copyEngine, slow, nil).Run(context.Background(), RunOptions{
		Src:           src,
		EngineTimeout: 20 * time.Millisecond,
		Log:           output.Discard(),
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NoDirExists(t, filepath.Join(pkg, "dist"))
}

func TestRun_NoSourcesSkipsDeclarations(t *testing.T) {
	_, src := newPackage(t)
	testutil.WriteFile(t, src, "readme.md", "# hi")

	called := false
	decl := declgen.EngineFunc(func(context.Context, []string, declgen.Config) ([]declgen.Diagnostic, error) {
		called = true
		return nil, nil
	})

	result, err := New(copyEngine, decl, nil).Run(context.Background(), RunOptions{Src: src, Log: output.Discard()})
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, []string{"readme.md"}, result.Copied)
}

func TestRollbackError(t *testing.T) {
	err := &RollbackError{Path: "/out", Err: os.ErrPermission}
	assert.True(t, errors.Is(err, oerrors.ErrRollback))
	assert.True(t, errors.Is(err, os.ErrPermission))
	assert.Equal(t, "rolling back /out: permission denied", err.Error())
}

func TestDefaultOut(t *testing.T) {
	assert.Equal(t, filepath.Join("pkg", "dist"), DefaultOut(filepath.Join("pkg", "src")))
	assert.Equal(t, filepath.Join("pkg", "dist"), DefaultOut(filepath.Join("pkg", "src")+string(filepath.Separator)))
}

func TestClean_RefusesSourceAncestor(t *testing.T) {
	pkg, src := newPackage(t)
	testutil.WriteFile(t, src, "a.ts", "export const a = 1;\n")

	err := Clean(RunOptions{Src: src, Out: pkg})
	assert.ErrorIs(t, err, oerrors.ErrValidation)
	assert.FileExists(t, filepath.Join(src, "a.ts"))
}

package classify

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/tsxform/cli/internal/errors"
	"github.com/tsxform/cli/internal/output"
	"github.com/tsxform/cli/internal/testutil"
)

// markerParser reports markup when the source contains "MARKUP" and fails
// when it contains "BROKEN".
var markerParser = ParserFunc(func(path string, src []byte) (Tree, error) {
	if strings.Contains(string(src), "BROKEN") {
		return nil, errors.New("unexpected token")
	}
	return Markup(strings.Contains(string(src), "MARKUP")), nil
})

func TestRenameTarget(t *testing.T) {
	assert.Equal(t, "a.jsx", RenameTarget("a.js"))
	assert.Equal(t, filepath.Join("x", "b.tsx"), RenameTarget(filepath.Join("x", "b.ts")))
	assert.Equal(t, "", RenameTarget("c.png"))
	assert.Equal(t, "", RenameTarget("d.jsx"))
}

func TestClassify_RenamesOnlyMarkupFiles(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "a.js", "MARKUP")
	testutil.WriteFile(t, root, "b.js", "plain")
	testutil.WriteFile(t, root, "lib/c.ts", "MARKUP")
	testutil.WriteFile(t, root, "lib/types.d.ts", "MARKUP")
	testutil.WriteFile(t, root, "img.png", "MARKUP")

	c := &Classifier{Parser: markerParser, Log: output.Discard()}
	report, err := c.Classify(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.jsx", "b.js", "img.png", "lib/c.tsx", "lib/types.d.ts"},
		testutil.Paths(testutil.ReadTree(t, root)))
	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, []Rename{
		{From: "a.js", To: "a.jsx"},
		{From: filepath.Join("lib", "c.ts"), To: filepath.Join("lib", "c.tsx")},
	}, report.Renamed)
}

func TestClassify_RealParser(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "a.js", "export const A = () => <div />;\n")
	testutil.WriteFile(t, root, "g.ts", "export const id = <T,>(x: T): T => x;\n")
	testutil.WriteFile(t, root, "n.ts", "declare const v: unknown;\nexport const n = <number>v;\n")

	report, err := New(false, output.Discard()).Classify(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.jsx", "g.ts", "n.ts"}, testutil.Paths(testutil.ReadTree(t, root)))
	assert.Len(t, report.Renamed, 1)
}

func TestClassify_LenientSkipsParseErrors(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "bad.js", "BROKEN")
	testutil.WriteFile(t, root, "good.js", "MARKUP")

	c := &Classifier{Parser: markerParser, Log: output.Discard()}
	report, err := c.Classify(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, report.Skipped, 1)
	assert.Equal(t, filepath.Join(root, "bad.js"), report.Skipped[0].Path)
	assert.Equal(t, []Rename{{From: "good.js", To: "good.jsx"}}, report.Renamed)
}

func TestClassify_StrictVisitsAllThenFails(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "a_bad.js", "BROKEN")
	testutil.WriteFile(t, root, "b_good.js", "MARKUP")

	c := &Classifier{Parser: markerParser, Strict: true, Log: output.Discard()}
	report, err := c.Classify(context.Background(), root)
	require.Error(t, err)

	assert.True(t, errors.Is(err, oerrors.ErrClassifyParse))
	assert.Equal(t, []Rename{{From: "b_good.js", To: "b_good.jsx"}}, report.Renamed)
	assert.Empty(t, report.Skipped)
}

func TestClassify_CollisionIsError(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "a.js", "MARKUP")
	testutil.WriteFile(t, root, "a.jsx", "existing")

	c := &Classifier{Parser: markerParser, Log: output.Discard()}
	report, err := c.Classify(context.Background(), root)
	require.Error(t, err)

	var ce *CollisionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "a.jsx", ce.To)
	assert.Empty(t, report.Renamed)

	files := testutil.ReadTree(t, root)
	assert.Equal(t, "existing", files["a.jsx"])
	assert.Equal(t, "MARKUP", files["a.js"])
}

func TestClassify_Idempotent(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "a.js", "MARKUP")

	c := &Classifier{Parser: markerParser, Log: output.Discard()}
	_, err := c.Classify(context.Background(), root)
	require.NoError(t, err)

	report, err := c.Classify(context.Background(), root)
	require.NoError(t, err)
	assert.Empty(t, report.Renamed)
	assert.Equal(t, 0, report.Scanned)
}

func TestClassify_MissingRoot(t *testing.T) {
	c := &Classifier{Parser: markerParser, Log: output.Discard()}
	_, err := c.Classify(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, oerrors.ErrScanIO)
}

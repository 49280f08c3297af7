package scan

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/tsxform/cli/internal/errors"
	"github.com/tsxform/cli/internal/testutil"
)

func TestScan_ClassifiesEntries(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "a.tsx", "export const A = () => <div/>;")
	testutil.WriteFile(t, root, "b.ts", "export const b = 1;")
	testutil.WriteFile(t, root, "c.png", "\x89PNG")
	testutil.WriteFile(t, root, "nested/deep/d.TS", "export {};")
	testutil.WriteFile(t, root, "nested/styles.css", "body{}")

	tree, err := Scan(root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Clean(root), tree.Root)
	assert.Equal(t, []string{"a.tsx", "b.ts", filepath.Join("nested", "deep", "d.TS")}, tree.SourceFiles())
	assert.Equal(t, []string{"c.png", filepath.Join("nested", "styles.css")}, tree.Assets())
	assert.Equal(t, []string{"nested", filepath.Join("nested", "deep")}, tree.Directories())
}

func TestScan_EntriesSorted(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"z.ts", "m/x.ts", "a.png", "m/a.ts"} {
		testutil.WriteFile(t, root, name, "")
	}

	tree, err := Scan(root)
	require.NoError(t, err)

	var rels []string
	for _, e := range tree.Entries {
		rels = append(rels, e.RelPath)
	}
	assert.IsIncreasing(t, rels)
}

func TestScan_EmptyDirectoryKept(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))

	tree, err := Scan(root)
	require.NoError(t, err)
	assert.Equal(t, []FileEntry{{RelPath: "empty", Kind: KindDirectory}}, tree.Entries)
}

func TestScan_MissingRoot(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.True(t, errors.Is(err, oerrors.ErrScanIO))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestScan_RootIsFile(t *testing.T) {
	root := t.TempDir()
	file := testutil.WriteFile(t, root, "file.ts", "")

	_, err := Scan(file)
	assert.True(t, errors.Is(err, oerrors.ErrScanIO))
}

func TestScan_MaxDepth(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "a/b/c/d.ts", "")

	_, err := Scan(root, WithMaxDepth(2))
	require.Error(t, err)
	assert.True(t, errors.Is(err, oerrors.ErrScanIO))
	assert.Contains(t, err.Error(), "maximum depth")

	_, err = Scan(root, WithMaxDepth(3))
	assert.NoError(t, err)
}

func TestScan_Exclude(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "a.ts", "")
	testutil.WriteFile(t, root, "dist/a.js", "")
	testutil.WriteFile(t, root, "distant/b.ts", "")

	tree, err := Scan(root, WithExclude(filepath.Join(root, "dist")))
	require.NoError(t, err)

	for _, e := range tree.Entries {
		assert.False(t, e.RelPath == "dist" || strings.HasPrefix(e.RelPath, "dist"+string(filepath.Separator)), e.RelPath)
	}
	assert.Contains(t, tree.SourceFiles(), filepath.Join("distant", "b.ts"))
}

func TestScan_CustomExtensions(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "a.js", "")
	testutil.WriteFile(t, root, "b.ts", "")
	testutil.WriteFile(t, root, "c.jsx", "")

	tree, err := Scan(root, WithSourceExtensions(".js", ".ts"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.js", "b.ts"}, tree.SourceFiles())
	assert.Equal(t, []string{"c.jsx"}, tree.Assets())
}

func TestScan_SymlinkedDirectory(t *testing.T) {
	root := t.TempDir()
	target := t.TempDir()
	testutil.WriteFile(t, target, "linked.ts", "")
	if err := os.Symlink(target, filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	tree, err := Scan(root)
	require.NoError(t, err)
	assert.Contains(t, tree.Directories(), "link")
	assert.Contains(t, tree.SourceFiles(), filepath.Join("link", "linked.ts"))
}

func TestScan_DanglingSymlinkIsIOError(t *testing.T) {
	root := t.TempDir()
	if err := os.Symlink(filepath.Join(root, "gone"), filepath.Join(root, "dangling.ts")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	_, err := Scan(root)
	assert.True(t, errors.Is(err, oerrors.ErrScanIO))
}

func TestIsDeclaration(t *testing.T) {
	assert.True(t, IsDeclaration("types/index.d.ts"))
	assert.True(t, IsDeclaration("X.D.TS"))
	assert.False(t, IsDeclaration("index.ts"))
	assert.False(t, IsDeclaration("d.ts.bak"))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "directory", KindDirectory.String())
	assert.Equal(t, "source", KindSource.String())
	assert.Equal(t, "asset", KindAsset.String())
}

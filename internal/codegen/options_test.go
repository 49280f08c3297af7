package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsxform/cli/internal/testutil"
)

func TestLoadOptions_EmptyPathReturnsDefaults(t *testing.T) {
	opts, err := LoadOptions("")
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions(), opts)
}

func TestLoadOptions_JSONWithComments(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "transform.json", `{
	// emit classic factory calls
	"jsx": "transform",
	"jsxFactory": "h",
	"define": {"DEBUG": "false"},
}`)

	opts, err := LoadOptions(path)
	require.NoError(t, err)

	assert.Equal(t, JSXTransform, opts.JSX)
	assert.Equal(t, "h", opts.JSXFactory)
	assert.Equal(t, map[string]string{"DEBUG": "false"}, opts.Define)
	assert.Equal(t, "esnext", opts.Target, "unset keys keep defaults")
}

func TestLoadOptions_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad jsx", `{"jsx": "react"}`, "unknown mode"},
		{"bad format", `{"format": "amd"}`, "unknown format"},
		{"bad target", `{"target": "es3"}`, "unknown target"},
		{"bad sourcemap", `{"sourcemap": "external"}`, "sourcemap"},
		{"not json", `{jsx: }`, "parsing transform config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testutil.WriteFile(t, dir, tt.name+".json", tt.content)
			_, err := LoadOptions(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadOptions_MissingFile(t *testing.T) {
	_, err := LoadOptions("/does/not/exist.json")
	assert.ErrorContains(t, err, "reading transform config")
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/tsxform/cli/internal/errors"
)

// testBuffer is a minimal io.Writer for capturing log output.
type testBuffer struct {
	strings.Builder
}

func TestValidator_Validate(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	tests := []struct {
		name    string
		content string
		field   string
	}{
		{name: "empty document", content: ""},
		{name: "partial config", content: "watch:\n  debounce: 1.5s\n"},
		{name: "zero duration", content: "engines:\n  timeout: 0\n"},
		{name: "bad duration", content: "watch:\n  debounce: soon\n", field: "watch.debounce"},
		{name: "wrong type", content: "transform:\n  classify: maybe\n", field: "transform.classify"},
		{name: "negative concurrency", content: "transform:\n  concurrency: -2\n", field: "transform.concurrency"},
		{name: "empty tsc", content: "engines:\n  tsc: \"\"\n", field: "engines.tsc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate([]byte(tt.content))
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, oerrors.ErrValidation)

			var verrs ValidationErrors
			require.ErrorAs(t, err, &verrs)
			fields := make([]string, 0, len(verrs))
			for _, e := range verrs {
				fields = append(fields, e.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestValidator_InvalidYAML(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	err = v.Validate([]byte("log: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid YAML")
}

func TestValidator_ValidateFile(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	assert.Error(t, v.ValidateFile(filepath.Join(t.TempDir(), "missing.yaml")))

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  timestamps: yes please\n"), 0o644))
	assert.ErrorIs(t, v.ValidateFile(path), oerrors.ErrValidation)
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "watch.debounce", Message: "bad"},
		{Message: "general"},
	}
	assert.Equal(t, "config validation failed:\n  watch.debounce: bad\n  general\n", errs.Error())
	assert.Equal(t, "no validation errors", ValidationErrors{}.Error())
}

package declgen

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/tailscale/hujson"

	oerrors "github.com/tsxform/cli/internal/errors"
)

// Source records which layer a Config was resolved from.
type Source string

const (
	// SourceExplicit means the config came from an explicit override path.
	SourceExplicit Source = "explicit"

	// SourceProject means the package's own tsconfig.json was used.
	SourceProject Source = "project"

	// SourceDefault means no config file was found and built-in options apply.
	SourceDefault Source = "default"
)

// ProjectConfigName is the project config looked up in the package root.
const ProjectConfigName = "tsconfig.json"

// tempConfigPrefix starts the name of the transient config written into the
// package root for each emit. It is removed afterwards.
const tempConfigPrefix = "tsconfig.temp."

// DefaultCompilerOptions returns the compiler options used when neither an
// override nor a project config exists.
func DefaultCompilerOptions() map[string]any {
	return map[string]any{
		"target":              "ESNext",
		"strict":              true,
		"jsx":                 "preserve",
		"declaration":         true,
		"emitDeclarationOnly": true,
		"declarationMap":      true,
		"esModuleInterop":     true,
		"skipLibCheck":        true,
	}
}

// Config is the declaration configuration of one run. It is resolved once and
// not modified afterwards.
type Config struct {
	Source Source

	// Path is the config file handed to the engine. Empty for SourceDefault.
	Path string

	// SrcRoot is the source directory, PackageRoot its parent.
	SrcRoot     string
	PackageRoot string

	// OutDir receives the declaration files.
	OutDir string

	// CompilerOptions are the options read from Path, or the defaults.
	CompilerOptions map[string]any
}

// Resolve builds the Config for srcRoot. Precedence: override path, then
// tsconfig.json in the package root, then DefaultCompilerOptions.
func Resolve(srcRoot, outDir, override string) (Config, error) {
	cfg := Config{
		SrcRoot:     srcRoot,
		PackageRoot: filepath.Dir(srcRoot),
		OutDir:      outDir,
	}

	if override != "" {
		if _, err := os.Stat(override); err != nil {
			return cfg, oerrors.NewNotFoundError(
				fmt.Sprintf("declaration config %q does not exist", override),
				override,
				"Check the --tsConfig path.",
			)
		}
		opts, err := readCompilerOptions(override)
		if err != nil {
			return cfg, err
		}
		cfg.Source = SourceExplicit
		cfg.Path = override
		cfg.CompilerOptions = opts
		return cfg, nil
	}

	project := filepath.Join(cfg.PackageRoot, ProjectConfigName)
	if info, err := os.Stat(project); err == nil && !info.IsDir() {
		opts, err := readCompilerOptions(project)
		if err != nil {
			return cfg, err
		}
		cfg.Source = SourceProject
		cfg.Path = project
		cfg.CompilerOptions = opts
		return cfg, nil
	}

	cfg.Source = SourceDefault
	cfg.CompilerOptions = DefaultCompilerOptions()
	return cfg, nil
}

// Options returns a copy of the compiler options.
func (c Config) Options() map[string]any {
	return maps.Clone(c.CompilerOptions)
}

// readCompilerOptions reads the compilerOptions object of a tsconfig file.
// tsconfig files may contain comments and trailing commas.
func readCompilerOptions(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading declaration config: %w", err)
	}
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, oerrors.NewValidationError(
			fmt.Sprintf("invalid declaration config: %v", err),
			path,
			"tsconfig files must be JSON (comments and trailing commas are allowed).",
		)
	}

	var doc struct {
		CompilerOptions map[string]any `json:"compilerOptions"`
	}
	if err := json.Unmarshal(std, &doc); err != nil {
		return nil, oerrors.NewValidationError(
			fmt.Sprintf("invalid declaration config: %v", err),
			path,
			"",
		)
	}
	if doc.CompilerOptions == nil {
		doc.CompilerOptions = map[string]any{}
	}
	return doc.CompilerOptions, nil
}

// TempConfigPath returns where the transient config for cfg is written. The
// name is derived from the source and output roots so that runs for
// different pairs under one package root do not share a file.
func TempConfigPath(cfg Config) string {
	key := uuid.NewSHA1(uuid.NameSpaceURL, []byte(cfg.SrcRoot+"\x00"+cfg.OutDir))
	return filepath.Join(cfg.PackageRoot, tempConfigPrefix+key.String()[:8]+".json")
}

// tempConfig is the document written to TempConfigPath.
type tempConfig struct {
	Extends         string         `json:"extends,omitempty"`
	CompilerOptions map[string]any `json:"compilerOptions"`
	Files           []string       `json:"files"`
	Include         []string       `json:"include"`
}

// writeTempConfig writes the transient config for files and returns its path.
// The file list always comes from the caller. A project or explicit config is
// extended so its own options and path settings still apply, with only the
// layout options replaced.
func writeTempConfig(cfg Config, files []string) (string, error) {
	doc := tempConfig{Files: files, Include: []string{}}
	if files == nil {
		doc.Files = []string{}
	}

	var opts map[string]any
	if cfg.Source == SourceDefault || cfg.Path == "" {
		opts = cfg.Options()
		if opts == nil {
			opts = DefaultCompilerOptions()
		}
	} else {
		// Bare extends values resolve as packages, so keep it absolute.
		base, err := filepath.Abs(cfg.Path)
		if err != nil {
			return "", err
		}
		doc.Extends = base
		opts = map[string]any{
			"declaration":         true,
			"emitDeclarationOnly": true,
		}
		if _, ok := cfg.CompilerOptions["declarationDir"]; ok {
			opts["declarationDir"] = cfg.OutDir
		}
		if noEmit, _ := cfg.CompilerOptions["noEmit"].(bool); noEmit {
			opts["noEmit"] = false
		}
	}
	opts["outDir"] = cfg.OutDir
	opts["rootDir"] = cfg.SrcRoot
	doc.CompilerOptions = opts

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}

	path := TempConfigPath(cfg)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return path, nil
}

// Package version provides version information for the tsxform CLI.
package version

import (
	"fmt"
	"runtime"
)

// Build-time variables set via ldflags.
var (
	// Version is the CLI version (set via ldflags).
	Version = "v0.0.0-dev"

	// GitCommit is the git commit hash.
	GitCommit = "unknown"

	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// ESBuildVersion is the esbuild module the code transform is built with.
const ESBuildVersion = "v0.25.0"

// Info contains version information.
type Info struct {
	// Version is the CLI version (set via ldflags).
	Version string `json:"version"`

	// GitCommit is the git commit hash.
	GitCommit string `json:"gitCommit"`

	// BuildDate is the build timestamp.
	BuildDate string `json:"buildDate"`

	// GoVersion is the Go version used to build.
	GoVersion string `json:"goVersion"`

	// ESBuildVersion is the embedded esbuild version.
	ESBuildVersion string `json:"esbuildVersion"`
}

// TSCInfo describes the TypeScript compiler used for declarations.
type TSCInfo struct {
	// Version is the reported compiler version.
	Version string `json:"version"`

	// Path is the resolved binary path.
	Path string `json:"path"`

	// Found indicates if the binary was found.
	Found bool `json:"found"`

	// Message provides additional information when detection failed.
	Message string `json:"message,omitempty"`
}

// GetInfo returns the current version information.
func GetInfo() Info {
	return Info{
		Version:        Version,
		GitCommit:      GitCommit,
		BuildDate:      BuildDate,
		GoVersion:      runtime.Version(),
		ESBuildVersion: ESBuildVersion,
	}
}

// String returns a human-readable version string.
func (i Info) String() string {
	return fmt.Sprintf("tsxform:\n  Version:  %s\n  Build ID: %s/%s\n  Go:       %s\n\nesbuild:\n  Version:  %s",
		i.Version, i.BuildDate, i.GitCommit, i.GoVersion, i.ESBuildVersion)
}

// String returns a human-readable compiler info string.
func (t TSCInfo) String() string {
	if !t.Found {
		return "  Version: not found\n  Path:    -"
	}
	if t.Message != "" {
		return fmt.Sprintf("  Version: unknown (%s)\n  Path:    %s", t.Message, t.Path)
	}
	return fmt.Sprintf("  Version: %s\n  Path:    %s", t.Version, t.Path)
}

// FullVersionString returns complete version information including tsc.
func FullVersionString(info Info, tsc TSCInfo) string {
	return fmt.Sprintf("%s\n\ntsc:\n%s", info.String(), tsc.String())
}

package version

import (
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"time"
)

// tscVersionRegex matches tsc output like "Version 5.4.5".
var tscVersionRegex = regexp.MustCompile(`\d+\.\d+\.\d+(?:-[a-zA-Z0-9.]+)?`)

// DetectTSC finds the TypeScript compiler and asks it for its version.
// An empty path looks tsc up on PATH.
func DetectTSC(path string) TSCInfo {
	if path == "" {
		found, err := exec.LookPath("tsc")
		if err != nil {
			return TSCInfo{Message: "tsc not found in PATH"}
		}
		path = found
	}

	version, err := tscVersion(path)
	if err != nil {
		return TSCInfo{
			Path:    path,
			Found:   true,
			Message: "failed to get tsc version: " + err.Error(),
		}
	}

	return TSCInfo{
		Version: version,
		Path:    path,
		Found:   true,
	}
}

// tscVersion executes 'tsc --version' and extracts the version string.
func tscVersion(path string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, "--version")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return "", err
	}

	return extractVersion(out.String())
}

// extractVersion extracts the version number from tsc output.
func extractVersion(output string) (string, error) {
	match := tscVersionRegex.FindString(output)
	if match == "" {
		return "", &versionParseError{output: output}
	}
	return "v" + match, nil
}

type versionParseError struct {
	output string
}

func (e *versionParseError) Error() string {
	return "failed to parse tsc version from output: " + e.output
}

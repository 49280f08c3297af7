package pipeline

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/tsxform/cli/internal/classify"
	"github.com/tsxform/cli/internal/codegen"
	"github.com/tsxform/cli/internal/declgen"
)

// Phase is a state of a run.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseScanning    Phase = "scanning"
	PhaseGenerating  Phase = "generating"
	PhaseClassifying Phase = "classifying"
	PhaseSucceeded   Phase = "succeeded"
	PhaseFailed      Phase = "failed"
)

// Status is the outcome of a finished run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Key identifies the source/output pair a run works on. At most one run per
// Key is active at a time.
type Key struct {
	SrcRoot string
	OutRoot string
}

// Run records one execution of the pipeline.
type Run struct {
	ID  uuid.UUID
	Key Key

	Phase      Phase
	StartedAt  time.Time
	FinishedAt time.Time

	// Diagnostics are the declaration engine's messages, if any.
	Diagnostics []declgen.Diagnostic

	// Status is empty until the run finishes.
	Status Status
}

// RunOptions configures one run.
type RunOptions struct {
	// Src is the source directory (required).
	Src string

	// Out is the output directory. Defaults to "dist" next to Src.
	Out string

	// TSConfig is an explicit declaration config path (optional).
	TSConfig string

	// CodeOptions are handed to the code transform engine. The zero value
	// means codegen.DefaultOptions().
	CodeOptions *codegen.Options

	// Classify enables the classify pass over the output tree.
	Classify bool

	// StrictClassify fails the run when a file cannot be parsed.
	StrictClassify bool

	// Concurrency bounds per-file code generation. Zero means GOMAXPROCS.
	Concurrency int

	// EngineTimeout bounds each engine call. Zero means no timeout.
	EngineTimeout time.Duration

	Log *log.Logger
}

// Result describes a finished run. Paths are relative to the output root.
type Result struct {
	Run *Run

	Written      []string
	Copied       []string
	Declarations []string
	Renamed      []classify.Rename

	Duration time.Duration
}

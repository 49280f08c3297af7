package output

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh/spinner"
	"golang.org/x/term"
)

// SpinnerOption configures a spinner.
type SpinnerOption func(*spinnerConfig)

type spinnerConfig struct {
	title string
}

// WithTitle sets the spinner title.
func WithTitle(title string) SpinnerOption {
	return func(c *spinnerConfig) {
		c.title = title
	}
}

// IsTTY reports whether stderr is attached to a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// RunWithSpinner executes an action with a spinner and returns the action's
// error. The action should observe ctx; RunWithSpinner always waits for it
// to return, also after ctx is cancelled.
func RunWithSpinner(ctx context.Context, action func() error, opts ...SpinnerOption) error {
	cfg := &spinnerConfig{
		title: "Working...",
	}

	for _, opt := range opts {
		opt(cfg)
	}

	// If not a TTY, just run the action directly
	if !IsTTY() {
		return action()
	}

	return runWhile(ctx, action, func(wait func()) error {
		return spinner.New().Title(cfg.title).Action(wait).Run()
	})
}

// runWhile runs action in the background while show displays progress. show
// must call wait, which returns once the action finishes or ctx is done.
func runWhile(ctx context.Context, action func() error, show func(wait func()) error) error {
	done := make(chan struct{})
	var err error
	go func() {
		defer close(done)
		err = action()
	}()

	showErr := show(func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
	})

	<-done
	if err == nil && showErr != nil {
		return fmt.Errorf("spinner error: %w", showErr)
	}
	return err
}

// Package watch re-runs a transformation whenever the source tree changes.
// Bursts of filesystem events are collapsed by a quiet window, at most one
// run is active at a time, and changes seen during a run schedule exactly one
// more run.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/tsxform/cli/internal/output"
)

// DefaultDebounce is the quiet window used when Options.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// DefaultMessage is logged before every triggered run.
const DefaultMessage = "Detected changes, rebuilding..."

// RunFunc performs one run. Its error is logged; the session keeps going.
type RunFunc func(ctx context.Context) error

// Options configures a Session.
type Options struct {
	// Root is the directory to watch, recursively (required).
	Root string

	// Debounce is the quiet window after the last event.
	Debounce time.Duration

	// Run is called once per quiet window (required).
	Run RunFunc

	// Ignore lists paths whose events are dropped, such as an output
	// directory below Root.
	Ignore []string

	// Message is logged at INFO before each run. Defaults to DefaultMessage.
	Message string

	Log *log.Logger
}

// Session is an active watch over one source tree.
type Session struct {
	ctx      context.Context
	opts     Options
	log      *log.Logger
	watcher  *fsnotify.Watcher
	done     chan struct{}
	loopDone chan struct{}
	stopOnce sync.Once
	runs     sync.WaitGroup

	mu      sync.Mutex
	timer   *time.Timer
	running bool
	pending bool
	stopped bool
	count   int
}

// Start begins watching opts.Root. Runs receive ctx; Stop does not cancel
// them.
func Start(ctx context.Context, opts Options) (*Session, error) {
	if opts.Run == nil {
		return nil, errors.New("watch: Run is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Message == "" {
		opts.Message = DefaultMessage
	}
	logger := opts.Log
	if logger == nil {
		logger = output.Logger()
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving watch root: %w", err)
	}
	opts.Root = root
	ignore := make([]string, 0, len(opts.Ignore))
	for _, p := range opts.Ignore {
		if abs, err := filepath.Abs(p); err == nil {
			ignore = append(ignore, abs)
		}
	}
	opts.Ignore = ignore

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}

	s := &Session{
		ctx:      ctx,
		opts:     opts,
		log:      logger,
		watcher:  watcher,
		done:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}
	if err := s.addDirsRecursive(root); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	go s.eventLoop()
	logger.Debug("watching", "root", root, "debounce", opts.Debounce)
	return s, nil
}

// Trigger records a change as if a filesystem event had arrived.
func (s *Session) Trigger() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.opts.Debounce, s.fire)
}

// Stop ends the watch: the pending timer is cancelled, the watcher closed and
// the event loop drained. A run already in progress finishes on its own; use
// Wait to block on it.
func (s *Session) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.pending = false
		if s.timer != nil {
			s.timer.Stop()
		}
		s.mu.Unlock()

		close(s.done)
		err = s.watcher.Close()
		<-s.loopDone
	})
	return err
}

// Wait blocks until no run is active. Call it after Stop to be sure no new
// run starts afterwards.
func (s *Session) Wait() {
	s.runs.Wait()
}

// Runs returns the number of completed runs.
func (s *Session) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// fire is called when the quiet window elapses.
func (s *Session) fire() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if s.running {
		s.pending = true
		s.mu.Unlock()
		s.log.Debug("run in progress, rerun queued")
		return
	}
	s.running = true
	s.runs.Add(1)
	s.mu.Unlock()

	go s.runLoop()
}

// runLoop executes runs until no rerun is pending.
func (s *Session) runLoop() {
	defer s.runs.Done()
	for {
		s.log.Info(s.opts.Message)
		if err := s.opts.Run(s.ctx); err != nil {
			s.log.Error("run failed", "err", err)
		}

		s.mu.Lock()
		s.count++
		if s.pending && !s.stopped {
			s.pending = false
			s.mu.Unlock()
			continue
		}
		s.running = false
		s.mu.Unlock()
		return
	}
}

func (s *Session) eventLoop() {
	defer close(s.loopDone)
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.done:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handleEvent(ev)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("watcher error", "err", err)
		}
	}
}

func (s *Session) handleEvent(ev fsnotify.Event) {
	if s.ignored(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = s.addDirsRecursive(ev.Name)
		}
	}
	s.log.Debug("file change detected", "path", ev.Name, "op", ev.Op.String())
	s.Trigger()
}

func (s *Session) addDirsRecursive(root string) error {
	if _, err := os.Stat(root); err != nil {
		return fmt.Errorf("watching %s: %w", root, err)
	}
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && s.ignored(path) {
			return filepath.SkipDir
		}
		if err := s.watcher.Add(path); err != nil {
			s.log.Warn("watch add failed", "dir", path, "err", err)
		}
		return nil
	})
}

func (s *Session) ignored(path string) bool {
	for _, ex := range s.opts.Ignore {
		if path == ex || strings.HasPrefix(path, ex+string(filepath.Separator)) {
			return true
		}
	}
	return shouldIgnoreEvent(path)
}

// shouldIgnoreEvent reports events for hidden, editor swap and OS metadata
// files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}

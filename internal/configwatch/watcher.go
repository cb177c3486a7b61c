// Package configwatch reloads exportshell configuration when one of its files
// changes on disk while the shell is running.
package configwatch

import (
	"context"
	"io"
	"path/filepath"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/grovetools/exportshell/config"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is how long the watcher waits after the last event before
// reloading. Editors often write a file in several steps.
const DefaultDebounce = 200 * time.Millisecond

// LoadFunc produces a freshly loaded configuration.
type LoadFunc func() (*config.Config, error)

// ChangeFunc receives the previous and the newly loaded configuration.
type ChangeFunc func(old, updated *config.Config)

// Watcher watches config directories and reloads on change. Invalid edits
// are logged and ignored; the last good configuration stays current.
type Watcher struct {
	watcher  *fsnotify.Watcher
	load     LoadFunc
	onChange ChangeFunc
	debounce time.Duration
	logger   *logrus.Entry

	mu      sync.Mutex
	current *config.Config
	timer   *time.Timer
	closed  bool
}

// Option customises a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// New watches dirs for changes to config files. Directories that cannot be
// watched, usually because they do not exist, are skipped.
func New(current *config.Config, dirs []string, load LoadFunc, onChange ChangeFunc, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  fw,
		load:     load,
		onChange: onChange,
		debounce: DefaultDebounce,
		current:  current,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		w.logger = logrus.NewEntry(discard)
	}

	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			w.logger.WithError(err).WithField("dir", dir).Debug("Not watching config directory")
			continue
		}
		w.logger.WithField("dir", dir).Debug("Watching config directory")
	}
	return w, nil
}

// Dirs returns the distinct directories holding cfg's source files plus
// extra, in a stable order.
func Dirs(cfg *config.Config, extra ...string) []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		if dir == "" || seen[dir] {
			return
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}
	for _, src := range cfg.Sources {
		add(filepath.Dir(src))
	}
	for _, dir := range extra {
		add(dir)
	}
	return dirs
}

// Current returns the last successfully loaded configuration.
func (w *Watcher) Current() *config.Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Run processes events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer w.close()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !config.IsConfigFileName(filepath.Base(event.Name)) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.logger.WithFields(logrus.Fields{"file": event.Name, "op": event.Op.String()}).Debug("Config event")
			w.schedule()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Warn("Config watcher error")
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Reset(w.debounce)
		return
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	updated, err := w.load()
	if err != nil {
		w.logger.WithError(err).Warn("Ignoring invalid configuration change")
		return
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	old := w.current
	w.current = updated
	w.mu.Unlock()

	if w.onChange != nil {
		w.onChange(old, updated)
	}
}

func (w *Watcher) close() {
	w.mu.Lock()
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	_ = w.watcher.Close()
}

// Changed lists the settings that differ between old and updated, as
// dotted keys such as "backend.port" or "window.title".
func Changed(old, updated *config.Config) []string {
	var changed []string
	if old == nil || updated == nil {
		return changed
	}

	compare := func(key string, a, b interface{}) {
		if !reflect.DeepEqual(a, b) {
			changed = append(changed, key)
		}
	}
	compare("backend.executable", old.Backend.Executable, updated.Backend.Executable)
	compare("backend.args", old.Backend.Args, updated.Backend.Args)
	compare("backend.work_dir", old.Backend.WorkDir, updated.Backend.WorkDir)
	compare("backend.port", old.Backend.Port, updated.Backend.Port)
	compare("backend.inherit_env", old.Backend.InheritsEnv(), updated.Backend.InheritsEnv())
	compare("window.title", old.Window.Title, updated.Window.Title)
	compare("ipc.socket", old.IPC.Socket, updated.IPC.Socket)

	sort.Strings(changed)
	return changed
}

// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pyship/pyship/pkg/buildspec"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Config.Debounce is unset.
// Editors often write a temp file and rename it; both events fall inside it.
const DefaultDebounce = 500 * time.Millisecond

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("watch: Run called more than once")

// alwaysIgnored never triggers a rebuild.
var alwaysIgnored = []string{
	"**/.git/**",
	"**/__pycache__/**",
	"**/*.pyc",
	"**/*.spec",
	"**/*.swp",
	"**/*~",
	"**/.DS_Store",
}

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Patterns select the files that trigger a rebuild. Empty matches
		// every non-ignored file.
		Patterns []string
		// Ignore is merged with the built-in ignores.
		Ignore []string
		// Debounce is the quiet period after the last event.
		Debounce time.Duration
		// BaseDir is the watched root; empty means the working directory.
		BaseDir string
		// OnChange receives the changed paths, relative to BaseDir and
		// slash-separated, sorted.
		OnChange func(ctx context.Context, changed []string) error
	}

	// Watcher monitors a directory tree.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		ignores  []string
		debounce time.Duration
		baseDir  string
		started  atomic.Bool
	}

	// batch collects changed paths between rebuilds.
	batch struct {
		mu      sync.Mutex
		pending map[string]struct{}
		timer   *time.Timer
		busy    atomic.Bool
	}
)

// ForProject returns the configuration that rebuilds p: any Python source,
// the project file, the manifest, env files and the icon trigger a rebuild;
// the output, work and environment directories never do.
func ForProject(p *buildspec.Project) Config {
	projectFile := buildspec.DefaultFileName
	if p.FilePath != "" {
		projectFile = filepath.Base(p.FilePath)
	}
	patterns := []string{"**/*.py", "**/*.pyw", projectFile}
	for _, extra := range append([]string{p.Dependencies.Manifest, p.Icon}, p.EnvFiles...) {
		extra = filepath.ToSlash(trimOptional(extra))
		if extra != "" && !filepath.IsAbs(extra) {
			patterns = append(patterns, path.Clean(extra))
		}
	}

	var ignore []string
	for _, dir := range []string{p.OutputDir, p.WorkDir, p.Environment.Dir} {
		if dir != "" && !filepath.IsAbs(dir) {
			ignore = append(ignore, path.Clean(filepath.ToSlash(dir))+"/**")
		}
	}

	return Config{Patterns: patterns, Ignore: ignore, BaseDir: p.BaseDir()}
}

func trimOptional(file string) string {
	if n := len(file); n > 0 && file[n-1] == '?' {
		return file[:n-1]
	}
	return file
}

// New validates cfg and registers the directory tree with fsnotify.
func New(cfg Config) (*Watcher, error) {
	for _, set := range []struct {
		label    string
		patterns []string
	}{{"watch", cfg.Patterns}, {"ignore", cfg.Ignore}} {
		for _, pat := range set.patterns {
			if !doublestar.ValidatePattern(pat) {
				return nil, fmt.Errorf("watch: invalid %s pattern %q", set.label, pat)
			}
		}
	}

	baseDir := cfg.BaseDir
	if baseDir == "" {
		baseDir = "."
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve base directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  slices.Concat(alwaysIgnored, cfg.Ignore),
		debounce: cfg.Debounce,
		baseDir:  absBase,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}

	if err := w.addTree(absBase); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is cancelled. It returns nil on
// cancellation and an error when fsnotify breaks down.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := w.fsw.Close(); err != nil {
			slog.Warn("watch: close fsnotify", "error", err)
		}
	}()

	b := &batch{pending: make(map[string]struct{})}
	defer b.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			w.handle(ctx, b, evt)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			slog.Warn("watch: fsnotify error", "error", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, b *batch, evt fsnotify.Event) {
	rel := w.relative(evt.Name)
	if w.Ignored(rel) {
		return
	}
	if evt.Has(fsnotify.Create) {
		if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
			if err := w.addTree(evt.Name); err != nil {
				slog.Warn("watch: add new directory", "path", evt.Name, "error", err)
			}
			return
		}
	}
	if !w.Matches(rel) {
		return
	}
	slog.Debug("watch: change", "path", rel, "op", evt.Op.String())
	b.add(rel, w.debounce, func() { w.fire(ctx, b) })
}

// fire runs OnChange unless a previous call is still running, in which case
// the pending set is kept and retried after another quiet period.
func (w *Watcher) fire(ctx context.Context, b *batch) {
	if ctx.Err() != nil {
		return
	}
	if !b.busy.CompareAndSwap(false, true) {
		slog.Info("watch: rebuild still running, change queued")
		b.rearm(w.debounce)
		return
	}
	defer b.busy.Store(false)

	changed := b.drain()
	if len(changed) == 0 || w.cfg.OnChange == nil {
		return
	}
	if err := w.cfg.OnChange(ctx, changed); err != nil {
		slog.Warn("watch: rebuild failed", "error", err)
	}
}

// addTree registers root and every non-ignored directory below it.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			slog.Warn("watch: skipping inaccessible path", "path", p, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel := w.relative(p)
		if rel != "." && (w.Ignored(rel) || w.Ignored(rel+"/")) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) relative(p string) string {
	rel, err := filepath.Rel(w.baseDir, p)
	if err != nil {
		rel = p
	}
	return filepath.ToSlash(rel)
}

// Ignored reports whether a slash-separated path relative to BaseDir is
// excluded.
func (w *Watcher) Ignored(rel string) bool {
	return matchAny(w.ignores, rel)
}

// Matches reports whether a slash-separated path relative to BaseDir
// selects a rebuild.
func (w *Watcher) Matches(rel string) bool {
	return len(w.cfg.Patterns) == 0 || matchAny(w.cfg.Patterns, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func (b *batch) add(rel string, debounce time.Duration, fire func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[rel] = struct{}{}
	if b.timer == nil {
		b.timer = time.AfterFunc(debounce, fire)
		return
	}
	b.timer.Reset(debounce)
}

func (b *batch) rearm(debounce time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Reset(debounce)
	}
}

func (b *batch) drain() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	changed := slices.Sorted(maps.Keys(b.pending))
	clear(b.pending)
	return changed
}

func (b *batch) stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
	}
}

// SPDX-License-Identifier: MPL-2.0

// Package watch reports debounced changes to the deployable sources of a
// store.
//
// A Watcher registers the store's source directories (app/code, app/design,
// lib/web and app/etc) with fsnotify and calls OnChange once the events for a
// burst of edits have settled. Only paths that can change a deployment are
// reported: module descriptors and view/ directories, theme files, the shared
// library and app/etc/config.php.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/scd-tools/scd/internal/ctxlog"
)

const defaultDebounce = 300 * time.Millisecond

var (
	// ErrNothingToWatch is returned by New when none of the source
	// directories exist under the store root.
	ErrNothingToWatch = errors.New("no source directories to watch")

	// SourceDirs are the directories registered by default, relative to the
	// store root.
	SourceDirs = []string{"app/code", "app/design", "lib/web", "app/etc"}

	defaultPatterns = []string{
		"app/etc/config.php",
		"app/code/*/*/etc/module.xml",
		"app/code/*/*/view/**",
		"app/design/**",
		"lib/web/**",
	}

	defaultIgnores = []string{
		"**/.git/**",
		"**/node_modules/**",
		"**/*.swp",
		"**/*.swo",
		"**/*~",
		"**/.DS_Store",
	}
)

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Root is the store root. Required.
		Root string

		// Dirs are the directories to register, relative to Root. Missing
		// directories are skipped. Empty means SourceDirs.
		Dirs []string

		// Patterns select the slash-separated paths, relative to Root, that
		// are reported. Empty means the deployable store sources.
		Patterns []string

		// Ignore is merged with the built-in ignores (VCS metadata, editor
		// swap files).
		Ignore []string

		// Debounce is the quiet period after the last event. Zero or negative
		// values use 300ms.
		Debounce time.Duration

		// OnChange receives the sorted changed paths. An error is logged and
		// watching continues.
		OnChange func(ctx context.Context, changed []string) error
	}

	// Watcher monitors a store and fires a debounced callback. Run must be
	// called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		patterns []string
		ignores  []string
		debounce time.Duration
		root     string
		watched  int
		started  atomic.Bool
	}
)

// New validates cfg and registers every existing source directory, and all
// directories below it, with fsnotify.
func New(ctx context.Context, cfg Config) (*Watcher, error) {
	if cfg.Root == "" {
		return nil, errors.New("watch: store root is required")
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve store root: %w", err)
	}

	patterns := cfg.Patterns
	if len(patterns) == 0 {
		patterns = defaultPatterns
	}
	if err := validatePatterns(patterns, "watch"); err != nil {
		return nil, err
	}
	if err := validatePatterns(cfg.Ignore, "ignore"); err != nil {
		return nil, err
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		patterns: patterns,
		ignores:  append(slices.Clone(defaultIgnores), cfg.Ignore...),
		debounce: debounce,
		root:     root,
	}

	dirs := cfg.Dirs
	if len(dirs) == 0 {
		dirs = SourceDirs
	}
	for _, dir := range dirs {
		if err := w.addTree(ctx, filepath.Join(root, filepath.FromSlash(dir))); err != nil {
			fsw.Close() //nolint:errcheck // already failing
			return nil, err
		}
	}
	if w.watched == 0 {
		fsw.Close() //nolint:errcheck // nothing was registered
		return nil, fmt.Errorf("watch: %s: %w", root, ErrNothingToWatch)
	}

	ctxlog.FromContext(ctx).Debug("watching store", "root", root, "directories", w.watched)
	return w, nil
}

// Run blocks until ctx is canceled, dispatching debounced callbacks. It
// returns nil on cancellation and an error when fsnotify fails for good.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: Run called more than once")
	}

	logger := ctxlog.FromContext(ctx)

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire runs on the timer goroutine. A callback that outlasts the
	// debounce window makes the next fire reschedule itself instead of
	// running concurrently.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		logger.Debug("store changed", "paths", len(changed))
		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				logger.Error("change handler failed", "error", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			logger.Warn("close watcher", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}

			rel, ok := w.rel(evt.Name)
			if !ok || w.isIgnored(rel) {
				continue
			}
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(ctx, evt.Name)
			}
			if !w.matches(rel) {
				continue
			}

			mu.Lock()
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: %w", err)
			}
			logger.Warn("watch error", "error", err)
		}
	}
}

// addTree registers dir and its subdirectories. A missing dir is skipped.
func (w *Watcher) addTree(ctx context.Context, dir string) error {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil
	}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			ctxlog.FromContext(ctx).Warn("skipping unreadable path", "path", path, "error", err)
			return nil //nolint:nilerr // keep watching the rest
		}
		if !d.IsDir() {
			return nil
		}
		if rel, ok := w.rel(path); ok && (w.isIgnored(rel) || w.isIgnored(rel+"/")) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add %s: %w", path, err)
		}
		w.watched++
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk %s: %w", dir, err)
	}
	return nil
}

// maybeAddDir extends the watch to a directory created after New, such as a
// newly installed theme.
func (w *Watcher) maybeAddDir(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.addTree(ctx, path); err != nil {
		ctxlog.FromContext(ctx).Warn("watch new directory", "path", path, "error", err)
	}
}

// rel returns name relative to the store root in slash form.
func (w *Watcher) rel(name string) (string, bool) {
	rel, err := filepath.Rel(w.root, name)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) isIgnored(rel string) bool {
	return matchAny(w.ignores, rel)
}

func (w *Watcher) matches(rel string) bool {
	return matchAny(w.patterns, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func validatePatterns(patterns []string, label string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: invalid %s pattern %q", label, pat)
		}
	}
	return nil
}

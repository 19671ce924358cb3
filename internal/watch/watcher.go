// Package watch rebuilds the site when files under the source root change.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	ferrors "git.home.luguber.info/inful/sitebundle/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebundle/internal/logfields"
)

// Watcher monitors a source tree recursively and feeds changes to a Debouncer.
type Watcher struct {
	root      string
	ignore    []string
	fsw       *fsnotify.Watcher
	debouncer *Debouncer
}

// New watches root and every directory below it except the ignored ones (typically
// the output and report directories, which the build itself writes).
func New(root string, ignore []string, cfg DebounceConfig) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to resolve watch root").
			WithContext("path", root).Build()
	}
	d, err := NewDebouncer(cfg)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to create file watcher").Build()
	}

	w := &Watcher{root: absRoot, fsw: fsw, debouncer: d}
	for _, p := range ignore {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		w.ignore = append(w.ignore, abs)
	}
	if err := w.addTree(absRoot); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// addTree registers dir and its subdirectories.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to walk watch tree").
				WithContext("path", path).Build()
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && (w.ignored(path) || strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to watch directory").
				WithContext("path", path).Build()
		}
		return nil
	})
}

func (w *Watcher) ignored(path string) bool {
	for _, p := range w.ignore {
		if path == p || strings.HasPrefix(path, p+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// relevant filters out editor temp files, hidden files and ignored trees.
func (w *Watcher) relevant(path string) bool {
	if w.ignored(path) {
		return false
	}
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "#") || strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".tmp") {
		return false
	}
	return true
}

// Run calls onChange with each batch of changed paths (relative to the root) until
// ctx is done. onChange runs synchronously; changes made while it runs are delivered
// as one follow-up batch.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context, Batch)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.debouncer.Run(ctx, onChange)
	}()

	slog.Info("Watching for changes", logfields.Path(w.root))
	defer func() {
		cancel()
		<-done
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Error("File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !w.relevant(event.Name) || event.Op == fsnotify.Chmod {
		return
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				slog.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
			}
		}
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		rel = event.Name
	}
	slog.Debug("Change detected", logfields.File(filepath.ToSlash(rel)), slog.String("op", event.Op.String()))
	w.debouncer.Trigger(filepath.ToSlash(rel))
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Package watch reports changes to a git repository's refs.
//
// A [Watcher] observes the files git rewrites when history visible to
// lanegraph changes: HEAD, packed-refs, and everything under refs/ (branch
// heads, tags and the stash). Bursts of events, such as a rebase rewriting
// many refs, are coalesced into one callback after a quiet period.
//
// Git replaces these files by renaming a ".lock" file over them, so the
// watcher observes directories rather than individual files.
package watch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/lanegraph/pkg/history"
)

// DefaultDebounce is the quiet period used when Options.Debounce is zero.
const DefaultDebounce = 300 * time.Millisecond

// Options configures a [Watcher].
type Options struct {
	// Debounce is how long the repository must be quiet before OnChange runs.
	Debounce time.Duration
	// OnChange is called from the Run goroutine, never concurrently with itself.
	OnChange func(ctx context.Context)
	Logger   *log.Logger
}

// Watcher watches one git directory.
type Watcher struct {
	gitDir string
	opts   Options
	fs     *fsnotify.Watcher
}

// Repo resolves the git directory of the work tree at dir and watches it.
func Repo(ctx context.Context, dir string, opts Options) (*Watcher, error) {
	gitDir, err := history.Reader{Dir: dir}.GitDir(ctx)
	if err != nil {
		return nil, err
	}
	return New(gitDir, opts)
}

// New watches gitDir, the repository's .git directory.
func New(gitDir string, opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{gitDir: gitDir, opts: opts, fs: fw}

	if err := fw.Add(gitDir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", gitDir, err)
	}
	refs := filepath.Join(gitDir, "refs")
	if _, err := os.Stat(refs); err == nil {
		if err := w.addTree(refs); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// GitDir returns the watched directory.
func (w *Watcher) GitDir() string { return w.gitDir }

// addTree watches dir and every directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Run delivers debounced change notifications until ctx is done. It closes
// the underlying watcher before returning.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()
	logger := w.opts.Logger

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	pending := false

	logger.Debug("watching repository", "git_dir", w.gitDir, "debounce", w.opts.Debounce)
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						logger.Warn("watch new ref directory", "path", event.Name, "err", err)
					}
				}
			}
			if !w.relevant(event.Name) {
				continue
			}
			logger.Debug("ref change", "path", event.Name, "op", event.Op)
			pending = true
			timer.Reset(w.opts.Debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "err", err)

		case <-timer.C:
			if pending {
				pending = false
				if w.opts.OnChange != nil {
					w.opts.OnChange(ctx)
				}
			}
		}
	}
}

// relevant reports whether path is HEAD, packed-refs or a ref under refs/.
func (w *Watcher) relevant(path string) bool {
	rel, err := filepath.Rel(w.gitDir, path)
	if err != nil || strings.HasSuffix(rel, ".lock") {
		return false
	}
	rel = filepath.ToSlash(rel)
	return rel == "HEAD" || rel == "packed-refs" || strings.HasPrefix(rel, "refs/")
}

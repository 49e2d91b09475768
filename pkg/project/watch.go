package project

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// WatchDebounce is how long the tree has to stay quiet before a rescan
var WatchDebounce = 300 * time.Millisecond

// Watch scans root, hands the result to onChange, and then rescans whenever
// a compose file or directory below root changes, calling onChange only when
// the project list differs. Symlinked directories are rescanned but not
// watched. Watch blocks until ctx is done.
func Watch(ctx context.Context, root string, opts ScanOptions, onChange func([]Project)) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	current, err := Scan(root, opts)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addTree(watcher, root, opts); err != nil {
		return err
	}

	onChange(current)

	debounce := time.NewTimer(WatchDebounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(watcher, event.Name, opts); err != nil && opts.OnError != nil {
						opts.OnError(event.Name, err)
					}
				}
			}
			debounce.Reset(WatchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if opts.OnError != nil {
				opts.OnError(root, err)
			}

		case <-debounce.C:
			next, err := Scan(root, opts)
			if err != nil {
				if opts.OnError != nil {
					opts.OnError(root, err)
				}
				continue
			}
			if !cmp.Equal(next, current, cmpopts.EquateEmpty()) {
				current = next
				onChange(current)
			}
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if IsComposeFilename(filepath.Base(event.Name)) {
		return true
	}
	// Removed or renamed paths can no longer be stat'ed; they may have been
	// directories holding projects.
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

func addTree(watcher *fsnotify.Watcher, dir string, opts ScanOptions) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if opts.OnError != nil {
				opts.OnError(path, err)
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && matchAny(opts.Exclude, d.Name()) {
			return fs.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

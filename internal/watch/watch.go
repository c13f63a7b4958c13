// Package watch triggers index rebuilds when content files change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last change before a rebuild
const DefaultDebounce = 200 * time.Millisecond

// Watcher batches filesystem events under content roots into single rebuild calls
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	debounce   time.Duration
	extensions []string
	onChange   func(ctx context.Context)
}

// New creates a watcher calling onChange once changes to files with one of
// extensions have settled for debounce
func New(debounce time.Duration, extensions []string, onChange func(ctx context.Context)) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	return &Watcher{
		fsWatcher:  fsw,
		debounce:   debounce,
		extensions: extensions,
		onChange:   onChange,
	}, nil
}

// Add watches a content root. Directories are watched recursively, a
// manifest file is watched through its directory.
func (w *Watcher) Add(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	if !info.IsDir() {
		return w.fsWatcher.Add(filepath.Dir(root))
	}
	return w.addRecursive(root)
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Run dispatches events until ctx is done
func (w *Watcher) Run(ctx context.Context) error {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if w.handle(event) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Warning: watch error: %v", err)
		case <-timer.C:
			w.onChange(ctx)
		}
	}
}

// handle reports whether event should trigger a rebuild
func (w *Watcher) handle(event fsnotify.Event) bool {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				log.Printf("Warning: %v", err)
			}
			return true
		}
	}

	if event.Op == fsnotify.Chmod {
		return false
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	// A removed directory only reports itself
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		if filepath.Ext(event.Name) == "" {
			return true
		}
	}
	return slices.Contains(w.extensions, strings.ToLower(filepath.Ext(event.Name)))
}

// Close stops watching
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}

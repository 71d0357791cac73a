// Package filewatcher reports files that land in a watched directory.
package filewatcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/pagechat/internal/core/ports/driven"
	"github.com/custodia-labs/pagechat/internal/logger"
)

// Verify interface compliance.
var _ driven.DirectoryWatcher = (*FSNotifyWatcher)(nil)

// DefaultSettle is how long a file must stay quiet before it is reported.
const DefaultSettle = 500 * time.Millisecond

// FSNotifyWatcher implements driven.DirectoryWatcher using fsnotify.
//
// Copying a large file produces a Create followed by many Writes; a path is
// reported once, after no event has touched it for the settle period.
type FSNotifyWatcher struct {
	settle     time.Duration
	extensions []string
}

// NewFSNotifyWatcher creates a watcher. An empty extensions list reports
// every file; settle <= 0 uses DefaultSettle.
func NewFSNotifyWatcher(settle time.Duration, extensions ...string) *FSNotifyWatcher {
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &FSNotifyWatcher{
		settle:     settle,
		extensions: extensions,
	}
}

// Watch starts monitoring dir. The channel closes when ctx is cancelled.
func (w *FSNotifyWatcher) Watch(ctx context.Context, dir string) (<-chan string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	out := make(chan string, 16)
	go w.run(ctx, fw, out)
	return out, nil
}

func (w *FSNotifyWatcher) run(ctx context.Context, fw *fsnotify.Watcher, out chan<- string) {
	defer close(out)
	defer fw.Close()

	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()

	// Last event time per path not yet reported.
	pending := make(map[string]time.Time)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					delete(pending, event.Name)
				}
				continue
			}
			if !w.matches(event.Name) {
				continue
			}
			pending[event.Name] = time.Now()

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < w.settle {
					continue
				}
				delete(pending, path)
				if !isRegularFile(path) {
					continue
				}
				select {
				case out <- path:
				case <-ctx.Done():
					return
				}
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logger.Warn("file watcher: %v", err)
		}
	}
}

// matches skips hidden files and filters by extension.
func (w *FSNotifyWatcher) matches(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	if len(w.extensions) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	for _, e := range w.extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

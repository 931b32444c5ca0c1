package pagemill

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch observes a content directory and calls rebuild when files
// change. Events are deduplicated and batched on a 100ms tick so that
// editor write bursts trigger a single rebuild.
func Watch(ctx context.Context, dir string, rebuild func() error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	defer func() {
		err := w.Close()
		if err != nil {
			slog.Error("close watcher", "err", err)
		}
	}()

	err = watchRecursive(w, dir)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	pending := make(map[string]struct{})

	for {
		select {
		case <-ticker.C:
			if len(pending) == 0 {
				continue
			}

			pending = make(map[string]struct{})

			err := rebuild()
			if err != nil {
				slog.Error("rebuild site", "err", err)
			}
		case e := <-w.Events:
			if ignoredName(filepath.Base(e.Name)) {
				continue
			}

			if e.Op&fsnotify.Create != 0 {
				stat, err := os.Stat(e.Name)
				if err == nil && stat.IsDir() {
					err = watchRecursive(w, e.Name)
					if err != nil {
						slog.Warn("watch new directory", "err", err)
					}
				}
			}

			if e.Op&fsnotify.Remove != 0 {
				_ = w.Remove(e.Name)
			}

			pending[e.Name] = struct{}{}
		case err := <-w.Errors:
			slog.Warn("watcher", "err", err)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func watchRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			return nil
		}

		if p != root && ignoredName(d.Name()) {
			return filepath.SkipDir
		}

		err = w.Add(p)
		if err != nil {
			return fmt.Errorf("watch %q: %w", p, err)
		}

		return nil
	})
}

func ignoredName(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~")
}

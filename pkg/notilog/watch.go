package notilog

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"notilog/internal/diag"
)

const watchDebounce = 250 * time.Millisecond

// Watch re-reads the config file whenever it changes and applies the
// mutable subset of settings (debug mode/filter, reclassification patterns)
// to the logger. Transports are append-only and are never replaced by a
// reload. Blocks until ctx is done; a broken parse keeps the previous
// settings.
func (l *Logger) Watch(ctx context.Context, path string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watch: %w", err)
	}
	defer w.Close()

	// Watch the directory, not the file: editors replace files on save and
	// a file watch would die with the old inode.
	dir := filepath.Dir(path)
	file := filepath.Base(path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("config watch: %w", err)
	}

	var (
		hashMu   sync.Mutex
		lastHash uint64
	)
	if cfg, err := LoadConfig(path); err == nil {
		lastHash = hashConfig(cfg)
	}

	// Debounce to avoid reloading on partial writes.
	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	reload := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(watchDebounce, func() {
			cfg, err := LoadConfig(path)
			if err != nil {
				diag.Warn().Str("path", path).Err(err).Msg("config reload failed, keeping previous settings")
				return
			}

			h := hashConfig(cfg)
			hashMu.Lock()
			unchanged := h != 0 && h == lastHash
			if !unchanged {
				lastHash = h
			}
			hashMu.Unlock()
			if unchanged {
				diag.Debug().Str("path", path).Msg("config unchanged, skipping reload")
				return
			}

			l.Apply(*cfg)
			diag.Debug().Str("path", path).Msg("config reapplied")
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			// Compare by basename: robust across absolute/relative paths.
			if !strings.EqualFold(filepath.Base(ev.Name), file) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove|fsnotify.Chmod) != 0 {
				reload()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				diag.Warn().Str("path", path).Err(err).Msg("config watch error")
			}
		}
	}
}

// hashConfig fingerprints the loadable config content so no-op rewrites do
// not trigger a reapply.
func hashConfig(cfg *Config) uint64 {
	if cfg == nil {
		return 0
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}

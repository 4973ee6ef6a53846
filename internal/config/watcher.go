package config

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher monitors a config file and reports edits as a [ConfigDiff]. It
// polls rather than using inotify so it works the same on every platform
// without extra dependencies.
type Watcher struct {
	path     string
	interval time.Duration
	onChange func(diff ConfigDiff, next *Config)

	mu       sync.Mutex
	current  *Config
	done     chan struct{}
	stopOnce sync.Once

	lastMtime time.Time
	lastHash  [sha256.Size]byte
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval. The default is 5 seconds.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// NewWatcher creates a config file watcher. It loads the initial config
// immediately and starts polling in a background goroutine. An edit that
// fails validation is logged and skipped; the previous config stays current.
func NewWatcher(path string, onChange func(diff ConfigDiff, next *Config), opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		interval: 5 * time.Second,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.reload(); err != nil {
		return nil, fmt.Errorf("config: watcher initial load: %w", err)
	}

	go w.poll()
	return w, nil
}

// Current returns the most recently loaded valid config.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Stop stops the file watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
}

func (w *Watcher) poll() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.check()
		}
	}
}

// check reads the config file and, if it has changed and is valid, updates
// the current config and calls onChange with the diff.
func (w *Watcher) check() {
	// Cheap mtime probe before reading and hashing.
	info, err := os.Stat(w.path)
	if err != nil {
		slog.Warn("config watcher: cannot stat file", "path", w.path, "err", err)
		return
	}

	w.mu.Lock()
	mtime := w.lastMtime
	w.mu.Unlock()
	if info.ModTime().Equal(mtime) {
		return
	}

	data, err := os.ReadFile(w.path)
	if err != nil {
		slog.Warn("config watcher: cannot read file", "path", w.path, "err", err)
		return
	}
	hash := sha256.Sum256(data)

	w.mu.Lock()
	if hash == w.lastHash {
		// Touched but unchanged.
		w.lastMtime = info.ModTime()
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	next, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		slog.Warn("config watcher: edited config is invalid, keeping previous", "path", w.path, "err", err)
		return
	}

	w.mu.Lock()
	old := w.current
	w.current = next
	w.lastHash = hash
	w.lastMtime = info.ModTime()
	w.mu.Unlock()

	diff := Diff(old, next)
	if !diff.Any() {
		return
	}
	slog.Info("config watcher: configuration reloaded",
		"path", w.path,
		"requires_restart", diff.RequiresRestart(),
	)
	if w.onChange != nil {
		// Outside the lock so the callback can call Current().
		w.onChange(diff, next)
	}
}

// reload performs the initial load, recording the file hash and mtime.
func (w *Watcher) reload() error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return err
	}
	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return err
	}
	info, err := os.Stat(w.path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.current = cfg
	w.lastHash = sha256.Sum256(data)
	w.lastMtime = info.ModTime()
	w.mu.Unlock()
	return nil
}

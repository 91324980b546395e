package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce batches editor save bursts into one reload.
const watchDebounce = 100 * time.Millisecond

// Watcher reports changes to one config file.
type Watcher struct {
	fsw      *fsnotify.Watcher
	path     string
	debounce time.Duration
}

// NewWatcher watches the directory holding path, so atomic-rename saves are seen.
func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	if err := EnsureConfigDir(abs); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch config dir: %w", err)
	}
	return &Watcher{fsw: fsw, path: filepath.Clean(abs), debounce: watchDebounce}, nil
}

// Path returns the watched file path.
func (w *Watcher) Path() string {
	return w.path
}

// Run calls onChange after each debounced write to the config file until ctx is done or the
// watcher is closed. errFn, when set, receives watcher errors.
func (w *Watcher) Run(ctx context.Context, onChange func(), errFn func(error)) {
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(w.debounce)
		case <-timer.C:
			if onChange != nil {
				onChange()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if errFn != nil {
				errFn(err)
			}
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Watch loads path whenever it changes and hands each valid config to onLoad. Invalid files are
// reported through errFn and the previous config stays in effect.
func Watch(ctx context.Context, path string, defaults Config, onLoad func(Config), errFn func(error)) error {
	w, err := NewWatcher(path)
	if err != nil {
		return err
	}
	defer w.Close()
	w.Run(ctx, func() {
		cfg, err := Load(w.Path(), defaults)
		if err != nil {
			if errFn != nil {
				errFn(fmt.Errorf("reload config %q: %w", w.Path(), err))
			}
			return
		}
		if onLoad != nil {
			onLoad(cfg)
		}
	}, errFn)
	return nil
}

package config

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

const assistantConfigSuffix = "_assistant_config.yaml"

// Watcher hot-reloads assistant configs when their files change on disk.
// Edits to an agent's YAML take effect on the agent's next run without
// restarting the chat session.
type Watcher struct {
	registry *AssistantRegistry
	watcher  *fsnotify.Watcher
	done     chan struct{}

	// onReload, if set, is called after a successful reload.
	onReload func(name string)
	// onError, if set, is called when a changed file fails to parse.
	onError func(name string, err error)
}

// NewWatcher starts watching the registry's config directory.
func NewWatcher(registry *AssistantRegistry) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fsw.Add(registry.Dir()); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		registry: registry,
		watcher:  fsw,
		done:     make(chan struct{}),
	}
	go w.watch()

	return w, nil
}

// SetReloadHandler sets a callback invoked after each successful reload.
func (w *Watcher) SetReloadHandler(fn func(name string)) {
	w.onReload = fn
}

// SetErrorHandler sets a callback invoked when a changed file fails to load.
func (w *Watcher) SetErrorHandler(fn func(name string, err error)) {
	w.onError = fn
}

// watch processes filesystem events until Close is called.
func (w *Watcher) watch() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			base := filepath.Base(event.Name)
			if !strings.HasSuffix(base, assistantConfigSuffix) {
				continue
			}
			name := strings.TrimSuffix(base, assistantConfigSuffix)
			cfg, err := LoadAssistantConfig(w.registry.Dir(), name)
			if err != nil {
				if w.onError != nil {
					w.onError(name, err)
				}
				continue
			}
			w.registry.Put(cfg)
			if w.onReload != nil {
				w.onReload(cfg.Name)
			}
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are not fatal; keep watching.
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

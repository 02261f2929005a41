package engine

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/anima/engine/core"
)

// DefaultWatchDebounce collapses the burst of writes editors emit on save.
const DefaultWatchDebounce = 200 * time.Millisecond

/**
 * @brief Watches a single config file and fires EVENT_CODE_CONFIG_CHANGED
 * when it is written. The parent directory is watched so editors that save
 * by rename are picked up too.
 */
type ConfigWatcher struct {
	path     string
	debounce time.Duration
	events   *core.EventSystem

	fsnotify *fsnotify.Watcher
	done     chan struct{}
	wg       sync.WaitGroup
	mutex    sync.Mutex
	isClosed bool
}

func NewConfigWatcher(path string, events *core.EventSystem, debounce time.Duration) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	return &ConfigWatcher{
		path:     filepath.Clean(abs),
		debounce: debounce,
		events:   events,
		fsnotify: fsWatch,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. Events are fired from the watcher goroutine.
func (w *ConfigWatcher) Start() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.isClosed {
		return errors.New("config watcher already closed")
	}
	if err := w.fsnotify.Add(filepath.Dir(w.path)); err != nil {
		core.LogError("failed to watch '%s': %s", w.path, err.Error())
		return err
	}
	w.wg.Add(1)
	go w.start()
	core.LogInfo("watching '%s' for changes", w.path)
	return nil
}

func (w *ConfigWatcher) start() {
	defer w.wg.Done()

	// nil until a change is pending, then fires once the writes settle
	var settle <-chan time.Time
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			if filepath.Clean(e.Name) != w.path {
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				settle = time.After(w.debounce)
			}

		case <-settle:
			settle = nil
			core.LogInfo("config '%s' changed", w.path)
			w.events.Fire(core.EVENT_CODE_CONFIG_CHANGED, w, core.EventContext{Name: w.path})

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-w.done:
			return
		}
	}
}

// Path returns the absolute path being watched.
func (w *ConfigWatcher) Path() string {
	return w.path
}

// Close stops the watcher and waits for its goroutine. Safe to call twice.
func (w *ConfigWatcher) Close() error {
	w.mutex.Lock()
	if w.isClosed {
		w.mutex.Unlock()
		return nil
	}
	w.isClosed = true
	close(w.done)
	w.mutex.Unlock()

	w.wg.Wait()
	return w.fsnotify.Close()
}

package scene

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 150 * time.Millisecond

// Event reports that the watched scene file changed on disk.
type Event struct {
	Path string
	At   time.Time
}

// Watcher delivers debounced change events for one scene file. The parent
// directory is watched so atomic replace-by-rename saves are seen.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	events   chan Event
	errors   chan error
	done     chan struct{}
	debounce time.Duration
	once     sync.Once
}

// Watch starts watching path. A debounce of zero uses DefaultDebounce.
func Watch(path string, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("scene: watch %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("scene: new watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("scene: watch %s: %w", filepath.Dir(abs), err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{
		path:     abs,
		watcher:  fw,
		events:   make(chan Event, 1),
		errors:   make(chan error, 1),
		done:     make(chan struct{}),
		debounce: debounce,
	}
	go w.loop()
	return w, nil
}

// Events returns the change channel. It is closed by Close.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns watcher errors. Errors are dropped when nobody reads them.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) loop() {
	defer close(w.events)
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			select {
			case w.events <- Event{Path: w.path, At: time.Now()}:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

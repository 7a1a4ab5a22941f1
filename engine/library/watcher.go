package library

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/bricklayer/engine/core"
)

var ErrWatcherClosed = errors.New("library watcher already closed")

// Watcher reports changes to the files of a part library. It runs its own
// goroutine and never touches the library or any document: changes are
// published on a channel for the editor to apply on its own thread.
type Watcher struct {
	root string

	mutex    sync.Mutex
	isClosed bool
	wg       sync.WaitGroup

	done     chan struct{}
	fsnotify *fsnotify.Watcher
	changes  chan Change
	errors   chan error
}

// Watch starts watching the library folder and all its sub-folders.
func (l *Library) Watch() (*Watcher, error) {
	return NewWatcher(l.root)
}

func NewWatcher(root string) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:     root,
		fsnotify: fsWatch,
		changes:  make(chan Change, 256),
		errors:   make(chan error, 16),
		done:     make(chan struct{}),
	}
	if err := w.watchRecursive(root); err != nil {
		fsWatch.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.start()

	return w, nil
}

// Changes delivers one Change per catalogued file event. It is closed by
// Close.
func (w *Watcher) Changes() <-chan Change { return w.changes }

func (w *Watcher) Errors() <-chan error { return w.errors }

func (w *Watcher) Close() error {
	w.mutex.Lock()
	if w.isClosed {
		w.mutex.Unlock()
		return ErrWatcherClosed
	}
	w.isClosed = true
	w.mutex.Unlock()

	close(w.done)
	w.wg.Wait()
	err := w.fsnotify.Close()
	close(w.changes)
	close(w.errors)
	return err
}

func (w *Watcher) start() {
	defer w.wg.Done()
	for {
		select {

		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			if e.Op&fsnotify.Create != 0 {
				if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
					if err := w.watchRecursive(e.Name); err != nil {
						core.LogWarn("watching %s: %s", e.Name, err)
					}
					continue
				}
			}
			// Removed directories cannot be told from files any more; the
			// watch list drops them either way.
			if e.Op&fsnotify.Remove != 0 {
				_ = w.fsnotify.Remove(e.Name)
			}
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			c, ok := PartNameForPath(w.root, e.Name)
			if !ok {
				continue
			}
			select {
			case w.changes <- c:
			case <-w.done:
				return
			}

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())
			select {
			case w.errors <- err:
			default:
			}

		case <-w.done:
			return
		}
	}
}

// watchRecursive adds every directory under path to the watch list.
func (w *Watcher) watchRecursive(path string) error {
	return filepath.WalkDir(path, func(walkPath string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return w.fsnotify.Add(walkPath)
	})
}

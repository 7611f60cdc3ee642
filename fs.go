package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce is how long the file has to stay untouched before it is converted
const watchDebounce = 200 * time.Millisecond

type fileWatcher struct {
	w    *fsnotify.Watcher
	file string
}

// watchFile starts watching the directory of file. Editors often replace a
// file instead of writing to it, so the directory is watched and events are
// filtered by name.
func watchFile(file string) (*fileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(file)
	if err != nil {
		w.Close()
		return nil, err
	}

	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}

	return &fileWatcher{w: w, file: abs}, nil
}

func (fw *fileWatcher) Close() error {
	return fw.w.Close()
}

// Run calls cb after writes to the watched file until ctx is done.
// A burst of events results in a single call, debounce after the last event.
func (fw *fileWatcher) Run(ctx context.Context, cb func()) error {
	defer fw.Close()

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-fw.w.Errors:
			if !ok {
				return nil
			}
			log.Warn("Error watching %s: %s\n", fw.file, err)
		case event, ok := <-fw.w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != fw.file {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			timer.Reset(watchDebounce)
		case <-timer.C:
			cb()
		}
	}
}

package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/stlalpha/specmech/internal/config"
	"github.com/stlalpha/specmech/internal/logging"
	"github.com/stlalpha/specmech/internal/mech/coordinate"
)

// configWatcher hot-reloads the motor and timeout sections of the
// configuration file into the coordinator. Alerts are not rescheduled:
// the alert bot keeps the alert set it was started with. Address/port
// changes require a restart since they would mean tearing down the
// live connection.
type configWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	coord   *coordinate.Coordinator
	done    chan struct{}
}

func newConfigWatcher(path string, coord *coordinate.Coordinator) (*configWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching %s: %w", path, err)
	}

	cw := &configWatcher{watcher: w, path: path, coord: coord, done: make(chan struct{})}
	go cw.loop()
	return cw, nil
}

func (cw *configWatcher) Stop() {
	select {
	case <-cw.done:
	default:
		close(cw.done)
	}
	cw.watcher.Close()
}

func (cw *configWatcher) loop() {
	var debounce *time.Timer
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(cw.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(500*time.Millisecond, cw.reload)

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			logging.Warn("config watcher error: %v", err)

		case <-cw.done:
			return
		}
	}
}

func (cw *configWatcher) reload() {
	fresh, err := config.Load(cw.path)
	if err != nil {
		logging.Error("failed to reload %s: %v", cw.path, err)
		return
	}

	logging.Info("%s reloaded; motor and timeout settings refreshed (address/port changes need a restart)", cw.path)
	cw.coord.ApplyConfig(fresh)
}

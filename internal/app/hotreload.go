package app

import (
	"path/filepath"
	"sync"
	"time"

	"qr-extrude/internal/config"
	"qr-extrude/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// SettingsWatcher reloads the settings file when it changes on disk and
// applies it to the live state. Editors that save by rename are handled by
// watching the parent directory.
type SettingsWatcher struct {
	path     string
	state    *State
	log      zerolog.Logger
	debounce time.Duration

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	done    sync.WaitGroup

	onReload func(config.Settings, error) // Called after every reload attempt
}

// NewSettingsWatcher creates a watcher for path. Call Start to begin.
func NewSettingsWatcher(path string, state *State, log zerolog.Logger) (*SettingsWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &SettingsWatcher{
		path:     abs,
		state:    state,
		log:      logger.Component(log, "settings").With().Str("path", abs).Logger(),
		debounce: 50 * time.Millisecond,
	}, nil
}

// OnReload sets a callback invoked after each reload attempt. It runs on the
// watcher goroutine.
func (w *SettingsWatcher) OnReload(callback func(config.Settings, error)) {
	w.onReload = callback
}

// Start begins watching in a background goroutine.
func (w *SettingsWatcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return err
	}

	w.watcher = fw
	w.stopCh = make(chan struct{})
	w.done.Add(1)
	go w.watchLoop()
	return nil
}

// Stop stops the watcher goroutine and waits for it to exit.
func (w *SettingsWatcher) Stop() error {
	close(w.stopCh)
	err := w.watcher.Close()
	w.done.Wait()
	return err
}

// watchLoop coalesces bursts of events into one reload.
func (w *SettingsWatcher) watchLoop() {
	defer w.done.Done()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watch error")
		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *SettingsWatcher) reload() {
	s, err := config.Load(w.path)
	if err == nil {
		err = w.state.ApplySettings(*s)
	}

	var applied config.Settings
	if err != nil {
		w.log.Warn().Err(err).Msg("settings not applied")
	} else {
		applied = *s
		w.log.Info().Int("categories", len(s.Categories)).Msg("settings reloaded")
	}
	if w.onReload != nil {
		w.onReload(applied, err)
	}
}

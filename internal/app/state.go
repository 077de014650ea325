// Package app wires the detection pipeline: shared state, per-frame
// processing and live settings reload.
package app

import (
	"sync"

	"qr-extrude/internal/alignment"
	"qr-extrude/internal/config"
	"qr-extrude/internal/fiducial"
	"qr-extrude/internal/region"
)

// State holds what survives between frames: the category table, the physical
// setup and the most recently seen marker.
type State struct {
	mu sync.RWMutex

	Categories *config.Table

	dims       alignment.Dimensions
	extraction region.ExtractOptions
	idPrefix   string

	// Last detection, nil when the previous frame had no marker.
	fiducial *fiducial.Detection

	// Event listeners
	listeners map[EventType][]EventListener
}

// EventType identifies pipeline events.
type EventType int

const (
	EventFiducialDetected EventType = iota // data: fiducial.Detection
	EventFiducialLost                      // data: nil
	EventOverlayEmitted                    // data: CategoryResult
	EventCycleFailed                       // data: error
	EventSettingsReloaded                  // data: config.Settings
)

func (e EventType) String() string {
	switch e {
	case EventFiducialDetected:
		return "fiducial-detected"
	case EventFiducialLost:
		return "fiducial-lost"
	case EventOverlayEmitted:
		return "overlay-emitted"
	case EventCycleFailed:
		return "cycle-failed"
	case EventSettingsReloaded:
		return "settings-reloaded"
	default:
		return "unknown"
	}
}

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates state from validated settings.
func NewState(s config.Settings) (*State, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	table, err := config.NewTable(s.Categories)
	if err != nil {
		return nil, err
	}
	return &State{
		Categories: table,
		dims:       s.Fiducial,
		extraction: s.Extraction,
		idPrefix:   s.Overlay.IDPrefix,
		listeners:  make(map[EventType][]EventListener),
	}, nil
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetFiducial records the latest detection. nil clears it.
func (s *State) SetFiducial(d *fiducial.Detection) {
	s.mu.Lock()
	had := s.fiducial != nil
	s.fiducial = d
	s.mu.Unlock()

	switch {
	case d != nil:
		s.Emit(EventFiducialDetected, *d)
	case had:
		s.Emit(EventFiducialLost, nil)
	}
}

// Fiducial returns the latest detection, if any.
func (s *State) Fiducial() (fiducial.Detection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fiducial == nil {
		return fiducial.Detection{}, false
	}
	return *s.fiducial, true
}

// Setup is the part of the settings one processing cycle runs with.
type Setup struct {
	Categories []config.Category
	Dims       alignment.Dimensions
	Extraction region.ExtractOptions
	IDPrefix   string
}

// Setup returns the categories, physical dimensions, extraction tuning and
// overlay id prefix as one consistent view.
func (s *State) Setup() Setup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Setup{
		Categories: s.Categories.Snapshot(),
		Dims:       s.dims,
		Extraction: s.extraction,
		IDPrefix:   s.idPrefix,
	}
}

// ApplySettings swaps in reloaded settings. Runs already in progress keep the
// snapshot they started with.
func (s *State) ApplySettings(next config.Settings) error {
	if err := next.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	if err := s.Categories.Replace(next.Categories); err != nil {
		s.mu.Unlock()
		return err
	}
	s.dims = next.Fiducial
	s.extraction = next.Extraction
	s.idPrefix = next.Overlay.IDPrefix
	s.mu.Unlock()

	s.Emit(EventSettingsReloaded, next)
	return nil
}

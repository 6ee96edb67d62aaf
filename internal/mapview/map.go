package mapview

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/safetymap/internal/geo"
	"github.com/woozymasta/safetymap/internal/metrics"
	"github.com/woozymasta/safetymap/internal/overlay"
	"github.com/woozymasta/safetymap/internal/search"
	"github.com/woozymasta/safetymap/internal/viewport"
)

// ErrNotMounted reports an event or render before Mount.
var ErrNotMounted = errors.New("map not mounted")

// Reaction is the outcome of handling an event.
type Reaction struct {
	Popup *overlay.Popup `json:"popup,omitempty"`
	Query string         `json:"query,omitempty"`
}

// Map is the disaster-awareness map component. Access is serialized,
// so events are handled one at a time.
type Map struct {
	source     overlay.Source
	renderer   *overlay.Renderer
	controller *viewport.Controller
	search     *search.Stub
	detach     func()
	mu         sync.Mutex
}

// New creates an unmounted map over the given dataset.
func New(src overlay.Source, r *overlay.Renderer, c *viewport.Controller, s *search.Stub) *Map {
	return &Map{source: src, renderer: r, controller: c, search: s}
}

// Mount initializes the canvas and draws the overlays onto it.
// Mounting again releases the previous canvas first.
func (m *Map) Mount(center geo.GeoPoint, zoom int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	canvas, err := m.controller.Initialize(center, zoom)
	if err != nil {
		return err
	}
	// the previous canvas was closed by Initialize, which dropped its listeners
	m.detach = canvas.OnMarkerActivated(func(mk overlay.Marker) {
		metrics.MarkerActivations.WithLabelValues(string(mk.Layer)).Inc()
		log.Debug().Str("marker", mk.ID).Msg("Marker activated")
	})

	return m.renderLocked()
}

// Unmount releases the canvas with all overlays and listeners.
func (m *Map) Unmount() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.detach != nil {
		m.detach()
		m.detach = nil
	}
	m.controller.Release()
}

// Render re-renders the dataset and replaces the attached overlay set.
func (m *Map) Render() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.renderLocked()
}

func (m *Map) renderLocked() error {
	canvas := m.controller.Canvas()
	if canvas == nil {
		return ErrNotMounted
	}

	scene := m.renderer.Render(m.source)
	metrics.Renders.Inc()
	for _, w := range scene.Warnings {
		metrics.SkippedOverlays.WithLabelValues(string(w.Layer)).Inc()
	}

	return canvas.Attach(scene)
}

// Handle reacts to a single event.
func (m *Map) Handle(ev Event) (Reaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch e := ev.(type) {
	case MarkerActivated:
		canvas := m.controller.Canvas()
		if canvas == nil {
			return Reaction{}, ErrNotMounted
		}
		popup, err := canvas.Activate(e.MarkerID)
		if err != nil {
			return Reaction{}, err
		}
		return Reaction{Popup: &popup}, nil

	case SearchChanged:
		m.search.Change(e.Text)
		return Reaction{Query: e.Text}, nil

	case SearchSubmitted:
		metrics.SearchSubmissions.Inc()
		return Reaction{Query: m.search.Submit()}, nil

	default:
		return Reaction{}, fmt.Errorf("unsupported event %T", ev)
	}
}

// View returns the current center and zoom.
func (m *Map) View() viewport.View {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.controller.View()
}

// BaseLayer returns the tile layer beneath the overlays.
func (m *Map) BaseLayer() viewport.BaseLayer {
	return m.controller.BaseLayer()
}

// Snapshot is a consistent view of the mounted canvas.
type Snapshot struct {
	CanvasID  string
	BaseLayer viewport.BaseLayer
	View      viewport.View
}

// Snapshot reads the canvas id, view and base layer under one lock.
func (m *Map) Snapshot() (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	canvas := m.controller.Canvas()
	if canvas == nil {
		return Snapshot{}, ErrNotMounted
	}

	return Snapshot{
		CanvasID:  canvas.ID(),
		BaseLayer: m.controller.BaseLayer(),
		View:      m.controller.View(),
	}, nil
}

// Scene returns the overlay set attached to the canvas.
func (m *Map) Scene() (overlay.Scene, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	canvas := m.controller.Canvas()
	if canvas == nil {
		return overlay.Scene{}, ErrNotMounted
	}

	return canvas.Overlays(), nil
}

// CanvasID returns the mounted canvas handle, or an empty string.
func (m *Map) CanvasID() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if canvas := m.controller.Canvas(); canvas != nil {
		return canvas.ID()
	}

	return ""
}

// Listeners returns the number of listeners on the mounted canvas.
func (m *Map) Listeners() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if canvas := m.controller.Canvas(); canvas != nil {
		return canvas.Listeners()
	}

	return 0
}

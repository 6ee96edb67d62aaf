package viewport

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/woozymasta/safetymap/internal/overlay"
)

var (
	// ErrCanvasClosed reports use of a canvas after it was released.
	ErrCanvasClosed = errors.New("canvas closed")
	// ErrUnknownMarker reports activation of a marker not on the canvas.
	ErrUnknownMarker = errors.New("unknown marker")
)

// MarkerListener is notified when a marker on the canvas is activated.
type MarkerListener func(m overlay.Marker)

// Canvas is a mounted map surface holding the current overlay set.
type Canvas struct {
	listeners map[int]MarkerListener
	scene     overlay.Scene
	id        string
	view      View
	nextID    int
	closed    bool
}

func newCanvas(view View) *Canvas {
	return &Canvas{
		id:        uuid.NewString(),
		view:      view,
		listeners: make(map[int]MarkerListener),
	}
}

// ID returns the canvas handle.
func (c *Canvas) ID() string {
	return c.id
}

// View returns the view the canvas was mounted with.
func (c *Canvas) View() View {
	return c.view
}

// Attach replaces the overlay set with scene.
func (c *Canvas) Attach(scene overlay.Scene) error {
	if c.closed {
		return ErrCanvasClosed
	}
	c.scene = scene

	return nil
}

// Overlays returns the attached overlay set.
func (c *Canvas) Overlays() overlay.Scene {
	return c.scene
}

// OnMarkerActivated registers fn and returns a function that detaches it.
func (c *Canvas) OnMarkerActivated(fn MarkerListener) (detach func()) {
	if c.closed {
		return func() {}
	}

	id := c.nextID
	c.nextID++
	c.listeners[id] = fn

	return func() { delete(c.listeners, id) }
}

// Listeners returns the number of registered listeners.
func (c *Canvas) Listeners() int {
	return len(c.listeners)
}

// Activate resolves a marker by overlay id, notifies listeners and
// returns the marker's popup.
func (c *Canvas) Activate(markerID string) (overlay.Popup, error) {
	if c.closed {
		return overlay.Popup{}, ErrCanvasClosed
	}

	m, ok := c.scene.Marker(markerID)
	if !ok {
		return overlay.Popup{}, fmt.Errorf("%w: %s", ErrUnknownMarker, markerID)
	}

	for _, fn := range c.listeners {
		fn(m)
	}

	return m.Popup, nil
}

// Close detaches every overlay and listener. It is safe to call twice.
func (c *Canvas) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.scene = overlay.Scene{}
	clear(c.listeners)
}

// Closed reports whether the canvas was released.
func (c *Canvas) Closed() bool {
	return c.closed
}

// Package overlay turns a dataset snapshot into markers and polylines
// drawn atop the base map.
package overlay

import (
	"errors"
	"fmt"
	"strings"

	"github.com/woozymasta/safetymap/internal/geo"
)

// ErrEmptyRoutePath reports a route with fewer than two vertices.
var ErrEmptyRoutePath = errors.New("empty route path")

// Layer groups overlays of the same entity kind.
type Layer string

// Overlay layers.
const (
	LayerHazard  Layer = "hazard"
	LayerShelter Layer = "shelter"
	LayerRoute   Layer = "route"
)

// OverlayID builds the addressable id of an overlay, e.g. "hazard/1".
func OverlayID(layer Layer, id int) string {
	return fmt.Sprintf("%s/%d", layer, id)
}

// Popup is the info box shown when a marker is activated.
type Popup struct {
	Title string   `json:"title"`
	Lines []string `json:"lines,omitempty"`
}

// Text renders the popup as plain text, one line per row.
func (p Popup) Text() string {
	return strings.Join(append([]string{p.Title}, p.Lines...), "\n")
}

// Marker is a point overlay with an icon and popup.
type Marker struct {
	Icon     Icon
	ID       string
	Layer    Layer
	Popup    Popup
	Position geo.GeoPoint
	EntityID int
}

// Polyline is a route overlay drawn through Vertices in order.
type Polyline struct {
	HazardID  *int
	ShelterID *int
	ID        string
	Vertices  []geo.GeoPoint
	Style     RouteStyle
	EntityID  int
}

// Warning reports an entity skipped during a render pass.
type Warning struct {
	Err      error
	Layer    Layer
	EntityID int
}

func (w Warning) Error() string {
	return fmt.Sprintf("%s: %v", OverlayID(w.Layer, w.EntityID), w.Err)
}

func (w Warning) Unwrap() error {
	return w.Err
}

// Scene is the complete overlay set produced by one render pass.
type Scene struct {
	Markers  []Marker
	Lines    []Polyline
	Warnings []Warning
}

// Counts summarises the scene per layer.
type Counts struct {
	Hazards  int `json:"hazards"`
	Shelters int `json:"shelters"`
	Routes   int `json:"routes"`
	Skipped  int `json:"skipped"`
}

// Counts returns the number of overlays per layer.
func (s Scene) Counts() Counts {
	c := Counts{Routes: len(s.Lines), Skipped: len(s.Warnings)}
	for _, m := range s.Markers {
		switch m.Layer {
		case LayerHazard:
			c.Hazards++
		case LayerShelter:
			c.Shelters++
		}
	}

	return c
}

// Marker looks up a marker by its overlay id.
func (s Scene) Marker(id string) (Marker, bool) {
	for _, m := range s.Markers {
		if m.ID == id {
			return m, true
		}
	}

	return Marker{}, false
}

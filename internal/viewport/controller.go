// Package viewport owns the map view state and the canvas that
// overlays are attached to.
package viewport

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/safetymap/internal/geo"
)

// ErrInvalidViewport reports a center or zoom the base layer cannot display.
var ErrInvalidViewport = errors.New("invalid viewport")

// BaseLayer describes the external tile provider drawn beneath all overlays.
type BaseLayer struct {
	URL         string   `yaml:"url" json:"url"`
	Attribution string   `yaml:"attribution" json:"attribution"`
	Subdomains  []string `yaml:"subdomains,omitempty" json:"subdomains,omitempty"`
	MinZoom     int      `yaml:"min_zoom" json:"min_zoom"`
	MaxZoom     int      `yaml:"max_zoom" json:"max_zoom"`
}

// DefaultBaseLayer is the OpenStreetMap standard tile layer.
func DefaultBaseLayer() BaseLayer {
	return BaseLayer{
		URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`,
		Subdomains:  []string{"a", "b", "c"},
		MinZoom:     0,
		MaxZoom:     18,
	}
}

// View is the map center and zoom level.
type View struct {
	Center geo.GeoPoint `json:"center"`
	Zoom   int          `json:"zoom"`
}

// Controller owns the view state and the mounted canvas.
type Controller struct {
	canvas *Canvas
	layer  BaseLayer
	view   View
}

// NewController creates a controller for the given base layer.
func NewController(layer BaseLayer) *Controller {
	return &Controller{layer: layer}
}

// Initialize validates the view and mounts a new canvas, releasing the
// previous one. On error the current state is left untouched.
func (c *Controller) Initialize(center geo.GeoPoint, zoom int) (*Canvas, error) {
	if err := c.validate(center, zoom); err != nil {
		return nil, err
	}

	if c.canvas != nil {
		c.canvas.Close()
	}

	c.view = View{Center: center, Zoom: zoom}
	c.canvas = newCanvas(c.view)

	log.Debug().
		Str("canvas", c.canvas.ID()).
		Str("center", center.String()).
		Int("zoom", zoom).
		Msg("Map canvas initialized")

	return c.canvas, nil
}

func (c *Controller) validate(center geo.GeoPoint, zoom int) error {
	if zoom < c.layer.MinZoom || zoom > c.layer.MaxZoom {
		return fmt.Errorf("%w: zoom %d outside %d..%d", ErrInvalidViewport, zoom, c.layer.MinZoom, c.layer.MaxZoom)
	}
	if err := center.Validate(); err != nil {
		return fmt.Errorf("%w: center: %w", ErrInvalidViewport, err)
	}
	if math.Abs(center.Lat) > geo.MaxLat {
		return fmt.Errorf("%w: center latitude %f beyond the projection limit", ErrInvalidViewport, center.Lat)
	}

	return nil
}

// View returns the current center and zoom.
func (c *Controller) View() View {
	return c.view
}

// BaseLayer returns the tile layer drawn beneath overlays.
func (c *Controller) BaseLayer() BaseLayer {
	return c.layer
}

// Canvas returns the mounted canvas, or nil.
func (c *Controller) Canvas() *Canvas {
	return c.canvas
}

// Release closes the mounted canvas.
func (c *Controller) Release() {
	if c.canvas == nil {
		return
	}
	c.canvas.Close()
	c.canvas = nil
}

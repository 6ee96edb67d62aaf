package overlay

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/safetymap/internal/dataset"
	"github.com/woozymasta/safetymap/internal/geo"
)

// Source is the read-only dataset consumed by a render pass.
type Source interface {
	Hazards() []dataset.HazardZone
	Shelters() []dataset.Shelter
	Routes() []dataset.EvacuationRoute
}

// Renderer builds scenes from a Source using a fixed encoding and route style.
type Renderer struct {
	encoding Encoding
	route    RouteStyle
}

// NewRenderer creates a renderer.
func NewRenderer(enc Encoding, route RouteStyle) *Renderer {
	return &Renderer{encoding: enc, route: route}
}

// Render produces a fresh scene. It never mutates src and the same input
// always yields an equal scene.
func (r *Renderer) Render(src Source) Scene {
	hazards := src.Hazards()
	shelters := src.Shelters()
	routes := src.Routes()

	scene := Scene{
		Markers: make([]Marker, 0, len(hazards)+len(shelters)),
		Lines:   make([]Polyline, 0, len(routes)),
	}

	for _, h := range hazards {
		scene.Markers = append(scene.Markers, Marker{
			ID:       OverlayID(LayerHazard, h.ID),
			Layer:    LayerHazard,
			EntityID: h.ID,
			Position: h.Location,
			Icon:     r.encoding.HazardIcon(h),
			Popup:    HazardPopup(h),
		})
	}

	for _, s := range shelters {
		scene.Markers = append(scene.Markers, Marker{
			ID:       OverlayID(LayerShelter, s.ID),
			Layer:    LayerShelter,
			EntityID: s.ID,
			Position: s.Location,
			Icon:     r.encoding.Shelter,
			Popup:    ShelterPopup(s),
		})
	}

	for _, route := range routes {
		if len(route.Path) < 2 {
			w := Warning{
				Layer:    LayerRoute,
				EntityID: route.ID,
				Err:      fmt.Errorf("%w: %d point(s)", ErrEmptyRoutePath, len(route.Path)),
			}
			log.Warn().Err(w.Err).Int("route", route.ID).Msg("Skipping route: not enough points to draw a line")
			scene.Warnings = append(scene.Warnings, w)
			continue
		}

		scene.Lines = append(scene.Lines, Polyline{
			ID:        OverlayID(LayerRoute, route.ID),
			EntityID:  route.ID,
			Vertices:  append([]geo.GeoPoint(nil), route.Path...),
			Style:     r.route,
			HazardID:  route.HazardID,
			ShelterID: route.ShelterID,
		})
	}

	log.Trace().
		Int("markers", len(scene.Markers)).
		Int("lines", len(scene.Lines)).
		Int("skipped", len(scene.Warnings)).
		Msg("Overlay scene rendered")

	return scene
}

// HazardPopup shows the hazard kind and severity as plain text.
func HazardPopup(h dataset.HazardZone) Popup {
	return Popup{
		Title: string(h.Kind),
		Lines: []string{"Severity: " + h.Severity.String()},
	}
}

// ShelterPopup shows the shelter name only.
func ShelterPopup(s dataset.Shelter) Popup {
	return Popup{Title: s.Name}
}

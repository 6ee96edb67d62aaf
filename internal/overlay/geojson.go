package overlay

import (
	"github.com/paulmach/orb/geojson"
	"github.com/woozymasta/safetymap/internal/geo"
)

// FeatureCollection exports the scene as GeoJSON: markers as Points,
// routes as LineStrings. Coordinates are [lon, lat].
func (s Scene) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, m := range s.Markers {
		f := geojson.NewFeature(m.Position.Orb())
		f.ID = m.ID
		f.Properties = geojson.Properties{
			"layer":     string(m.Layer),
			"entity_id": m.EntityID,
			"icon":      m.Icon.ID,
			"icon_url":  m.Icon.URL,
			"icon_size": []int{m.Icon.Size[0], m.Icon.Size[1]},
			"popup":     m.Popup.Text(),
		}
		fc.Append(f)
	}

	for _, l := range s.Lines {
		f := geojson.NewFeature(geo.LineString(l.Vertices))
		f.ID = l.ID
		f.Properties = geojson.Properties{
			"layer":      string(LayerRoute),
			"entity_id":  l.EntityID,
			"color":      l.Style.Color,
			"weight":     l.Style.Weight,
			"opacity":    l.Style.Opacity,
			"dash_array": l.Style.DashArray,
		}
		if l.HazardID != nil {
			f.Properties["hazard_id"] = *l.HazardID
		}
		if l.ShelterID != nil {
			f.Properties["shelter_id"] = *l.ShelterID
		}
		fc.Append(f)
	}

	return fc
}

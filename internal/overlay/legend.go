package overlay

import "strings"

// LegendEntry explains one overlay layer to the user.
type LegendEntry struct {
	Route *RouteStyle `json:"route,omitempty"`
	Icon  *Icon       `json:"icon,omitempty"`
	Layer Layer       `json:"layer"`
	Label string      `json:"label"`
}

// Legend lists the hazard, shelter and route layers with their glyphs.
// Every encoding rule adds a hazard entry after the fixed hazard icon.
func Legend(enc Encoding, route RouteStyle) []LegendEntry {
	hazard, shelter := enc.Hazard, enc.Shelter

	legend := make([]LegendEntry, 0, len(enc.Rules)+3)
	legend = append(legend, LegendEntry{Layer: LayerHazard, Label: "Disaster Area", Icon: &hazard})
	for _, rule := range enc.Rules {
		icon := rule.Icon
		legend = append(legend, LegendEntry{Layer: LayerHazard, Label: rule.label(), Icon: &icon})
	}

	return append(legend,
		LegendEntry{Layer: LayerShelter, Label: "Shelter", Icon: &shelter},
		LegendEntry{Layer: LayerRoute, Label: "Evacuation Route", Route: &route},
	)
}

// label names the hazards a rule applies to, e.g. "Disaster Area: Flood, High".
func (r IconRule) label() string {
	var parts []string
	if r.Kind != "" {
		parts = append(parts, string(r.Kind))
	}
	if r.Severity != 0 {
		parts = append(parts, r.Severity.String())
	}
	if len(parts) == 0 {
		return "Disaster Area"
	}

	return "Disaster Area: " + strings.Join(parts, ", ")
}

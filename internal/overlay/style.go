package overlay

import (
	"strings"

	"github.com/woozymasta/safetymap/internal/dataset"
)

// Icon is a marker glyph addressed by a stable identifier and URL.
type Icon struct {
	ID   string `yaml:"id" json:"id"`
	URL  string `yaml:"url" json:"url"`
	Size [2]int `yaml:"size" json:"size"`
}

// IconRule maps hazards to an icon. Kind matches case-insensitively;
// empty Kind or zero Severity match anything.
type IconRule struct {
	Kind     dataset.Kind     `yaml:"kind,omitempty" json:"kind,omitempty"`
	Icon     Icon             `yaml:"icon" json:"icon"`
	Severity dataset.Severity `yaml:"severity,omitempty" json:"severity,omitempty"`
}

func (r IconRule) matches(h dataset.HazardZone) bool {
	if r.Kind != "" && !strings.EqualFold(string(r.Kind), string(h.Kind)) {
		return false
	}
	if r.Severity != 0 && r.Severity != h.Severity {
		return false
	}

	return true
}

// Encoding is the visual-encoding table for markers.
// With no rules every hazard gets the fixed Hazard icon.
type Encoding struct {
	Hazard  Icon       `yaml:"hazard" json:"hazard"`
	Shelter Icon       `yaml:"shelter" json:"shelter"`
	Rules   []IconRule `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// DefaultEncoding uses the hazard and shelter glyphs at 25x25 px.
func DefaultEncoding() Encoding {
	return Encoding{
		Hazard:  Icon{ID: "hazard", URL: "/icons/hazard.svg", Size: [2]int{25, 25}},
		Shelter: Icon{ID: "shelter", URL: "/icons/shelter.svg", Size: [2]int{25, 25}},
	}
}

// HazardIcon returns the icon of the first matching rule, or the fixed hazard icon.
func (e Encoding) HazardIcon(h dataset.HazardZone) Icon {
	for _, rule := range e.Rules {
		if rule.matches(h) {
			return rule.Icon
		}
	}

	return e.Hazard
}

// RouteStyle is the constant line style shared by every evacuation route.
type RouteStyle struct {
	Color     string  `yaml:"color" json:"color"`
	DashArray string  `yaml:"dash_array" json:"dash_array"`
	Weight    int     `yaml:"weight" json:"weight"`
	Opacity   float64 `yaml:"opacity" json:"opacity"`
}

// DefaultRouteStyle is a blue dashed line, 4 px wide, 70% opaque.
func DefaultRouteStyle() RouteStyle {
	return RouteStyle{Color: "blue", Weight: 4, Opacity: 0.7, DashArray: "5,10"}
}

// Package dataset holds the read-only spatial data model: hazard zones,
// shelters and evacuation routes.
package dataset

import (
	"fmt"
	"strings"

	"github.com/woozymasta/safetymap/internal/geo"
)

// Kind names the disaster type of a hazard zone.
type Kind string

// Known hazard kinds. Other non-empty kinds are accepted as-is.
const (
	KindFlood      Kind = "Flood"
	KindDrought    Kind = "Drought"
	KindWildfire   Kind = "Wildfire"
	KindEarthquake Kind = "Earthquake"
	KindLandslide  Kind = "Landslide"
	KindCyclone    Kind = "Cyclone"
	KindTsunami    Kind = "Tsunami"
	KindVolcano    Kind = "Volcano"
)

var knownKinds = []Kind{
	KindFlood, KindDrought, KindWildfire, KindEarthquake,
	KindLandslide, KindCyclone, KindTsunami, KindVolcano,
}

// ParseKind normalizes s to a known kind when it matches one case-insensitively.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty hazard kind", ErrInvalidRecord)
	}
	for _, k := range knownKinds {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}

	return Kind(s), nil
}

// Known reports whether k is one of the predefined kinds.
func (k Kind) Known() bool {
	for _, known := range knownKinds {
		if k == known {
			return true
		}
	}

	return false
}

// Severity grades a hazard zone.
type Severity int

// Severity levels.
const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
)

var severityNames = map[Severity]string{
	SeverityLow:    "Low",
	SeverityMedium: "Medium",
	SeverityHigh:   "High",
}

// ParseSeverity parses Low, Medium or High in any letter case.
func ParseSeverity(s string) (Severity, error) {
	for sev, name := range severityNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return sev, nil
		}
	}

	return 0, fmt.Errorf("%w: unknown severity %q", ErrInvalidRecord, s)
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}

	return fmt.Sprintf("Severity(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	if _, ok := severityNames[s]; !ok {
		return nil, fmt.Errorf("%w: severity %d", ErrInvalidRecord, int(s))
	}

	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	sev, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = sev

	return nil
}

// HazardZone is a mapped location flagged with a disaster kind and severity.
type HazardZone struct {
	Kind     Kind         `yaml:"kind" json:"kind"`
	Location geo.GeoPoint `yaml:"location" json:"location"`
	ID       int          `yaml:"id" json:"id"`
	Severity Severity     `yaml:"severity" json:"severity"`
}

// Shelter is a designated safe destination.
type Shelter struct {
	Name     string       `yaml:"name" json:"name"`
	Location geo.GeoPoint `yaml:"location" json:"location"`
	ID       int          `yaml:"id" json:"id"`
}

// EvacuationRoute is an ordered path from a hazard toward a shelter.
// HazardID and ShelterID are optional explicit relations.
type EvacuationRoute struct {
	HazardID  *int           `yaml:"hazard_id,omitempty" json:"hazard_id,omitempty"`
	ShelterID *int           `yaml:"shelter_id,omitempty" json:"shelter_id,omitempty"`
	Path      []geo.GeoPoint `yaml:"path" json:"path"`
	ID        int            `yaml:"id" json:"id"`
}

func (r EvacuationRoute) clone() EvacuationRoute {
	out := r
	out.Path = append([]geo.GeoPoint(nil), r.Path...)
	if r.HazardID != nil {
		id := *r.HazardID
		out.HazardID = &id
	}
	if r.ShelterID != nil {
		id := *r.ShelterID
		out.ShelterID = &id
	}

	return out
}

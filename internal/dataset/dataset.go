package dataset

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/safetymap/internal/geo"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures/kenya.yaml
var kenyaFixture []byte

// Options tune how a dataset is loaded.
type Options struct {
	// AssociationRadiusKm enables proximity association of route endpoints
	// with hazards and shelters when greater than zero.
	AssociationRadiusKm float64
}

// Dataset is an immutable snapshot of hazards, shelters and routes.
type Dataset struct {
	hazards  []HazardZone
	shelters []Shelter
	routes   []EvacuationRoute

	hazardIdx  map[int]int
	shelterIdx map[int]int
}

// raw records keep every field as text so a single bad entity
// is rejected without failing the whole document.
type document struct {
	Hazards []struct {
		Kind     string       `yaml:"kind"`
		Severity string       `yaml:"severity"`
		Location geo.GeoPoint `yaml:"location"`
		ID       int          `yaml:"id"`
	} `yaml:"hazards"`
	Shelters []struct {
		Name     string       `yaml:"name"`
		Location geo.GeoPoint `yaml:"location"`
		ID       int          `yaml:"id"`
	} `yaml:"shelters"`
	Routes []struct {
		HazardID  *int           `yaml:"hazard_id"`
		ShelterID *int           `yaml:"shelter_id"`
		Path      []geo.GeoPoint `yaml:"path"`
		ID        int            `yaml:"id"`
	} `yaml:"routes"`
}

// Load reads and parses a YAML dataset from path.
func Load(path string, opts Options) (*Dataset, Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Report{}, err
	}

	return Parse(data, opts)
}

// Kenya returns the embedded fixture of hazards, shelters and routes in Kenya.
func Kenya(opts Options) (*Dataset, Report, error) {
	return Parse(kenyaFixture, opts)
}

// Parse decodes a YAML dataset. Malformed YAML is returned as an error;
// invalid entities are excluded and listed in the report.
func Parse(data []byte, opts Options) (*Dataset, Report, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, Report{}, fmt.Errorf("decode dataset: %w", err)
	}

	var report Report
	ds := &Dataset{
		hazardIdx:  make(map[int]int, len(doc.Hazards)),
		shelterIdx: make(map[int]int, len(doc.Shelters)),
	}

	for _, rec := range doc.Hazards {
		if err := rec.Location.Validate(); err != nil {
			report.reject(CollectionHazards, rec.ID, err)
			continue
		}
		kind, err := ParseKind(rec.Kind)
		if err != nil {
			report.reject(CollectionHazards, rec.ID, err)
			continue
		}
		sev, err := ParseSeverity(rec.Severity)
		if err != nil {
			report.reject(CollectionHazards, rec.ID, err)
			continue
		}
		if _, dup := ds.hazardIdx[rec.ID]; dup {
			report.reject(CollectionHazards, rec.ID, ErrDuplicateID)
			continue
		}
		if !kind.Known() {
			log.Warn().Int("id", rec.ID).Str("kind", string(kind)).Msg("Hazard has an unrecognised kind")
		}

		ds.hazardIdx[rec.ID] = len(ds.hazards)
		ds.hazards = append(ds.hazards, HazardZone{
			ID:       rec.ID,
			Kind:     kind,
			Location: rec.Location,
			Severity: sev,
		})
	}

	for _, rec := range doc.Shelters {
		if err := rec.Location.Validate(); err != nil {
			report.reject(CollectionShelters, rec.ID, err)
			continue
		}
		if rec.Name == "" {
			report.reject(CollectionShelters, rec.ID, fmt.Errorf("%w: empty shelter name", ErrInvalidRecord))
			continue
		}
		if _, dup := ds.shelterIdx[rec.ID]; dup {
			report.reject(CollectionShelters, rec.ID, ErrDuplicateID)
			continue
		}

		ds.shelterIdx[rec.ID] = len(ds.shelters)
		ds.shelters = append(ds.shelters, Shelter{ID: rec.ID, Name: rec.Name, Location: rec.Location})
	}

	routeIDs := make(map[int]struct{}, len(doc.Routes))
	for _, rec := range doc.Routes {
		if err := validatePath(rec.Path); err != nil {
			report.reject(CollectionRoutes, rec.ID, err)
			continue
		}
		if _, dup := routeIDs[rec.ID]; dup {
			report.reject(CollectionRoutes, rec.ID, ErrDuplicateID)
			continue
		}
		routeIDs[rec.ID] = struct{}{}

		route := EvacuationRoute{ID: rec.ID, Path: rec.Path, HazardID: rec.HazardID, ShelterID: rec.ShelterID}
		if route.HazardID != nil {
			if _, ok := ds.hazardIdx[*route.HazardID]; !ok {
				report.reject(CollectionRoutes, rec.ID, fmt.Errorf("%w: hazard %d", ErrUnknownReference, *route.HazardID))
				route.HazardID = nil
			}
		}
		if route.ShelterID != nil {
			if _, ok := ds.shelterIdx[*route.ShelterID]; !ok {
				report.reject(CollectionRoutes, rec.ID, fmt.Errorf("%w: shelter %d", ErrUnknownReference, *route.ShelterID))
				route.ShelterID = nil
			}
		}

		ds.routes = append(ds.routes, route)
	}

	if opts.AssociationRadiusKm > 0 {
		associate(ds, opts.AssociationRadiusKm)
	}

	for _, rej := range report.Rejected {
		log.Warn().
			Err(rej.Err).
			Str("collection", string(rej.Collection)).
			Int("id", rej.ID).
			Msg("Dataset entity rejected")
	}

	log.Debug().
		Int("hazards", len(ds.hazards)).
		Int("shelters", len(ds.shelters)).
		Int("routes", len(ds.routes)).
		Int("rejected", len(report.Rejected)).
		Msg("Dataset loaded")

	return ds, report, nil
}

func validatePath(path []geo.GeoPoint) error {
	for i, p := range path {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("vertex %d: %w", i, err)
		}
	}

	return nil
}

// Hazards returns the hazard zones in load order.
func (d *Dataset) Hazards() []HazardZone {
	return append([]HazardZone(nil), d.hazards...)
}

// Shelters returns the shelters in load order.
func (d *Dataset) Shelters() []Shelter {
	return append([]Shelter(nil), d.shelters...)
}

// Routes returns the evacuation routes in load order.
func (d *Dataset) Routes() []EvacuationRoute {
	out := make([]EvacuationRoute, 0, len(d.routes))
	for _, r := range d.routes {
		out = append(out, r.clone())
	}

	return out
}

// Hazard looks up a hazard zone by id.
func (d *Dataset) Hazard(id int) (HazardZone, bool) {
	i, ok := d.hazardIdx[id]
	if !ok {
		return HazardZone{}, false
	}

	return d.hazards[i], true
}

// Shelter looks up a shelter by id.
func (d *Dataset) Shelter(id int) (Shelter, bool) {
	i, ok := d.shelterIdx[id]
	if !ok {
		return Shelter{}, false
	}

	return d.shelters[i], true
}

// RoutesFromHazard returns routes whose hazard relation is id.
func (d *Dataset) RoutesFromHazard(id int) []EvacuationRoute {
	var out []EvacuationRoute
	for _, r := range d.routes {
		if r.HazardID != nil && *r.HazardID == id {
			out = append(out, r.clone())
		}
	}

	return out
}

// RoutesToShelter returns routes whose shelter relation is id.
func (d *Dataset) RoutesToShelter(id int) []EvacuationRoute {
	var out []EvacuationRoute
	for _, r := range d.routes {
		if r.ShelterID != nil && *r.ShelterID == id {
			out = append(out, r.clone())
		}
	}

	return out
}

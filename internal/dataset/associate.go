package dataset

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/rs/zerolog/log"
	"github.com/umahmood/haversine"
	"github.com/woozymasta/safetymap/internal/geo"
)

// indexedPoint places an entity location in the R-tree as a tiny rectangle.
type indexedPoint struct {
	rect     rtreego.Rect
	location geo.GeoPoint
	id       int
}

func (p *indexedPoint) Bounds() rtreego.Rect {
	return p.rect
}

func newIndexedPoint(id int, loc geo.GeoPoint) *indexedPoint {
	rect, _ := rtreego.NewRect(rtreego.Point{loc.Lng, loc.Lat}, []float64{1e-6, 1e-6})
	return &indexedPoint{rect: rect, location: loc, id: id}
}

// kmPerDegreeFloor is slightly below the length of one degree of latitude,
// so boxes built from it never clip a point inside the radius.
const kmPerDegreeFloor = 110.0

type pointIndex struct {
	tree *rtreego.Rtree
}

func newPointIndex(points []*indexedPoint) *pointIndex {
	tree := rtreego.NewTree(2, 25, 50)
	for _, p := range points {
		tree.Insert(p)
	}

	return &pointIndex{tree: tree}
}

// nearest returns the id of the indexed entity closest to p by great-circle
// distance, provided it lies within radiusKm. Ties go to the lower id.
func (idx *pointIndex) nearest(p geo.GeoPoint, radiusKm float64) (int, bool) {
	if idx.tree.Size() == 0 {
		return 0, false
	}

	origin := haversine.Coord{Lat: p.Lat, Lon: p.Lng}
	best, bestKm := 0, math.Inf(1)
	for _, obj := range idx.tree.SearchIntersect(searchBox(p, radiusKm)) {
		hit, ok := obj.(*indexedPoint)
		if !ok {
			continue
		}

		_, km := haversine.Distance(origin, haversine.Coord{Lat: hit.location.Lat, Lon: hit.location.Lng})
		if km > radiusKm {
			continue
		}
		if km < bestKm || (km == bestKm && hit.id < best) {
			best, bestKm = hit.id, km
		}
	}

	return best, !math.IsInf(bestKm, 1)
}

// searchBox bounds every point within radiusKm of p in lng/lat degrees.
// Longitude spans widen with latitude; boxes reaching a pole or the
// antimeridian cover the whole longitude range.
func searchBox(p geo.GeoPoint, radiusKm float64) rtreego.Rect {
	dLat := radiusKm / kmPerDegreeFloor
	south := max(p.Lat-dLat, -90)
	north := min(p.Lat+dLat, 90)

	west, east := -180.0, 180.0
	if edge := math.Max(math.Abs(south), math.Abs(north)); edge < 90 {
		dLng := dLat / math.Cos(edge*math.Pi/180)
		if p.Lng-dLng > -180 && p.Lng+dLng < 180 {
			west, east = p.Lng-dLng, p.Lng+dLng
		}
	}

	rect, _ := rtreego.NewRect(rtreego.Point{west, south}, []float64{east - west, north - south})
	return rect
}

// associate fills missing route relations from the proximity of the
// first vertex to a hazard and the last vertex to a shelter.
func associate(ds *Dataset, radiusKm float64) {
	hazards := make([]*indexedPoint, 0, len(ds.hazards))
	for _, h := range ds.hazards {
		hazards = append(hazards, newIndexedPoint(h.ID, h.Location))
	}
	shelters := make([]*indexedPoint, 0, len(ds.shelters))
	for _, s := range ds.shelters {
		shelters = append(shelters, newIndexedPoint(s.ID, s.Location))
	}

	hazardIdx := newPointIndex(hazards)
	shelterIdx := newPointIndex(shelters)

	for i := range ds.routes {
		route := &ds.routes[i]
		if len(route.Path) == 0 {
			continue
		}

		if route.HazardID == nil {
			if id, ok := hazardIdx.nearest(route.Path[0], radiusKm); ok {
				route.HazardID = &id
			}
		}
		if route.ShelterID == nil {
			if id, ok := shelterIdx.nearest(route.Path[len(route.Path)-1], radiusKm); ok {
				route.ShelterID = &id
			}
		}

		log.Trace().
			Int("route", route.ID).
			Interface("hazard_id", route.HazardID).
			Interface("shelter_id", route.ShelterID).
			Msg("Route associated")
	}
}

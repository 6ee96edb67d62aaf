// Package geo handles geographic data structures and coordinate conversions.
package geo

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/paulmach/orb"
)

// ErrInvalidGeoPoint reports a coordinate outside the valid latitude/longitude bounds.
var ErrInvalidGeoPoint = errors.New("invalid geo point")

var validate = validator.New(validator.WithRequiredStructEnabled())

// GeoPoint is a WGS84 latitude/longitude pair.
type GeoPoint struct {
	Lat float64 `yaml:"lat" json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `yaml:"lng" json:"lng" validate:"gte=-180,lte=180"`
}

// Validate checks the coordinate bounds. NaN fails both comparisons and is rejected too.
func (p GeoPoint) Validate() error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s=%v out of range", ErrInvalidGeoPoint, verrs[0].Field(), verrs[0].Value())
		}
		return fmt.Errorf("%w: %v", ErrInvalidGeoPoint, err)
	}

	return nil
}

// String formats the point as "lat,lng".
func (p GeoPoint) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

// Orb converts the point to an orb.Point, which is [lon, lat].
func (p GeoPoint) Orb() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// LineString converts an ordered path into an orb.LineString, keeping vertex order.
func LineString(path []GeoPoint) orb.LineString {
	ls := make(orb.LineString, 0, len(path))
	for _, p := range path {
		ls = append(ls, p.Orb())
	}

	return ls
}

package geo

import "math"

// MaxLat is the latitude limit of the Web-Mercator projection used by slippy map tiles.
const MaxLat = 85.05112878

// Tile addresses a single slippy-map tile.
type Tile struct {
	Z, X, Y int
}

// TileOf returns the tile containing p at the given zoom level.
//
// Longitude maps linearly onto [0, 2^z) and latitude goes through the
// forward Mercator projection, clamped to MaxLat.
func TileOf(p GeoPoint, zoom int) Tile {
	n := float64(int(1) << zoom)

	lat := p.Lat
	if lat > MaxLat {
		lat = MaxLat
	} else if lat < -MaxLat {
		lat = -MaxLat
	}

	x := (p.Lng + 180.0) / 360.0 * n
	latRad := lat * math.Pi / 180.0
	y := (1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0 * n

	return Tile{Z: zoom, X: clampIndex(x, n), Y: clampIndex(y, n)}
}

// NorthWest returns the coordinate of the tile's top-left corner.
func (t Tile) NorthWest() GeoPoint {
	n := float64(int(1) << t.Z)
	lng := float64(t.X)/n*360.0 - 180.0

	// Inverse Mercator projection
	mercatorY := math.Pi * (1 - 2*float64(t.Y)/n)
	latRad := math.Atan(math.Sinh(mercatorY))

	return GeoPoint{Lat: latRad * (180.0 / math.Pi), Lng: lng}
}

// Neighbours returns the tiles within radius of t at the same zoom, t included.
// Columns wrap around the antimeridian, rows are clipped at the poles.
func (t Tile) Neighbours(radius int) []Tile {
	size := 1 << t.Z
	seen := make(map[Tile]struct{})
	out := make([]Tile, 0, (2*radius+1)*(2*radius+1))

	for dy := -radius; dy <= radius; dy++ {
		y := t.Y + dy
		if y < 0 || y >= size {
			continue
		}
		for dx := -radius; dx <= radius; dx++ {
			x := ((t.X+dx)%size + size) % size
			nt := Tile{Z: t.Z, X: x, Y: y}
			if _, ok := seen[nt]; ok {
				continue
			}
			seen[nt] = struct{}{}
			out = append(out, nt)
		}
	}

	return out
}

func clampIndex(v, n float64) int {
	i := int(math.Floor(v))
	if i < 0 {
		return 0
	}
	if last := int(n) - 1; i > last {
		return last
	}

	return i
}

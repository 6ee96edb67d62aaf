package tiles

import (
	"strconv"
	"strings"

	"github.com/woozymasta/safetymap/internal/geo"
)

// BuildURL expands {s}, {z}, {x}, {y} and {tms_y} in a tile URL template.
// The subdomain is picked from the tile position so a tile always maps to
// the same host.
func BuildURL(tpl string, t geo.Tile, subdomains []string) string {
	s := strings.ReplaceAll(tpl, "{z}", strconv.Itoa(t.Z))
	s = strings.ReplaceAll(s, "{x}", strconv.Itoa(t.X))
	s = strings.ReplaceAll(s, "{y}", strconv.Itoa(t.Y))

	if strings.Contains(s, "{tms_y}") {
		maxCoord := (1 << t.Z) - 1
		tmsY := maxCoord - t.Y
		s = strings.ReplaceAll(s, "{tms_y}", strconv.Itoa(tmsY))
	}

	if strings.Contains(s, "{s}") {
		sub := ""
		if len(subdomains) > 0 {
			sub = subdomains[(t.X+t.Y)%len(subdomains)]
		}
		s = strings.ReplaceAll(s, "{s}", sub)
	}

	return s
}

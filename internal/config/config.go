// Package config handles configuration loading and shared data structures.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/woozymasta/safetymap/internal/geo"
	"github.com/woozymasta/safetymap/internal/overlay"
	"github.com/woozymasta/safetymap/internal/viewport"

	"gopkg.in/yaml.v3"
)

// Config represents the root configuration file structure.
type Config struct {
	// Credits the base layer unless base_layer.attribution is set.
	Attribution string `yaml:"attribution,omitempty" json:"attribution,omitempty"`

	// Path to a YAML dataset; the embedded Kenya fixture is used when empty.
	Dataset string `yaml:"dataset,omitempty" json:"-"`

	View       View               `yaml:"view" json:"view"`
	BaseLayer  viewport.BaseLayer `yaml:"base_layer" json:"base_layer"`
	Tiles      Tiles              `yaml:"tiles" json:"-"`
	Encoding   overlay.Encoding   `yaml:"encoding" json:"encoding"`
	RouteStyle overlay.RouteStyle `yaml:"route_style" json:"route_style"`

	AssociationRadiusKm float64 `yaml:"association_radius_km,omitempty" json:"-"`
}

// View is the initial map center and zoom.
type View struct {
	Center geo.GeoPoint `yaml:"center" json:"center"`
	Zoom   int          `yaml:"zoom" json:"zoom"`
}

// Tiles configures the local base-map tile cache.
type Tiles struct {
	CacheDir string `yaml:"cache_dir" json:"-"`
	Size     int    `yaml:"size,omitempty" json:"-"`
}

// Default returns the configuration used for keys missing from the file.
func Default() *Config {
	return &Config{
		View: View{
			Center: geo.GeoPoint{Lat: -1.286389, Lng: 36.817223},
			Zoom:   7,
		},
		BaseLayer:  viewport.DefaultBaseLayer(),
		Tiles:      Tiles{CacheDir: "tiles", Size: 256},
		Encoding:   overlay.DefaultEncoding(),
		RouteStyle: overlay.DefaultRouteStyle(),
	}
}

// Load reads and parses the YAML configuration file from the specified path
// on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

// Parse decodes YAML configuration on top of the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	fallback := cfg.BaseLayer.Attribution
	cfg.BaseLayer.Attribution = ""
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// base_layer.attribution, then the top-level attribution, then the default
	if cfg.BaseLayer.Attribution == "" {
		cfg.BaseLayer.Attribution = cfg.Attribution
	}
	if cfg.BaseLayer.Attribution == "" {
		cfg.BaseLayer.Attribution = fallback
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.BaseLayer.URL == "" {
		errs = append(errs, "base_layer.url is required")
	}
	if c.BaseLayer.MinZoom < 0 || c.BaseLayer.MinZoom > c.BaseLayer.MaxZoom {
		errs = append(errs, fmt.Sprintf("base_layer zoom range %d..%d is invalid", c.BaseLayer.MinZoom, c.BaseLayer.MaxZoom))
	}
	if err := c.View.Center.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("view.center: %v", err))
	}
	if c.Tiles.Size <= 0 {
		errs = append(errs, "tiles.size must be positive")
	}
	if c.RouteStyle.Opacity < 0 || c.RouteStyle.Opacity > 1 {
		errs = append(errs, fmt.Sprintf("route_style.opacity must be within 0..1, got %v", c.RouteStyle.Opacity))
	}
	if c.RouteStyle.Weight <= 0 {
		errs = append(errs, "route_style.weight must be positive")
	}
	if c.Encoding.Hazard.URL == "" || c.Encoding.Shelter.URL == "" {
		errs = append(errs, "encoding.hazard and encoding.shelter need an icon url")
	}
	if c.AssociationRadiusKm < 0 {
		errs = append(errs, "association_radius_km must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

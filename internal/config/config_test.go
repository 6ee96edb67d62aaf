package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/safetymap/internal/dataset"
	"github.com/woozymasta/safetymap/internal/overlay"
)

func TestParseKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
view:
  zoom: 9
route_style:
  color: red
`))
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.View.Zoom)
	assert.Equal(t, -1.286389, cfg.View.Center.Lat)
	assert.Equal(t, "red", cfg.RouteStyle.Color)
	assert.Equal(t, 4, cfg.RouteStyle.Weight)
	assert.Equal(t, 18, cfg.BaseLayer.MaxZoom)
	assert.Equal(t, overlay.DefaultEncoding().Hazard, cfg.Encoding.Hazard)
}

func TestParseEncodingRules(t *testing.T) {
	cfg, err := Parse([]byte(`
encoding:
  rules:
    - severity: high
      icon: { id: hazard-high, url: /icons/hazard.svg, size: [32, 32] }
    - kind: Flood
      icon: { id: flood, url: /icons/hazard.svg, size: [25, 25] }
`))
	require.NoError(t, err)

	require.Len(t, cfg.Encoding.Rules, 2)
	assert.Equal(t, dataset.SeverityHigh, cfg.Encoding.Rules[0].Severity)
	assert.Equal(t, [2]int{32, 32}, cfg.Encoding.Rules[0].Icon.Size)
	assert.Equal(t, dataset.KindFlood, cfg.Encoding.Rules[1].Kind)
	assert.Equal(t, "hazard", cfg.Encoding.Hazard.ID)
}

func TestParseAttributionFallback(t *testing.T) {
	cfg, err := Parse([]byte(`
attribution: Local tiles
base_layer:
  url: /tiles/{z}/{x}/{y}.png
  attribution: ""
  min_zoom: 2
  max_zoom: 12
`))
	require.NoError(t, err)
	assert.Equal(t, "Local tiles", cfg.BaseLayer.Attribution)
	assert.Equal(t, 2, cfg.BaseLayer.MinZoom)
}

func TestValidate(t *testing.T) {
	_, err := Parse([]byte(`
view:
  center: { lat: 100, lng: 0 }
base_layer:
  min_zoom: 10
  max_zoom: 5
route_style:
  opacity: 1.5
association_radius_km: -1
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "view.center")
	assert.Contains(t, err.Error(), "zoom range 10..5")
	assert.Contains(t, err.Error(), "route_style.opacity")
	assert.Contains(t, err.Error(), "association_radius_km")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dataset: data/kenya.yaml\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "data/kenya.yaml", cfg.Dataset)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Default().View, cfg.View)
	assert.Equal(t, Default().BaseLayer, cfg.BaseLayer)
	assert.Equal(t, Default().Encoding, cfg.Encoding)
	assert.Equal(t, Default().RouteStyle, cfg.RouteStyle)
}

func TestParseAttributionPrecedence(t *testing.T) {
	cfg, err := Parse([]byte(`attribution: Custom tiles`))
	require.NoError(t, err)
	assert.Equal(t, "Custom tiles", cfg.BaseLayer.Attribution)

	cfg, err = Parse([]byte(`
attribution: Custom tiles
base_layer:
  attribution: Layer credit
`))
	require.NoError(t, err)
	assert.Equal(t, "Layer credit", cfg.BaseLayer.Attribution)

	cfg, err = Parse([]byte(`view: { zoom: 8 }`))
	require.NoError(t, err)
	assert.Equal(t, Default().BaseLayer.Attribution, cfg.BaseLayer.Attribution)
}

func TestParseRuleKindAnyCase(t *testing.T) {
	cfg, err := Parse([]byte(`
encoding:
  rules:
    - kind: flood
      icon: { id: flood, url: /icons/hazard.svg, size: [25, 25] }
`))
	require.NoError(t, err)

	icon := cfg.Encoding.HazardIcon(dataset.HazardZone{ID: 1, Kind: dataset.KindFlood, Severity: dataset.SeverityHigh})
	assert.Equal(t, "flood", icon.ID)
}

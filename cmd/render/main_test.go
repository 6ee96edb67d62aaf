package main

import (
	"testing"

	"github.com/woozymasta/safetymap/internal/dataset"
	"github.com/woozymasta/safetymap/internal/overlay"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func fixtureScene(t *testing.T) overlay.Scene {
	t.Helper()

	ds, _, err := readDataset("", dataset.Options{})
	require.NoError(t, err)

	return overlay.NewRenderer(overlay.DefaultEncoding(), overlay.DefaultRouteStyle()).Render(ds)
}

func TestEncodeJSON(t *testing.T) {
	out, err := encode(fixtureScene(t), "json")
	require.NoError(t, err)

	assert.Contains(t, string(out), `"type": "FeatureCollection"`)
	assert.Contains(t, string(out), `"hazard/1"`)
}

func TestEncodeYAML(t *testing.T) {
	out, err := encode(fixtureScene(t), "yaml")
	require.NoError(t, err)

	var doc struct {
		Type     string           `yaml:"type"`
		Features []map[string]any `yaml:"features"`
	}
	require.NoError(t, yaml.Unmarshal(out, &doc))
	assert.Equal(t, "FeatureCollection", doc.Type)
	assert.Len(t, doc.Features, 25)
}

func TestReadDatasetMissingFile(t *testing.T) {
	_, _, err := readDataset("does-not-exist.yaml", dataset.Options{})
	assert.Error(t, err)
}

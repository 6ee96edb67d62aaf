package viewport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/safetymap/internal/geo"
	"github.com/woozymasta/safetymap/internal/overlay"
)

func testScene() overlay.Scene {
	return overlay.Scene{
		Markers: []overlay.Marker{
			{
				ID:       "hazard/1",
				Layer:    overlay.LayerHazard,
				EntityID: 1,
				Position: nairobi,
				Popup:    overlay.Popup{Title: "Flood", Lines: []string{"Severity: High"}},
			},
		},
		Lines: []overlay.Polyline{
			{ID: "route/1", EntityID: 1, Vertices: []geo.GeoPoint{nairobi, {Lat: -1.3, Lng: 36.7}}},
		},
	}
}

func TestAttachReplaces(t *testing.T) {
	canvas := newCanvas(View{Center: nairobi, Zoom: 7})

	require.NoError(t, canvas.Attach(testScene()))
	require.NoError(t, canvas.Attach(testScene()))

	assert.Len(t, canvas.Overlays().Markers, 1)
	assert.Len(t, canvas.Overlays().Lines, 1)

	require.NoError(t, canvas.Attach(overlay.Scene{}))
	assert.Empty(t, canvas.Overlays().Markers)
}

func TestActivate(t *testing.T) {
	canvas := newCanvas(View{Center: nairobi, Zoom: 7})
	require.NoError(t, canvas.Attach(testScene()))

	var got []string
	detach := canvas.OnMarkerActivated(func(m overlay.Marker) { got = append(got, m.ID) })

	popup, err := canvas.Activate("hazard/1")
	require.NoError(t, err)
	assert.Equal(t, "Flood", popup.Title)
	assert.Equal(t, []string{"hazard/1"}, got)

	_, err = canvas.Activate("route/1")
	assert.ErrorIs(t, err, ErrUnknownMarker)

	detach()
	_, err = canvas.Activate("hazard/1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestClose(t *testing.T) {
	canvas := newCanvas(View{Center: nairobi, Zoom: 7})
	require.NoError(t, canvas.Attach(testScene()))
	canvas.OnMarkerActivated(func(overlay.Marker) {})
	canvas.OnMarkerActivated(func(overlay.Marker) {})
	require.Equal(t, 2, canvas.Listeners())

	canvas.Close()
	canvas.Close()

	assert.Zero(t, canvas.Listeners())
	assert.Empty(t, canvas.Overlays().Markers)
	assert.ErrorIs(t, canvas.Attach(testScene()), ErrCanvasClosed)

	_, err := canvas.Activate("hazard/1")
	assert.ErrorIs(t, err, ErrCanvasClosed)

	canvas.OnMarkerActivated(func(overlay.Marker) {})
	assert.Zero(t, canvas.Listeners())
}

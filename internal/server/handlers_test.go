package server

import (
	"encoding/json"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/woozymasta/safetymap/internal/config"
	"github.com/woozymasta/safetymap/internal/dataset"
	"github.com/woozymasta/safetymap/internal/geo"
	"github.com/woozymasta/safetymap/internal/mapview"
	"github.com/woozymasta/safetymap/internal/overlay"
	"github.com/woozymasta/safetymap/internal/search"
	"github.com/woozymasta/safetymap/internal/viewport"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, mount bool) (*ServerContext, http.Handler) {
	t.Helper()

	cfg := config.Default()
	cfg.Tiles.CacheDir = t.TempDir()

	ds, _, err := dataset.Kenya(dataset.Options{})
	require.NoError(t, err)

	m := mapview.New(
		ds,
		overlay.NewRenderer(cfg.Encoding, cfg.RouteStyle),
		viewport.NewController(cfg.BaseLayer),
		search.New(zerolog.New(io.Discard)),
	)
	if mount {
		require.NoError(t, m.Mount(cfg.View.Center, cfg.View.Zoom))
		t.Cleanup(m.Unmount)
	}

	s, err := NewServerContext(cfg, m)
	require.NoError(t, err)

	return s, s.Routes()
}

func do(t *testing.T, h http.Handler, method, target, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))

	return v
}

func TestHealthz(t *testing.T) {
	_, h := newTestServer(t, true)

	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestIndexETag(t *testing.T) {
	_, h := newTestServer(t, true)

	rec := do(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	rec = do(t, h, http.MethodGet, "/", "", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)
}

func TestView(t *testing.T) {
	_, h := newTestServer(t, true)

	rec := do(t, h, http.MethodGet, "/api/view", "")
	require.Equal(t, http.StatusOK, rec.Code)

	view := decode[viewResponse](t, rec)
	assert.NotEmpty(t, view.CanvasID)
	assert.Equal(t, 7, view.Zoom)
	assert.InDelta(t, -1.286389, view.Center.Lat, 1e-9)
	assert.Equal(t, tileURL, view.BaseLayer.URL)
	assert.Empty(t, view.BaseLayer.Subdomains)
	assert.Contains(t, view.BaseLayer.Attribution, "OpenStreetMap")
	assert.Len(t, view.Legend, 3)
}

func TestViewNotMounted(t *testing.T) {
	_, h := newTestServer(t, false)

	rec := do(t, h, http.MethodGet, "/api/view", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	apiErr := decode[APIError](t, rec)
	assert.Equal(t, "unavailable", apiErr.Code)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
}

func TestOverlays(t *testing.T) {
	_, h := newTestServer(t, true)

	rec := do(t, h, http.MethodGet, "/api/overlays", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			ID         string         `json:"id"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Len(t, fc.Features, 25)
	assert.Equal(t, "hazard/1", fc.Features[0].ID)

	etag := rec.Header().Get("ETag")
	require.True(t, strings.HasPrefix(etag, `W/"`))

	rec = do(t, h, http.MethodGet, "/api/overlays", "", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestActivateMarker(t *testing.T) {
	_, h := newTestServer(t, true)

	rec := do(t, h, http.MethodPost, "/api/markers/hazard/1/activate", "")
	require.Equal(t, http.StatusOK, rec.Code)

	popup := decode[popupResponse](t, rec)
	assert.Equal(t, "Flood", popup.Title)
	assert.Equal(t, []string{"Severity: High"}, popup.Lines)
	assert.Equal(t, "Flood\nSeverity: High", popup.Text)

	rec = do(t, h, http.MethodPost, "/api/markers/shelter/1/activate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	popup = decode[popupResponse](t, rec)
	assert.NotEmpty(t, popup.Title)
	assert.Empty(t, popup.Lines)
}

func TestActivateMarkerNotFound(t *testing.T) {
	_, h := newTestServer(t, true)

	for _, target := range []string{
		"/api/markers/hazard/999/activate",
		"/api/markers/route/1/activate",
		"/api/markers/hazard/abc/activate",
	} {
		rec := do(t, h, http.MethodPost, target, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.Equal(t, "not_found", decode[APIError](t, rec).Code, target)
	}
}

func TestSearchKeepsViewport(t *testing.T) {
	s, h := newTestServer(t, true)
	before := s.Map.View()

	rec := do(t, h, http.MethodPut, "/api/search", `{"query":"Kisumu"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/search", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[searchResponse](t, rec)
	assert.Equal(t, "Kisumu", resp.Query)
	assert.Equal(t, before, resp.View)

	rec = do(t, h, http.MethodPost, "/api/search", `{"query":"Mombasa"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[searchResponse](t, rec)
	assert.Equal(t, "Mombasa", resp.Query)
	assert.Equal(t, before, s.Map.View())
}

func TestSearchBadBody(t *testing.T) {
	_, h := newTestServer(t, true)

	rec := do(t, h, http.MethodPut, "/api/search", `{"query":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/search", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/search", `[1,2]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTiles(t *testing.T) {
	s, h := newTestServer(t, true)

	rec := do(t, h, http.MethodGet, "/tiles/0/0/0.webp", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/webp", rec.Header().Get("Content-Type"))
	assert.Equal(t, s.TransparentTile, rec.Body.Bytes())

	tile := geo.Tile{Z: 0, X: 0, Y: 0}
	require.NoError(t, s.Cache.Store(tile, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	cached, err := s.Cache.Read(tile)
	require.NoError(t, err)

	rec = do(t, h, http.MethodGet, "/tiles/0/0/0.webp", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, cached, rec.Body.Bytes())

	rec = do(t, h, http.MethodGet, "/tiles/0/5/0.webp", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIcons(t *testing.T) {
	_, h := newTestServer(t, true)

	rec := do(t, h, http.MethodGet, "/icons/hazard.svg", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	rec = do(t, h, http.MethodGet, "/icons/missing.svg", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	_, h := newTestServer(t, true)

	rec := do(t, h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[APIError](t, rec).Code)

	rec = do(t, h, http.MethodDelete, "/api/view", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORS(t *testing.T) {
	_, h := newTestServer(t, true)

	rec := do(t, h, http.MethodGet, "/api/view", "", "Origin", "https://example.org")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouteLabel(t *testing.T) {
	cases := map[string]string{
		"/":                              "/",
		"/api/view":                      "/api/view",
		"/tiles/3/1/2.webp":              "/tiles",
		"/icons/hazard.svg":              "/icons",
		"/api/markers/hazard/1/activate": "/api/markers",
		"/wp-admin":                      "other",
	}

	for path, want := range cases {
		assert.Equal(t, want, routeLabel(path), path)
	}
}

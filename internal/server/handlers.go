// Package server handles HTTP requests and middleware.
package server

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strconv"

	"github.com/woozymasta/safetymap/internal/geo"
	"github.com/woozymasta/safetymap/internal/mapview"
	"github.com/woozymasta/safetymap/internal/metrics"
	"github.com/woozymasta/safetymap/internal/overlay"
	"github.com/woozymasta/safetymap/internal/tiles"
	"github.com/woozymasta/safetymap/internal/viewport"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 4 << 10

// tileURL is the local tile endpoint advertised to the client.
const tileURL = "/tiles/{z}/{x}/{y}.webp"

type viewResponse struct {
	CanvasID  string                `json:"canvas_id"`
	BaseLayer viewport.BaseLayer    `json:"base_layer"`
	Legend    []overlay.LegendEntry `json:"legend"`
	Center    geo.GeoPoint          `json:"center"`
	Zoom      int                   `json:"zoom"`
}

type popupResponse struct {
	Title string   `json:"title"`
	Text  string   `json:"text"`
	Lines []string `json:"lines"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type searchResponse struct {
	Query string        `json:"query"`
	View  viewport.View `json:"view"`
}

// HandleHealth is the liveness heartbeat.
func HandleHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// HandleFavicon serves the site favicon.
func (s *ServerContext) HandleFavicon(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(s.Favicon)
}

// HandleIndex serves the main HTML application.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	etag := weakETag(s.IndexHTML)
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(s.IndexHTML)
}

// HandleIcon serves an embedded marker glyph.
func (s *ServerContext) HandleIcon(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	data, err := fs.ReadFile(s.Icons, path.Join("icons", ps.ByName("name")))
	if err != nil {
		errNotFound(w, "icon not found")
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(data)
}

// HandleView describes the mounted canvas: center, zoom, base layer and legend.
func (s *ServerContext) HandleView(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	snap, err := s.Map.Snapshot()
	if err != nil {
		errUnavailable(w, err.Error())
		return
	}

	layer := snap.BaseLayer
	layer.URL = tileURL
	layer.Subdomains = nil

	writeJSON(w, http.StatusOK, viewResponse{
		CanvasID:  snap.CanvasID,
		Center:    snap.View.Center,
		Zoom:      snap.View.Zoom,
		BaseLayer: layer,
		Legend:    s.Legend,
	})
}

// HandleOverlays serves the canvas overlays as a GeoJSON FeatureCollection.
func (s *ServerContext) HandleOverlays(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	scene, err := s.Map.Scene()
	if err != nil {
		errUnavailable(w, err.Error())
		return
	}

	body, err := json.Marshal(scene.FeatureCollection())
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode overlays")
		errInternal(w)
		return
	}

	etag := weakETag(body)
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(body)
}

// HandleActivate activates a marker and returns its popup.
func (s *ServerContext) HandleActivate(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	layer := overlay.Layer(ps.ByName("layer"))
	if layer != overlay.LayerHazard && layer != overlay.LayerShelter {
		errNotFound(w, fmt.Sprintf("unknown layer %q", layer))
		return
	}

	id, err := strconv.Atoi(ps.ByName("id"))
	if err != nil {
		errNotFound(w, fmt.Sprintf("invalid marker id %q", ps.ByName("id")))
		return
	}

	reaction, err := s.Map.Handle(mapview.MarkerActivated{MarkerID: overlay.OverlayID(layer, id)})
	switch {
	case errors.Is(err, viewport.ErrUnknownMarker):
		errNotFound(w, err.Error())
		return
	case errors.Is(err, mapview.ErrNotMounted), errors.Is(err, viewport.ErrCanvasClosed):
		errUnavailable(w, err.Error())
		return
	case err != nil:
		log.Error().Err(err).Msg("Marker activation failed")
		errInternal(w)
		return
	}

	popup := reaction.Popup
	lines := popup.Lines
	if lines == nil {
		lines = []string{}
	}
	writeJSON(w, http.StatusOK, popupResponse{Title: popup.Title, Lines: lines, Text: popup.Text()})
}

// HandleSearchChange records the search input text.
func (s *ServerContext) HandleSearchChange(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req, ok, err := decodeSearch(r)
	if err != nil || !ok {
		errBadRequest(w, "body must be a JSON object with a query field")
		return
	}

	if _, err := s.Map.Handle(mapview.SearchChanged{Text: req.Query}); err != nil {
		log.Error().Err(err).Msg("Search change failed")
		errInternal(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleSearchSubmit submits the search, applying the query from the body
// first when one is given. The viewport is left untouched.
func (s *ServerContext) HandleSearchSubmit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req, ok, err := decodeSearch(r)
	if err != nil {
		errBadRequest(w, "body must be a JSON object with a query field")
		return
	}

	if ok {
		if _, err := s.Map.Handle(mapview.SearchChanged{Text: req.Query}); err != nil {
			log.Error().Err(err).Msg("Search change failed")
			errInternal(w)
			return
		}
	}

	reaction, err := s.Map.Handle(mapview.SearchSubmitted{})
	if err != nil {
		log.Error().Err(err).Msg("Search submit failed")
		errInternal(w)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{Query: reaction.Query, View: s.Map.View()})
}

// HandleTile serves a cached base tile, or the transparent tile on a miss.
func (s *ServerContext) HandleTile(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	tile, err := tiles.ParseTile(ps.ByName("z"), ps.ByName("x"), ps.ByName("y"))
	if err != nil {
		errNotFound(w, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/webp")

	data, err := s.Cache.Read(tile)
	if err != nil {
		metrics.TilesServed.WithLabelValues("transparent").Inc()
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(s.TransparentTile)
		return
	}

	metrics.TilesServed.WithLabelValues("cache").Inc()
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(data)
}

// decodeSearch reads an optional {"query"} body; ok is false for an empty body.
func decodeSearch(r *http.Request) (req searchRequest, ok bool, err error) {
	err = json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req)
	if errors.Is(err, io.EOF) {
		return req, false, nil
	}
	if err != nil {
		return req, false, err
	}

	return req, true, nil
}

func weakETag(body []byte) string {
	sum := sha256.Sum256(body)
	return fmt.Sprintf(`W/"%x"`, sum[:16])
}

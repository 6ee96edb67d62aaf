package server

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/woozymasta/safetymap/assets"
	"github.com/woozymasta/safetymap/internal/config"
	"github.com/woozymasta/safetymap/internal/mapview"
	"github.com/woozymasta/safetymap/internal/metrics"
	"github.com/woozymasta/safetymap/internal/overlay"
	"github.com/woozymasta/safetymap/internal/tiles"

	"github.com/julienschmidt/httprouter"
	"github.com/justinas/alice"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config          *config.Config
	Map             *mapview.Map
	Icons           fs.FS
	Cache           tiles.Cache
	Legend          []overlay.LegendEntry
	IndexHTML       []byte
	Favicon         []byte
	TransparentTile []byte
}

// NewServerContext wires the mounted map and the embedded assets into a
// handler context.
func NewServerContext(cfg *config.Config, m *mapview.Map) (*ServerContext, error) {
	transparent, err := tiles.TransparentTile(cfg.Tiles.Size)
	if err != nil {
		return nil, err
	}

	cache := tiles.Cache{Dir: cfg.Tiles.CacheDir}

	log.Info().
		Str("canvas", m.CanvasID()).
		Str("tiles_dir", cache.Dir).
		Msg("Server context initialized successfully")

	return &ServerContext{
		Config:          cfg,
		Map:             m,
		Icons:           assets.Icons,
		Cache:           cache,
		Legend:          overlay.Legend(cfg.Encoding, cfg.RouteStyle),
		IndexHTML:       assets.Index,
		Favicon:         assets.Favicon,
		TransparentTile: transparent,
	}, nil
}

// Routes builds the router wrapped in the middleware chain.
func (s *ServerContext) Routes() http.Handler {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		errNotFound(w, "resource not found")
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	router.GET("/", s.HandleIndex)
	router.GET("/favicon.ico", s.HandleFavicon)
	router.GET("/icons/:name", s.HandleIcon)

	router.GET("/api/view", s.HandleView)
	router.GET("/api/overlays", s.HandleOverlays)
	router.POST("/api/markers/:layer/:id/activate", s.HandleActivate)
	router.PUT("/api/search", s.HandleSearchChange)
	router.POST("/api/search", s.HandleSearchSubmit)

	router.GET("/tiles/:z/:x/:y", s.HandleTile)

	router.Handler(http.MethodGet, "/metrics", metrics.Handler())
	router.GET("/healthz", HandleHealth)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "If-None-Match"},
		ExposedHeaders: []string{"ETag"},
		MaxAge:         300,
	})

	return alice.New(corsHandler.Handler, RequestLogger, Recoverer).Then(router)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *ServerContext) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("Web server started")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down web server")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

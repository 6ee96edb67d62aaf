package tiles

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/woozymasta/safetymap/internal/geo"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// UserAgent identifies the prefetcher to tile servers.
const UserAgent = "safetymap-loader/1.0"

// PrefetchOptions selects which tiles to download.
type PrefetchOptions struct {
	URL         string
	Subdomains  []string
	Cache       Cache
	Center      geo.GeoPoint
	MinZoom     int
	MaxZoom     int
	Radius      int
	Concurrency int
	Force       bool
	Quiet       bool
}

// Stats summarises a prefetch run.
type Stats struct {
	Requested int
	Stored    int
	Cached    int
	Missing   int
	Failed    int
}

type job struct {
	Coord geo.Tile
}

type result struct {
	Coord  geo.Tile
	Err    error
	Status status
}

type status int

const (
	statusStored status = iota
	statusCached
	statusMissing
	statusFailed
)

// Prefetch downloads the tiles within Radius of the center tile for every
// zoom level in MinZoom..MaxZoom and stores them in the cache as webp.
func Prefetch(ctx context.Context, client *http.Client, opts PrefetchOptions) (Stats, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}

	var coords []geo.Tile
	for z := opts.MinZoom; z <= opts.MaxZoom; z++ {
		coords = append(coords, geo.TileOf(opts.Center, z).Neighbours(opts.Radius)...)
	}

	log.Info().
		Int("tiles", len(coords)).
		Int("min_zoom", opts.MinZoom).
		Int("max_zoom", opts.MaxZoom).
		Str("center", opts.Center.String()).
		Msg("Starting tile prefetch")

	var bar *progressbar.ProgressBar
	if opts.Quiet {
		bar = progressbar.DefaultSilent(int64(len(coords)), "tiles")
	} else {
		bar = progressbar.Default(int64(len(coords)), "tiles")
	}
	defer func() { _ = bar.Finish() }()

	stats := Stats{Requested: len(coords)}
	for res := range processBatch(ctx, client, opts, coords) {
		_ = bar.Add(1)

		switch res.Status {
		case statusStored:
			stats.Stored++
		case statusCached:
			stats.Cached++
		case statusMissing:
			stats.Missing++
		case statusFailed:
			stats.Failed++
			log.Trace().
				Err(res.Err).
				Str("url", BuildURL(opts.URL, res.Coord, opts.Subdomains)).
				Msg("Failed to download tile")
		}
	}

	return stats, ctx.Err()
}

func processBatch(ctx context.Context, client *http.Client, opts PrefetchOptions, tiles []geo.Tile) <-chan result {
	jobs := make(chan job, len(tiles))
	results := make(chan result, len(tiles))

	go func() {
		defer close(jobs)
		for _, t := range tiles {
			select {
			case jobs <- job{Coord: t}:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					return
				}
				st, err := downloadAndConvert(ctx, client, opts, j.Coord)
				results <- result{Coord: j.Coord, Status: st, Err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

func downloadAndConvert(ctx context.Context, client *http.Client, opts PrefetchOptions, t geo.Tile) (status, error) {
	// Check existence if not forcing overwrite
	if !opts.Force && opts.Cache.Has(t) {
		return statusCached, nil
	}

	url := BuildURL(opts.URL, t, opts.Subdomains)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return statusFailed, err
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return statusFailed, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		log.Trace().Str("url", url).Msg("Tile not found (404)")
		return statusMissing, nil
	}
	if resp.StatusCode != http.StatusOK {
		return statusFailed, fmt.Errorf("status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return statusFailed, err
	}

	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		log.Trace().Err(err).Str("url", url).Msg("Failed to decode image")
		return statusMissing, nil // Not an image or corrupted
	}

	// Filter out empty/1px tiles often returned by map servers for OOB areas
	if img.Bounds().Dx() <= 1 {
		log.Trace().Str("url", url).Msg("Filtered empty tile")
		return statusMissing, nil
	}

	if err := opts.Cache.Store(t, img); err != nil {
		return statusFailed, err
	}

	return statusStored, nil
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/woozymasta/safetymap/internal/dataset"
	"github.com/woozymasta/safetymap/internal/logger"
	"github.com/woozymasta/safetymap/internal/overlay"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Input     string  `short:"i" long:"in"        description:"Dataset YAML path, '-' for stdin. The embedded Kenya fixture is used if empty"`
	Output    string  `short:"o" long:"out"       description:"Output file path. Writes to stdout if empty"`
	Format    string  `short:"f" long:"format"    description:"Output format" choice:"json" choice:"yaml" default:"json"`
	Associate float64 `short:"a" long:"associate" description:"Link route endpoints to entities within this many km (0 disables)"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	ds, report, err := readDataset(opts.Input, dataset.Options{AssociationRadiusKm: opts.Associate})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read dataset")
	}

	scene := overlay.NewRenderer(overlay.DefaultEncoding(), overlay.DefaultRouteStyle()).Render(ds)

	out, err := encode(scene, opts.Format)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal overlays")
	}

	counts := scene.Counts()
	if opts.Output == "" {
		fmt.Println(string(out))
	} else if err := os.WriteFile(opts.Output, out, 0644); err != nil {
		log.Fatal().Err(err).Msg("Failed to write output file")
	}

	log.Info().
		Int("hazards", counts.Hazards).
		Int("shelters", counts.Shelters).
		Int("routes", counts.Routes).
		Int("rejected", len(report.Rejected)).
		Int("skipped", len(scene.Warnings)).
		Str("format", opts.Format).
		Msg("Overlays rendered")
}

func readDataset(path string, opts dataset.Options) (*dataset.Dataset, dataset.Report, error) {
	switch path {
	case "":
		return dataset.Kenya(opts)
	case "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, dataset.Report{}, fmt.Errorf("read stdin: %w", err)
		}
		return dataset.Parse(data, opts)
	default:
		return dataset.Load(path, opts)
	}
}

// encode renders the scene as GeoJSON, or as the same document in YAML.
func encode(scene overlay.Scene, format string) ([]byte, error) {
	data, err := json.MarshalIndent(scene.FeatureCollection(), "", "  ")
	if err != nil || format != "yaml" {
		return data, err
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	return yaml.Marshal(doc)
}

package main

import (
	"bytes"
	"os"
	"text/template"

	"github.com/woozymasta/safetymap/internal/logger"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Dir string `short:"d" long:"dir" description:"Assets directory" default:"assets"`
}

type PageData struct {
	CSS string
	JS  string
	SVG string
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

	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/javascript", js.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)

	root, err := os.OpenRoot(opts.Dir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", opts.Dir).Msg("Failed to open assets directory")
	}
	defer root.Close()

	page := PageData{
		CSS: minifyFile(m, root, "style.css", "text/css"),
		JS:  minifyFile(m, root, "script.js", "text/javascript"),
		SVG: minifyFile(m, root, "favicon.svg", "image/svg+xml"),
	}

	htmlRaw, err := root.ReadFile("index.html.tpl")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read HTML template")
	}

	tmpl, err := template.New("index").Parse(string(htmlRaw))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse HTML template")
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, page); err != nil {
		log.Fatal().Err(err).Msg("Failed to execute HTML template")
	}

	finalHTML, err := m.Bytes("text/html", buf.Bytes())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to minify HTML")
	}

	if err := root.WriteFile("index.html", finalHTML, 0644); err != nil {
		log.Fatal().Err(err).Msg("Failed to write index.html")
	}

	log.Info().Int("bytes", len(finalHTML)).Msg("Minify done")
}

func minifyFile(m *minify.M, root *os.Root, name, mediatype string) string {
	raw, err := root.ReadFile(name)
	if err != nil {
		log.Fatal().Err(err).Str("file", name).Msg("Failed to read asset")
	}

	out, err := m.String(mediatype, string(raw))
	if err != nil {
		log.Fatal().Err(err).Str("file", name).Msg("Failed to minify asset")
	}

	return out
}

// Package assets embeds the web client and icon glyphs.
package assets

import "embed"

// Index is the minified single-page map client, built by cmd/minify.
//
//go:embed index.html
var Index []byte

// Favicon is the site icon.
//
//go:embed favicon.svg
var Favicon []byte

// Icons holds the marker glyphs under icons/.
//
//go:embed icons/*.svg
var Icons embed.FS

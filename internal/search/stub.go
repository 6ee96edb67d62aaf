// Package search captures the map search query. Submission only records
// the query; it does not filter overlays, geocode or move the viewport.
package search

import "github.com/rs/zerolog"

// Stub holds the current query text.
type Stub struct {
	sink  zerolog.Logger
	query string
}

// New creates a stub that records submissions to sink.
func New(sink zerolog.Logger) *Stub {
	return &Stub{sink: sink}
}

// Change stores the latest input text.
func (s *Stub) Change(text string) {
	s.query = text
}

// Query returns the current input text.
func (s *Stub) Query() string {
	return s.query
}

// Submit records the current query and returns it.
func (s *Stub) Submit() string {
	s.sink.Info().Str("query", s.query).Msg("Search submitted")
	return s.query
}

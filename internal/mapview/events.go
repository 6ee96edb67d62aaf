// Package mapview wires the viewport, overlay renderer and search stub
// together and reacts to user interaction as explicit events.
package mapview

// Event is a user interaction with the map.
type Event interface {
	event()
}

// MarkerActivated is a click or tap on a marker.
type MarkerActivated struct {
	MarkerID string
}

// SearchChanged is an edit of the search input.
type SearchChanged struct {
	Text string
}

// SearchSubmitted is an explicit search submission.
type SearchSubmitted struct{}

func (MarkerActivated) event() {}
func (SearchChanged) event()   {}
func (SearchSubmitted) event() {}

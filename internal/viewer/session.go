// Package viewer is the server-side model of the browser panorama viewer
// (web/static/js/tour-viewer.js): the current node, navigation along
// links, marker selection and the typed events those raise.
//
// In a request the server only opens a session and mounts it, which
// announces tour-loaded; navigation, marker selection and resizing happen
// in the browser. The script relays those with the event table in
// embedding.EventMessages, keyed by the Event names declared here, so the
// two sides share one mapping.
package viewer

import (
	"errors"
	"fmt"
	"sync"

	"tourcms/internal/models"
	"tourcms/internal/tourgraph"
)

var (
	// ErrDestroyed is returned by operations on a torn-down session.
	ErrDestroyed = errors.New("viewer session destroyed")
	// ErrUnknownNode is returned when navigating to an id outside the graph.
	ErrUnknownNode = errors.New("unknown node")
	// ErrUnknownMarker is returned when selecting a marker not on the current node.
	ErrUnknownMarker = errors.New("unknown marker")
)

// Session is a viewer bound to one tour graph. Sessions are not reused
// across tours; create a new one when the displayed tour changes.
type Session struct {
	mu        sync.Mutex
	graph     *tourgraph.Graph
	current   *tourgraph.Node
	destroyed bool

	nodeChanged     listeners[NodeChanged]
	hotspotSelected listeners[HotspotSelected]
	resized         listeners[Resize]
}

// NewSession opens a session on g starting at startID, or at the first
// node when startID does not name one.
func NewSession(g *tourgraph.Graph, startID string) (*Session, error) {
	start, err := g.Start(startID)
	if err != nil {
		return nil, err
	}
	return &Session{graph: g, current: start}, nil
}

// Graph returns the session's graph.
func (s *Session) Graph() *tourgraph.Graph {
	return s.graph
}

// Current returns the node on display.
func (s *Session) Current() *tourgraph.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// OnNodeChanged registers fn and returns its unsubscribe func.
func (s *Session) OnNodeChanged(fn func(NodeChanged)) func() {
	return s.nodeChanged.add(fn)
}

// OnHotspotSelected registers fn and returns its unsubscribe func.
func (s *Session) OnHotspotSelected(fn func(HotspotSelected)) func() {
	return s.hotspotSelected.add(fn)
}

// OnResize registers fn and returns its unsubscribe func.
func (s *Session) OnResize(fn func(Resize)) func() {
	return s.resized.add(fn)
}

// Listeners returns the number of registered callbacks across all events.
func (s *Session) Listeners() int {
	return s.nodeChanged.len() + s.hotspotSelected.len() + s.resized.len()
}

// Navigate moves to nodeID and raises node-changed. Moving to the current
// node does nothing.
func (s *Session) Navigate(nodeID string) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return ErrDestroyed
	}
	next, ok := s.graph.Node(nodeID)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("navigate to %q: %w", nodeID, ErrUnknownNode)
	}
	if next == s.current {
		s.mu.Unlock()
		return nil
	}
	s.current = next
	s.mu.Unlock()

	s.nodeChanged.emit(NodeChanged{Node: next})
	return nil
}

// SelectMarker handles a click on a marker of the current node. Info
// markers raise hotspot-selected; navigation markers with a target move
// to it instead.
func (s *Session) SelectMarker(markerID string) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return ErrDestroyed
	}
	var marker *tourgraph.Marker
	for i := range s.current.Markers {
		if s.current.Markers[i].ID == markerID {
			marker = &s.current.Markers[i]
			break
		}
	}
	s.mu.Unlock()

	if marker == nil {
		return fmt.Errorf("select %q: %w", markerID, ErrUnknownMarker)
	}

	h := marker.Data.Hotspot
	switch {
	case h.Type == models.HotspotInfo:
		s.hotspotSelected.emit(HotspotSelected{Marker: *marker})
	case h.IsNavigation() && h.TargetSphereID != nil:
		return s.Navigate(h.TargetSphereID.String())
	}
	return nil
}

// Resize raises a resize event.
func (s *Session) Resize(width, height int) error {
	s.mu.Lock()
	destroyed := s.destroyed
	s.mu.Unlock()
	if destroyed {
		return ErrDestroyed
	}
	s.resized.emit(Resize{Width: width, Height: height})
	return nil
}

// Destroy unregisters every listener. Further operations return ErrDestroyed.
func (s *Session) Destroy() {
	s.mu.Lock()
	s.destroyed = true
	s.mu.Unlock()

	s.nodeChanged.clear()
	s.hotspotSelected.clear()
	s.resized.clear()
}

package embedding

import (
	"fmt"
	"sync"

	"tourcms/internal/viewer"
)

// EventMessages maps each viewer event to the message it is relayed as.
// The outbox carries this table so the page script relays the same events
// Mount does.
var EventMessages = map[viewer.Event]MessageType{
	viewer.EventNodeChanged:     TypeSphereChanged,
	viewer.EventHotspotSelected: TypeHotspotClicked,
	viewer.EventResize:          TypeTourResize,
}

// Mounted is a viewer session bridged to a Bus.
type Mounted struct {
	session *viewer.Session
	bus     Bus

	once   sync.Once
	unsubs []func()
}

// Mount posts exactly one tour-loaded message for the session's graph and
// forwards viewer events to bus until Unmount.
func Mount(s *viewer.Session, bus Bus) (*Mounted, error) {
	g := s.Graph()
	if err := bus.Post(TourLoaded{TourName: g.TourName, SphereCount: len(g.Nodes)}); err != nil {
		return nil, fmt.Errorf("post tour-loaded: %w", err)
	}

	m := &Mounted{session: s, bus: bus}
	m.unsubs = []func(){
		s.OnNodeChanged(func(e viewer.NodeChanged) {
			m.post(SphereChanged{SphereID: e.Node.ID, SphereName: e.Node.Name})
		}),
		s.OnHotspotSelected(func(e viewer.HotspotSelected) {
			h := e.Marker.Data.Hotspot
			msg := HotspotClicked{HotspotID: h.ID.String(), HotspotType: string(h.Type)}
			if h.Content != nil {
				msg.HotspotContent = *h.Content
			}
			m.post(msg)
		}),
		s.OnResize(func(e viewer.Resize) {
			m.post(TourResize{Width: e.Width, Height: e.Height})
		}),
	}
	return m, nil
}

func (m *Mounted) post(msg Message) {
	// Delivery is best effort; a closed parent frame is not an error.
	_ = m.bus.Post(msg)
}

// Unmount stops forwarding and releases the listeners. Safe to call twice.
func (m *Mounted) Unmount() {
	m.once.Do(func() {
		for _, u := range m.unsubs {
			u()
		}
		m.unsubs = nil
	})
}

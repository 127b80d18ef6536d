package viewer

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"tourcms/internal/models"
	"tourcms/internal/tourgraph"
)

// twoRoomTour builds lobby -> hall with an info hotspot in the lobby.
func twoRoomTour() (*models.VirtualTour, uuid.UUID, uuid.UUID) {
	lobby, hall := uuid.New(), uuid.New()
	note := "Built in 1902"
	tour := &models.VirtualTour{
		ID:   uuid.New(),
		Name: "Museum",
		Spheres: []models.Sphere{
			{
				ID:   lobby,
				Name: "Lobby",
				Hotspots: []models.Hotspot{
					{ID: uuid.New(), Type: models.HotspotNavigation, TargetSphereID: &hall},
					{ID: uuid.New(), Type: models.HotspotInfo, Content: &note},
				},
			},
			{ID: hall, Name: "Hall"},
		},
	}
	return tour, lobby, hall
}

func newSession(t *testing.T) (*Session, uuid.UUID, uuid.UUID) {
	t.Helper()
	tour, lobby, hall := twoRoomTour()
	s, err := NewSession(tourgraph.BuildGraph(tour), "")
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s, lobby, hall
}

func TestNewSession_StartNode(t *testing.T) {
	tour, lobby, hall := twoRoomTour()
	g := tourgraph.BuildGraph(tour)

	s, err := NewSession(g, hall.String())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if s.Current().ID != hall.String() {
		t.Errorf("start = %q, want hall", s.Current().ID)
	}

	s, _ = NewSession(g, "nope")
	if s.Current().ID != lobby.String() {
		t.Errorf("start = %q, want first node", s.Current().ID)
	}

	if _, err := NewSession(&tourgraph.Graph{}, ""); !errors.Is(err, tourgraph.ErrEmptyGraph) {
		t.Errorf("empty graph err = %v, want ErrEmptyGraph", err)
	}
}

func TestNavigate_RaisesNodeChanged(t *testing.T) {
	s, _, hall := newSession(t)

	var got []string
	s.OnNodeChanged(func(e NodeChanged) { got = append(got, e.Node.Name) })

	if err := s.Navigate(hall.String()); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	// Same node again is a no-op.
	if err := s.Navigate(hall.String()); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if len(got) != 1 || got[0] != "Hall" {
		t.Errorf("events = %v, want [Hall]", got)
	}

	if err := s.Navigate(uuid.NewString()); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("dangling navigate err = %v, want ErrUnknownNode", err)
	}
	if s.Current().ID != hall.String() {
		t.Error("failed navigation must not move the session")
	}
}

func TestSelectMarker(t *testing.T) {
	s, _, hall := newSession(t)
	lobby := s.Current()

	var selected []HotspotSelected
	var changed int
	s.OnHotspotSelected(func(e HotspotSelected) { selected = append(selected, e) })
	s.OnNodeChanged(func(NodeChanged) { changed++ })

	info := lobby.Markers[1]
	if err := s.SelectMarker(info.ID); err != nil {
		t.Fatalf("SelectMarker(info): %v", err)
	}
	if len(selected) != 1 || selected[0].Marker.ID != info.ID {
		t.Fatalf("selected = %+v, want the info marker", selected)
	}
	if *selected[0].Marker.Data.Hotspot.Content != "Built in 1902" {
		t.Errorf("hotspot content = %q", *selected[0].Marker.Data.Hotspot.Content)
	}
	if changed != 0 {
		t.Error("info marker must not navigate")
	}

	nav := lobby.Markers[0]
	if err := s.SelectMarker(nav.ID); err != nil {
		t.Fatalf("SelectMarker(nav): %v", err)
	}
	if changed != 1 || s.Current().ID != hall.String() {
		t.Errorf("navigation marker: changed=%d current=%s", changed, s.Current().ID)
	}
	if len(selected) != 1 {
		t.Error("navigation marker must not raise hotspot-selected")
	}

	if err := s.SelectMarker("marker-missing"); !errors.Is(err, ErrUnknownMarker) {
		t.Errorf("err = %v, want ErrUnknownMarker", err)
	}
}

func TestUnsubscribe(t *testing.T) {
	s, _, _ := newSession(t)

	calls := 0
	unsub := s.OnResize(func(Resize) { calls++ })
	if s.Listeners() != 1 {
		t.Fatalf("listeners = %d, want 1", s.Listeners())
	}

	_ = s.Resize(800, 600)
	unsub()
	unsub() // idempotent
	_ = s.Resize(1024, 768)

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if s.Listeners() != 0 {
		t.Errorf("listeners = %d, want 0", s.Listeners())
	}
}

func TestListenerMayUnsubscribeItself(t *testing.T) {
	s, _, _ := newSession(t)

	var unsub func()
	calls := 0
	unsub = s.OnResize(func(Resize) {
		calls++
		unsub()
	})
	_ = s.Resize(1, 1)
	_ = s.Resize(2, 2)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDestroy(t *testing.T) {
	s, _, hall := newSession(t)
	s.OnNodeChanged(func(NodeChanged) {})
	s.OnHotspotSelected(func(HotspotSelected) {})
	s.OnResize(func(Resize) {})

	s.Destroy()

	if s.Listeners() != 0 {
		t.Errorf("listeners after Destroy = %d, want 0", s.Listeners())
	}
	if err := s.Navigate(hall.String()); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Navigate err = %v, want ErrDestroyed", err)
	}
	if err := s.Resize(1, 1); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Resize err = %v, want ErrDestroyed", err)
	}
	if err := s.SelectMarker("x"); !errors.Is(err, ErrDestroyed) {
		t.Errorf("SelectMarker err = %v, want ErrDestroyed", err)
	}
}

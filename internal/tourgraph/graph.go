// Package tourgraph projects a virtual tour with its spheres and hotspots
// into the node graph consumed by the panorama viewer. Hotspot coordinates
// are stored in degrees relative to each sphere's unrotated frame; the
// projector converts them to viewer-space radians offset by the sphere's
// initial yaw.
package tourgraph

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"tourcms/internal/metrics"
	"tourcms/internal/models"
)

// ErrEmptyGraph is returned when a tour has no spheres to show.
var ErrEmptyGraph = errors.New("tour has no spheres")

// Link is a navigation edge to another node.
type Link struct {
	NodeID   string   `json:"nodeId"`
	Position Position `json:"position"`
}

// MarkerData is the opaque payload handed back on marker selection.
type MarkerData struct {
	Hotspot models.Hotspot `json:"hotspot"`
}

// Marker is a visual hotspot on a node.
type Marker struct {
	ID       string     `json:"id"`
	Position Position   `json:"position"`
	HTML     string     `json:"html"`
	Tooltip  string     `json:"tooltip,omitempty"`
	Data     MarkerData `json:"data"`
}

// SphereCorrection rotates the panorama; Pan is in radians.
type SphereCorrection struct {
	Pan float64 `json:"pan"`
}

// Node is one sphere in viewer form.
type Node struct {
	ID               string           `json:"id"`
	Panorama         string           `json:"panorama"`
	Name             string           `json:"name"`
	Caption          string           `json:"caption"`
	Links            []Link           `json:"links"`
	Markers          []Marker         `json:"markers"`
	SphereCorrection SphereCorrection `json:"sphereCorrection"`

	// Source records which fallback step produced Panorama.
	Source SourceKind `json:"-"`
}

// Graph is the ordered node set for one tour.
type Graph struct {
	TourID   string `json:"tourId"`
	TourName string `json:"tourName"`
	Nodes    []Node `json:"nodes"`
}

// DanglingLink is a navigation link whose target is not a node of the graph.
type DanglingLink struct {
	From string
	To   string
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// Start picks the first node to display: the requested id when it names a
// node, otherwise the first node.
func (g *Graph) Start(requested string) (*Node, error) {
	if len(g.Nodes) == 0 {
		return nil, ErrEmptyGraph
	}
	if requested != "" {
		if n, ok := g.Node(requested); ok {
			return n, nil
		}
	}
	return &g.Nodes[0], nil
}

// DanglingLinks lists links that point outside the graph.
func (g *Graph) DanglingLinks() []DanglingLink {
	ids := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		ids[n.ID] = struct{}{}
	}
	var out []DanglingLink
	for _, n := range g.Nodes {
		for _, l := range n.Links {
			if _, ok := ids[l.NodeID]; !ok {
				out = append(out, DanglingLink{From: n.ID, To: l.NodeID})
			}
		}
	}
	return out
}

// BuildNode converts one sphere. Panorama resolution uses the fallback chain
// and substitutes the placeholder when nothing resolves; no probing happens here.
func BuildNode(s *models.Sphere) Node {
	n := Node{
		ID:               s.ID.String(),
		Name:             s.Name,
		Caption:          s.Description,
		Links:            []Link{},
		Markers:          []Marker{},
		SphereCorrection: SphereCorrection{Pan: ToRadians(s.InitialYaw)},
	}

	if src, ok := ResolveSphere(s); ok {
		n.Panorama = src.URL
		n.Source = src.Kind
	} else {
		n.Panorama = Placeholder()
		n.Source = SourcePlaceholder
		metrics.GraphPlaceholders.WithLabelValues("missing").Inc()
	}

	for _, h := range s.Hotspots {
		pos := ViewerPosition(h.Yaw, h.Pitch, s.InitialYaw)
		if h.IsNavigation() && h.TargetSphereID != nil {
			n.Links = append(n.Links, Link{NodeID: h.TargetSphereID.String(), Position: pos})
		}
		m := Marker{
			ID:       "marker-" + h.ID.String(),
			Position: pos,
			HTML:     MarkerHTML(h),
			Data:     MarkerData{Hotspot: h},
		}
		if h.Tooltip != nil {
			m.Tooltip = *h.Tooltip
		}
		n.Markers = append(n.Markers, m)
	}
	return n
}

// BuildGraph converts a tour without probing panoramas.
func BuildGraph(t *models.VirtualTour) *Graph {
	g := &Graph{
		TourID:   t.ID.String(),
		TourName: t.Name,
		Nodes:    make([]Node, 0, len(t.Spheres)),
	}
	for i := range t.Spheres {
		g.Nodes = append(g.Nodes, BuildNode(&t.Spheres[i]))
	}
	return g
}

// Projector builds graphs and verifies panorama URLs.
type Projector struct {
	prober      Prober
	concurrency int
}

// NewProjector creates a projector. A nil prober disables URL checks.
func NewProjector(prober Prober, concurrency int) *Projector {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Projector{prober: prober, concurrency: concurrency}
}

// Project builds the graph for t and replaces panoramas that fail the
// probe with the placeholder. Dangling links are kept and logged.
func (p *Projector) Project(ctx context.Context, t *models.VirtualTour) (*Graph, error) {
	g := BuildGraph(t)

	if p.prober != nil {
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(p.concurrency)
		for i := range g.Nodes {
			n := &g.Nodes[i]
			if n.Source == SourcePlaceholder || strings.HasPrefix(n.Panorama, "data:") {
				continue
			}
			eg.Go(func() error {
				if !p.prober.Probe(egCtx, n.Panorama) {
					slog.Warn("panorama unavailable, using placeholder",
						"tour", g.TourID, "sphere", n.ID, "url", n.Panorama)
					n.Panorama = Placeholder()
					n.Source = SourcePlaceholder
					metrics.GraphPlaceholders.WithLabelValues("probe_failed").Inc()
				}
				return nil
			})
		}
		_ = eg.Wait()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	for _, d := range g.DanglingLinks() {
		slog.Warn("dangling navigation link", "tour", g.TourID, "from", d.From, "to", d.To)
	}

	metrics.GraphNodesProjected.Add(float64(len(g.Nodes)))
	return g, nil
}

var markerTmpl = template.Must(template.New("marker").Parse(
	`<div class="tour-marker tour-marker--{{.Type}}">` +
		`<span class="tour-marker__icon" aria-hidden="true"></span>` +
		`{{if or .Tooltip .Content}}<div class="tour-marker__label">` +
		`{{with .Tooltip}}<strong title="{{.}}">{{.}}</strong>{{end}}` +
		`{{with .Content}}<p>{{.}}</p>{{end}}` +
		`</div>{{end}}</div>`,
))

// MarkerHTML renders the marker element for a hotspot. Text is escaped.
func MarkerHTML(h models.Hotspot) string {
	typ := string(h.Type)
	if !h.IsNavigation() {
		typ = string(models.HotspotInfo)
	}
	view := struct {
		Type, Tooltip, Content string
	}{Type: typ}
	if h.Tooltip != nil {
		view.Tooltip = *h.Tooltip
	}
	if h.Content != nil {
		view.Content = *h.Content
	}

	var buf bytes.Buffer
	if err := markerTmpl.Execute(&buf, view); err != nil {
		slog.Error("marker render failed", "hotspot", h.ID, "error", err)
		return ""
	}
	return buf.String()
}

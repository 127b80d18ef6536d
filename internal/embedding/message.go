// Package embedding implements the iframe embed surface: the typed
// messages an embedded tour posts to its parent frame, the origin policy
// that picks the postMessage target, the bridge from viewer events to
// messages, and the copy-paste embed snippets shown to editors.
package embedding

import (
	"encoding/json"
	"sync"

	"tourcms/internal/metrics"
	"tourcms/internal/viewer"
)

// MessageType is the "type" discriminator of a posted message.
type MessageType string

const (
	TypeTourLoaded     MessageType = "tour-loaded"
	TypeTourResize     MessageType = "tour-resize"
	TypeSphereChanged  MessageType = "sphere-changed"
	TypeHotspotClicked MessageType = "hotspot-clicked"
)

// Message is one of the four embed messages.
type Message interface {
	MessageType() MessageType
}

// TourLoaded is posted once when the viewer mounts.
type TourLoaded struct {
	TourName    string `json:"tourName"`
	SphereCount int    `json:"sphereCount"`
}

// TourResize is posted when the viewer container changes size.
type TourResize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SphereChanged is posted after navigating to another sphere.
type SphereChanged struct {
	SphereID   string `json:"sphereId"`
	SphereName string `json:"sphereName"`
}

// HotspotClicked is posted when an info hotspot is selected.
type HotspotClicked struct {
	HotspotID      string `json:"hotspotId"`
	HotspotType    string `json:"hotspotType"`
	HotspotContent string `json:"hotspotContent"`
}

func (TourLoaded) MessageType() MessageType     { return TypeTourLoaded }
func (TourResize) MessageType() MessageType     { return TypeTourResize }
func (SphereChanged) MessageType() MessageType  { return TypeSphereChanged }
func (HotspotClicked) MessageType() MessageType { return TypeHotspotClicked }

// MarshalJSON methods put the "type" key next to the message fields.

func (m TourLoaded) MarshalJSON() ([]byte, error) {
	type fields TourLoaded
	return json.Marshal(struct {
		Type MessageType `json:"type"`
		fields
	}{m.MessageType(), fields(m)})
}

func (m TourResize) MarshalJSON() ([]byte, error) {
	type fields TourResize
	return json.Marshal(struct {
		Type MessageType `json:"type"`
		fields
	}{m.MessageType(), fields(m)})
}

func (m SphereChanged) MarshalJSON() ([]byte, error) {
	type fields SphereChanged
	return json.Marshal(struct {
		Type MessageType `json:"type"`
		fields
	}{m.MessageType(), fields(m)})
}

func (m HotspotClicked) MarshalJSON() ([]byte, error) {
	type fields HotspotClicked
	return json.Marshal(struct {
		Type MessageType `json:"type"`
		fields
	}{m.MessageType(), fields(m)})
}

// Bus delivers messages to the parent frame.
type Bus interface {
	Post(m Message) error
}

// Outbox is a Bus that queues messages for the embed page script, which
// posts them to TargetOrigin once the viewer is ready.
type Outbox struct {
	targetOrigin string

	mu       sync.Mutex
	messages []Message
}

// NewOutbox creates an empty outbox addressed to targetOrigin.
func NewOutbox(targetOrigin string) *Outbox {
	return &Outbox{targetOrigin: targetOrigin}
}

// Post queues m.
func (o *Outbox) Post(m Message) error {
	o.mu.Lock()
	o.messages = append(o.messages, m)
	o.mu.Unlock()
	metrics.EmbedMessages.WithLabelValues(string(m.MessageType())).Inc()
	return nil
}

// TargetOrigin returns the postMessage target origin.
func (o *Outbox) TargetOrigin() string {
	return o.targetOrigin
}

// Messages returns a copy of the queued messages in posting order.
func (o *Outbox) Messages() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Message(nil), o.messages...)
}

// MarshalJSON renders the outbox as {"targetOrigin", "messages", "events"},
// where events is EventMessages.
func (o *Outbox) MarshalJSON() ([]byte, error) {
	msgs := o.Messages()
	if msgs == nil {
		msgs = []Message{}
	}
	return json.Marshal(struct {
		TargetOrigin string                       `json:"targetOrigin"`
		Messages     []Message                    `json:"messages"`
		Events       map[viewer.Event]MessageType `json:"events"`
	}{o.targetOrigin, msgs, EventMessages})
}

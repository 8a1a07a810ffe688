package sse

import (
	"encoding/json"
	"strings"

	"github.com/kbukum/depkit/di"
)

// EventPayload is the data of a registry event on the stream. The SSE event
// name is the event kind.
type EventPayload struct {
	Kind    string `json:"kind"`
	Key     string `json:"key"`
	Feature string `json:"feature"`
	Depth   int    `json:"depth"`
}

// Feed publishes every event of r to hub, with the key's feature as topic.
// Observers are not carried across a promotion, so feed the new registry
// after promoting.
func Feed(r *di.Registry, hub *Hub) di.Subscription {
	return r.Subscribe(func(e di.Event) {
		feature, _, _ := strings.Cut(e.Key, di.KeySeparator)
		data, err := json.Marshal(EventPayload{
			Kind:    e.Kind.String(),
			Key:     e.Key,
			Feature: feature,
			Depth:   e.Depth,
		})
		if err != nil {
			return
		}
		hub.Publish(feature, e.Kind.String(), data)
	})
}

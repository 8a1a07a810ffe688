package sse

import (
	"path"

	"github.com/kbukum/depkit/logger"
)

const clientBuffer = 256

// Client is one connected event stream.
type Client struct {
	id     string
	filter string
	events chan Message
}

// NewClient creates a client that receives messages whose topic matches
// filter, a path.Match glob. An empty filter matches everything.
func NewClient(id, filter string) *Client {
	if filter == "" {
		filter = "*"
	}
	return &Client{
		id:     id,
		filter: filter,
		events: make(chan Message, clientBuffer),
	}
}

// ID returns the client's identifier.
func (c *Client) ID() string { return c.id }

// Filter returns the client's topic glob.
func (c *Client) Filter() string { return c.filter }

// Events returns the channel the client's messages arrive on. It is closed
// when the client is unregistered or the hub stops.
func (c *Client) Events() <-chan Message { return c.events }

// Matches reports whether the client wants messages on topic.
func (c *Client) Matches(topic string) bool {
	ok, err := path.Match(c.filter, topic)
	return err == nil && ok
}

// Send queues m without blocking. It returns false if the client is too slow
// and the message was dropped.
func (c *Client) Send(m Message) bool {
	select {
	case c.events <- m:
		return true
	default:
		logger.Warn("[SSE] Client channel full, dropping message", map[string]interface{}{
			"client_id": c.id,
			"topic":     m.Topic,
		})
		return false
	}
}

func (c *Client) close() {
	close(c.events)
}

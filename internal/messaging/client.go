package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spounge-ai/rosetta/pkg/execution"
)

// DefaultPingTimeout bounds how long a liveness check waits for PONG.
const DefaultPingTimeout = time.Second

// Client sends messages on behalf of one context.
type Client struct {
	bus  *Bus
	self Address
}

func NewClient(bus *Bus, self Address) Client {
	return Client{bus: bus, self: self}
}

func (c Client) Self() Address {
	return c.self
}

func (c Client) ToRuntime(ctx context.Context, msg Message) (json.RawMessage, error) {
	return c.bus.Send(ctx, c.self, Background(), msg)
}

func (c Client) ToTab(ctx context.Context, tabID int, msg Message) (json.RawMessage, error) {
	return c.bus.Send(ctx, c.self, Tab(tabID), msg)
}

// PostToRuntime delivers msg to the background without waiting for a reply.
func (c Client) PostToRuntime(ctx context.Context, msg Message) error {
	return c.bus.Post(ctx, c.self, Background(), msg)
}

func (c Client) Broadcast(ctx context.Context, msg Message) int {
	return c.bus.Broadcast(ctx, c.self, msg)
}

// Ping reports whether the tab answers PING with PONG within timeout. It
// always returns by the deadline, whatever the receiver does.
func (c Client) Ping(ctx context.Context, tabID int, timeout time.Duration) (bool, error) {
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	return execution.WithTimeout(ctx, timeout, func(ctx context.Context) (bool, error) {
		raw, err := c.ToTab(ctx, tabID, New(Ping{}))
		if err != nil {
			return false, err
		}
		return IsPong(raw), nil
	})
}

// PostToTab delivers msg to a tab without waiting for a reply.
func (c Client) PostToTab(ctx context.Context, tabID int, msg Message) error {
	return c.bus.Post(ctx, c.self, Tab(tabID), msg)
}

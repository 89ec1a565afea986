package client

import (
	"encoding/json"
	"time"

	"github.com/speechbubble/botkit/internal/state"
)

// The accessors below give application code a consistent, race-free
// read of the replica: each one runs on the manager goroutine and
// returns a copy. They must not be called from observer callbacks.

// Phase reports the current connection phase.
func (c *Client) Phase() Phase {
	var p Phase
	c.sync(func() { p = c.phase })
	return p
}

// SessionID returns the server-issued session id, if logged in before.
func (c *Client) SessionID() string {
	var id string
	c.sync(func() { id = c.sessionID })
	return id
}

// Username returns the canonical username once logged in, otherwise
// the configured one.
func (c *Client) Username() string {
	var name string
	c.sync(func() { name = c.username })
	return name
}

// Epoch returns the server's last reported epoch.
func (c *Client) Epoch() float64 {
	var e float64
	c.sync(func() { e = c.epoch })
	return e
}

// LastPing returns the time of the last server status report.
func (c *Client) LastPing() time.Time {
	var t time.Time
	c.sync(func() { t = c.lastPing })
	return t
}

// ServerConfig returns the raw server configuration from login.
func (c *Client) ServerConfig() json.RawMessage {
	var raw json.RawMessage
	c.sync(func() { raw = c.serverConfig })
	return raw
}

// Self returns the own-user record.
func (c *Client) Self() state.User {
	var u state.User
	c.sync(func() { u = c.replica.Self() })
	return u
}

// User returns the named user record from the replica.
func (c *Client) User(username string) (state.User, bool) {
	var (
		u  state.User
		ok bool
	)
	c.sync(func() { u, ok = c.replica.User(username) })
	return u, ok
}

// Channel returns one channel record from the replica.
func (c *Client) Channel(id string) (state.Channel, bool) {
	var (
		ch state.Channel
		ok bool
	)
	c.sync(func() { ch, ok = c.replica.Channel(id) })
	return ch, ok
}

// Channels returns a copy of the whole channel table.
func (c *Client) Channels() map[string]state.Channel {
	var chans map[string]state.Channel
	c.sync(func() { chans = c.replica.Channels() })
	return chans
}

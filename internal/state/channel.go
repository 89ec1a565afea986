package state

import "encoding/json"

// RoleFlags maps a channel-scoped role name (admin, voice, ...) to
// whether the user holds it. Distinct from global User privileges.
type RoleFlags map[string]Flag

// Admin reports whether the channel admin role is held.
func (r RoleFlags) Admin() bool {
	return bool(r["admin"])
}

// Presence marks a user as live in a channel roster.
type Presence struct {
	Live Flag `json:"live"`
}

// Channel is the long-lived record for one channel, keyed by id.
type Channel struct {
	ID      string
	Title   string
	Topic   string
	PM      bool
	Deleted bool

	// UI marks an active foreground context. Local-only, never set
	// from the wire.
	UI bool

	// LiveUsers exists only once the channel has been joined.
	LiveUsers map[string]Presence

	// Users is the per-channel role table, username to role flags.
	Users map[string]RoleFlags

	// History is released as soon as a UI context is established.
	History []json.RawMessage

	Extra map[string]json.RawMessage
}

// Clone returns a copy that shares no maps with the receiver.
func (c Channel) Clone() Channel {
	out := c
	if c.LiveUsers != nil {
		out.LiveUsers = make(map[string]Presence, len(c.LiveUsers))
		for k, v := range c.LiveUsers {
			out.LiveUsers[k] = v
		}
	}
	if c.Users != nil {
		out.Users = make(map[string]RoleFlags, len(c.Users))
		for k, v := range c.Users {
			out.Users[k] = v
		}
	}
	if c.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(c.Extra))
		for k, v := range c.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// ChannelUpdate is a partial update for a Channel. Nil fields were
// absent from the wire payload and must preserve the existing value.
type ChannelUpdate struct {
	Title     *string
	Topic     *string
	PM        *Flag
	Deleted   *Flag
	LiveUsers map[string]Presence
	Users     map[string]RoleFlags
	History   []json.RawMessage
	Extra     map[string]json.RawMessage
}

func (c *ChannelUpdate) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	for key, raw := range fields {
		var err error
		switch key {
		case "cmd":
			// envelope routing tag, not channel data
		case "title":
			err = json.Unmarshal(raw, &c.Title)
		case "topic":
			err = json.Unmarshal(raw, &c.Topic)
		case "pm":
			err = json.Unmarshal(raw, &c.PM)
		case "deleted":
			err = json.Unmarshal(raw, &c.Deleted)
		case "live_users":
			err = json.Unmarshal(raw, &c.LiveUsers)
		case "users":
			err = json.Unmarshal(raw, &c.Users)
		case "history":
			err = json.Unmarshal(raw, &c.History)
		default:
			if c.Extra == nil {
				c.Extra = make(map[string]json.RawMessage)
			}
			c.Extra[key] = raw
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Apply merges the update into the record. Each specified field
// overwrites wholesale; unspecified fields keep their current value.
func (c *Channel) Apply(up ChannelUpdate) {
	if up.Title != nil {
		c.Title = *up.Title
	}
	if up.Topic != nil {
		c.Topic = *up.Topic
	}
	if up.PM != nil {
		c.PM = bool(*up.PM)
	}
	if up.Deleted != nil {
		c.Deleted = bool(*up.Deleted)
	}
	if up.LiveUsers != nil {
		c.LiveUsers = up.LiveUsers
	}
	if up.Users != nil {
		c.Users = up.Users
	}
	if up.History != nil {
		c.History = up.History
	}
	for key, raw := range up.Extra {
		if c.Extra == nil {
			c.Extra = make(map[string]json.RawMessage)
		}
		c.Extra[key] = raw
	}
}

package proto

import (
	"encoding/json"

	"github.com/speechbubble/botkit/internal/state"
)

// LoginData is the server's response to a successful authenticate.
type LoginData struct {
	SessionID string                         `json:"session_id"`
	Username  string                         `json:"username"`
	User      state.UserUpdate               `json:"user"`
	Users     map[string]state.UserUpdate    `json:"users"`
	Config    json.RawMessage                `json:"config"`
	Channels  map[string]state.ChannelUpdate `json:"channels"`
}

// JoinedData announces a user joining a channel we are in.
type JoinedData struct {
	ChannelID string           `json:"channel_id"`
	Username  string           `json:"username"`
	User      state.UserUpdate `json:"user"`
}

// LeftData announces a user leaving a channel we are still in.
type LeftData struct {
	ChannelID string `json:"channel_id"`
	Username  string `json:"username"`
	Reason    string `json:"reason"`
}

// WelcomeData carries the channel snapshot for a channel we just joined.
type WelcomeData struct {
	ChannelID string              `json:"channel_id"`
	Channel   state.ChannelUpdate `json:"channel"`
}

// GoodbyeData announces that we left a channel.
type GoodbyeData struct {
	ChannelID string `json:"channel_id"`
	Reason    string `json:"reason"`
}

// ChannelUpdatedData carries a partial channel update, including
// creation and deletion.
type ChannelUpdatedData struct {
	ChannelID string              `json:"channel_id"`
	Channel   state.ChannelUpdate `json:"channel"`
}

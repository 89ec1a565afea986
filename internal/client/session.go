package client

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/speechbubble/botkit/internal/proto"
)

// ErrAuthFailure is reported when the server rejects authentication.
// The session is force-closed and never reconnects on its own.
var ErrAuthFailure = errors.New("authentication failure")

// authenticateLocked sends the authenticate request for a fresh
// transport: resume by session id when one is held, otherwise full
// credential authentication.
func (c *Client) authenticateLocked() {
	if c.sessionID != "" {
		c.logger.Debug().Msg("resuming session")
		c.sendLocked(proto.CmdAuthenticate, proto.AuthenticateData{
			SessionID: c.sessionID,
		})
		return
	}
	c.logger.Debug().Str("username", c.cfg.Username).Msg("authenticating")
	c.sendLocked(proto.CmdAuthenticate, proto.AuthenticateData{
		Username: c.cfg.Username,
		Password: c.cfg.Password,
	})
}

func (c *Client) handleLoginLocked(data json.RawMessage) {
	var d proto.LoginData
	if err := json.Unmarshal(data, &d); err != nil {
		c.emitError(fmt.Errorf("parse login: %w", err))
		return
	}

	c.phase = PhaseAuthenticated
	c.sessionID = d.SessionID
	c.username = d.Username
	c.serverConfig = d.Config
	c.replica.SetIdentity(d.Username, d.User)
	c.replica.SetUsers(d.Users)
	c.replica.MergeChannels(d.Channels)

	c.logger.Info().Str("username", d.Username).Msg("logged in")
	c.emitter.emit(Event{Name: EventLogin})

	for _, id := range c.cfg.Autojoin {
		c.sendCommandLocked(proto.SubJoin, proto.JoinData{ChannelID: id})
	}
	// A resumed session keeps its direct-message channels; the server
	// does not re-announce them, so rejoin explicitly.
	for _, id := range c.replica.PMChannels() {
		c.sendCommandLocked(proto.SubJoin, proto.JoinData{ChannelID: id})
	}
}

func (c *Client) handleAuthFailureLocked() {
	c.emitError(ErrAuthFailure)
	c.disconnectLocked()
}

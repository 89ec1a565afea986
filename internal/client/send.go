package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/speechbubble/botkit/internal/proto"
	"github.com/speechbubble/botkit/internal/state"
)

// Say sends a standard chat message to a channel.
func (c *Client) Say(channelID, html string) {
	c.do(func() { c.sayLocked(channelID, html, nil) })
}

// Pose sends a message with the pose presentation flag.
func (c *Client) Pose(channelID, html string) {
	c.do(func() {
		c.sayLocked(channelID, html, func(chat *state.ChatMessage) {
			chat.Type = state.TypePose
		})
	})
}

// Whisper sends a message visible only to one user in a channel.
func (c *Client) Whisper(channelID, username, html string) {
	c.do(func() {
		c.sayLocked(channelID, html, func(chat *state.ChatMessage) {
			chat.Type = state.TypeWhisper
			chat.To = username
		})
	})
}

// Join requests membership in a channel.
func (c *Client) Join(channelID string) {
	c.do(func() {
		c.sendCommandLocked(proto.SubJoin, proto.JoinData{ChannelID: channelID})
	})
}

// Leave gives up membership in a channel.
func (c *Client) Leave(channelID string) {
	c.do(func() {
		c.sendCommandLocked(proto.SubLeave, proto.JoinData{ChannelID: channelID})
	})
}

// SendCommand sends an arbitrary chat-domain sub-command. Like every
// send, it is dropped silently while disconnected.
func (c *Client) SendCommand(sub string, payload any) {
	c.do(func() { c.sendCommandLocked(sub, payload) })
}

func (c *Client) sayLocked(channelID, html string, mutate func(*state.ChatMessage)) {
	chat := state.ChatMessage{
		ID:        uuid.NewString(),
		ChannelID: channelID,
		Username:  c.username,
		Type:      state.TypeStandard,
		Content:   html,
		Date:      float64(time.Now().UnixNano()) / float64(time.Second),
	}
	if mutate != nil {
		mutate(&chat)
	}
	c.sendCommandLocked(proto.SubSay, chat)
}

func (c *Client) sendCommandLocked(sub string, payload any) {
	env, err := proto.EncodeSub(sub, payload)
	if err != nil {
		c.emitError(err)
		return
	}
	c.writeLocked(env)
}

func (c *Client) sendLocked(cmd string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		c.emitError(fmt.Errorf("marshal %s: %w", cmd, err))
		return
	}
	c.writeLocked(proto.Envelope{Cmd: cmd, Data: raw})
}

func (c *Client) writeLocked(env proto.Envelope) {
	if c.conn == nil || !c.connected {
		// unacknowledged sends while disconnected are dropped
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := c.conn.WriteJSON(ctx, env); err != nil {
		c.logger.Warn().Err(err).Str("cmd", env.Cmd).Msg("write failed")
	}
}

package client

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/speechbubble/botkit/internal/proto"
	"github.com/speechbubble/botkit/internal/state"
)

// subHandlers routes chat-domain sub-commands to replica handlers.
// Sub-commands without an entry (pong, avatar_changed, topic_changed,
// ...) are still republished to observers.
var subHandlers = map[string]func(*Client, json.RawMessage, *Event) error{
	proto.SubJoined:         (*Client).onJoined,
	proto.SubLeft:           (*Client).onLeft,
	proto.SubWelcome:        (*Client).onWelcome,
	proto.SubGoodbye:        (*Client).onGoodbye,
	proto.SubSaid:           (*Client).onSaid,
	proto.SubUserUpdated:    (*Client).onUserUpdated,
	proto.SubChannelUpdated: (*Client).onChannelUpdated,
}

func (c *Client) onFrame(gen int, env proto.Envelope) {
	if gen != c.gen {
		return
	}

	switch env.Cmd {
	case proto.CmdStatus:
		var st proto.StatusData
		if err := json.Unmarshal(env.Data, &st); err != nil {
			c.emitError(fmt.Errorf("parse status: %w", err))
			return
		}
		c.lastPing = time.Now()
		c.epoch = st.Epoch

	case proto.CmdAuthFailure:
		c.handleAuthFailureLocked()

	case proto.CmdLogin:
		c.handleLoginLocked(env.Data)

	case proto.CmdSpeechBubble:
		c.dispatchSubLocked(env.Data)

	default:
		// unrecognized top-level tags are ignored
	}
}

func (c *Client) dispatchSubLocked(data json.RawMessage) {
	sub, err := proto.DecodeSub(data)
	if err != nil {
		c.emitError(err)
		return
	}

	ev := Event{Name: sub, Data: data}
	if handle, ok := subHandlers[sub]; ok {
		if err := handle(c, data, &ev); err != nil {
			c.emitError(fmt.Errorf("%s: %w", sub, err))
			return
		}
	}
	c.emitter.emitDomain(ev)
}

func (c *Client) onJoined(data json.RawMessage, _ *Event) error {
	var d proto.JoinedData
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	c.replica.Joined(d.ChannelID, d.Username, d.User)
	return nil
}

func (c *Client) onLeft(data json.RawMessage, _ *Event) error {
	var d proto.LeftData
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	c.replica.Left(d.ChannelID, d.Username)
	return nil
}

func (c *Client) onWelcome(data json.RawMessage, _ *Event) error {
	var d proto.WelcomeData
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	c.replica.Welcome(d.ChannelID, d.Channel)
	return nil
}

func (c *Client) onGoodbye(data json.RawMessage, _ *Event) error {
	var d proto.GoodbyeData
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	if c.replica.Goodbye(d.ChannelID, d.Reason) {
		c.emitError(fmt.Errorf("removed from channel %q (%s)", d.ChannelID, d.Reason))
	}
	return nil
}

func (c *Client) onSaid(data json.RawMessage, ev *Event) error {
	var chat state.ChatMessage
	if err := json.Unmarshal(data, &chat); err != nil {
		return err
	}
	c.replica.Said(&chat)
	ev.Chat = &chat
	return nil
}

func (c *Client) onUserUpdated(data json.RawMessage, _ *Event) error {
	var up state.UserUpdate
	if err := json.Unmarshal(data, &up); err != nil {
		return err
	}
	c.replica.UserUpdated(up)
	return nil
}

func (c *Client) onChannelUpdated(data json.RawMessage, _ *Event) error {
	var d proto.ChannelUpdatedData
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	if c.replica.ChannelUpdated(d.ChannelID, d.Channel) {
		// server-initiated DM invitation: join it
		c.sendCommandLocked(proto.SubJoin, proto.JoinData{ChannelID: d.ChannelID})
	}
	return nil
}

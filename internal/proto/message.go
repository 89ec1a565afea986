package proto

import (
	"encoding/json"
	"fmt"
)

// Envelope is the wire envelope used in both directions.
type Envelope struct {
	Cmd  string          `json:"cmd"`
	Data json.RawMessage `json:"data"`
}

// Top-level commands.
const (
	// Client-originated session commands.
	CmdAuthenticate = "authenticate"
	CmdHey          = "hey"

	// Server-originated session commands.
	CmdStatus      = "status"
	CmdAuthFailure = "auth_failure"
	CmdLogin       = "login"

	// CmdSpeechBubble wraps chat-domain sub-commands in both directions.
	CmdSpeechBubble = "speechbubble"
)

// Chat-domain sub-commands carried inside a speechbubble envelope.
const (
	SubJoined         = "joined"
	SubLeft           = "left"
	SubWelcome        = "welcome"
	SubGoodbye        = "goodbye"
	SubSaid           = "said"
	SubUserUpdated    = "user_updated"
	SubChannelUpdated = "channel_updated"

	SubSay   = "say"
	SubJoin  = "join"
	SubLeave = "leave"
)

// AuthenticateData is sent by the client after the transport opens.
// Either SessionID (resume) or Username/Password (fresh login) is set.
type AuthenticateData struct {
	SessionID string `json:"session_id,omitempty"`
	Username  string `json:"username,omitempty"`
	Password  string `json:"password,omitempty"`
}

// StatusData is the server's periodic status report.
type StatusData struct {
	Epoch float64 `json:"epoch"`
}

// JoinData requests to join or leave a specific channel.
type JoinData struct {
	ChannelID string `json:"channel_id"`
}

// EncodeSub builds a speechbubble envelope. The sub-command name rides
// inside the data object as a "cmd" sibling of the payload fields.
func EncodeSub(sub string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", sub, err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Envelope{}, fmt.Errorf("%s payload is not an object: %w", sub, err)
	}
	if fields == nil {
		fields = make(map[string]json.RawMessage, 1)
	}
	name, err := json.Marshal(sub)
	if err != nil {
		return Envelope{}, err
	}
	fields["cmd"] = name

	data, err := json.Marshal(fields)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Cmd: CmdSpeechBubble, Data: data}, nil
}

// DecodeSub extracts the nested sub-command name from a speechbubble
// envelope's data. The remaining fields stay in data for the handler.
func DecodeSub(data json.RawMessage) (string, error) {
	var probe struct {
		Cmd string `json:"cmd"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return "", fmt.Errorf("decode sub-command: %w", err)
	}
	if probe.Cmd == "" {
		return "", fmt.Errorf("speechbubble envelope without cmd")
	}
	return probe.Cmd, nil
}

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/speechbubble/botkit/internal/config"
	"github.com/speechbubble/botkit/internal/proto"
)

// fakeConn is an in-memory transport end. The test pushes frames into
// incoming and observes client writes on writes.
type fakeConn struct {
	incoming chan []byte
	writes   chan proto.Envelope
	closed   chan struct{}
	once     sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		incoming: make(chan []byte, 16),
		writes:   make(chan proto.Envelope, 16),
		closed:   make(chan struct{}),
	}
}

func (c *fakeConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case data := <-c.incoming:
		return data, nil
	case <-c.closed:
		return nil, errors.New("use of closed connection")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *fakeConn) WriteJSON(ctx context.Context, v any) error {
	env, ok := v.(proto.Envelope)
	if !ok {
		return fmt.Errorf("unexpected write type %T", v)
	}
	select {
	case <-c.closed:
		return errors.New("use of closed connection")
	default:
	}
	c.writes <- env
	return nil
}

func (c *fakeConn) Close(code websocket.StatusCode, reason string) error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// push delivers a server frame to the client.
func (c *fakeConn) push(t *testing.T, cmd string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s data: %v", cmd, err)
	}
	frame, err := json.Marshal(proto.Envelope{Cmd: cmd, Data: raw})
	if err != nil {
		t.Fatalf("marshal %s envelope: %v", cmd, err)
	}
	c.incoming <- frame
}

// pushSub delivers a speechbubble sub-command to the client.
func (c *fakeConn) pushSub(t *testing.T, sub string, data any) {
	t.Helper()
	env, err := proto.EncodeSub(sub, data)
	if err != nil {
		t.Fatalf("encode %s: %v", sub, err)
	}
	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal %s envelope: %v", sub, err)
	}
	c.incoming <- raw
}

// fakeDialer hands out fresh fakeConns and records every dial.
type fakeDialer struct {
	conns chan *fakeConn
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{conns: make(chan *fakeConn, 8)}
}

func (d *fakeDialer) Dial(ctx context.Context, url, userAgent string) (Conn, error) {
	conn := newFakeConn()
	d.conns <- conn
	return conn, nil
}

// wait returns the next dialed connection.
func (d *fakeDialer) wait(t *testing.T) *fakeConn {
	t.Helper()
	select {
	case conn := <-d.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("no connection dialed")
		return nil
	}
}

// none asserts no dial happens within the window.
func (d *fakeDialer) none(t *testing.T, window time.Duration) {
	t.Helper()
	select {
	case <-d.conns:
		t.Fatal("unexpected dial")
	case <-time.After(window):
	}
}

func newTestClient(t *testing.T, mutate func(*config.Config)) (*Client, *fakeDialer) {
	t.Helper()

	cfg := config.Default()
	cfg.Username = "bot"
	cfg.Password = "secret"
	cfg.ReconnectDelay = 30 * time.Millisecond
	cfg.ConnectTimeout = time.Second
	cfg.HeyFreq = time.Hour
	if mutate != nil {
		mutate(&cfg)
	}

	dialer := newFakeDialer()
	cli := New(cfg, nil, WithDialer(dialer))
	t.Cleanup(cli.Close)
	return cli, dialer
}

// mustWrite returns the next envelope the client writes.
func mustWrite(t *testing.T, conn *fakeConn) proto.Envelope {
	t.Helper()
	select {
	case env := <-conn.writes:
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("expected a write, got none")
		return proto.Envelope{}
	}
}

// noWrite asserts the client writes nothing within the window.
func noWrite(t *testing.T, conn *fakeConn, window time.Duration) {
	t.Helper()
	select {
	case env := <-conn.writes:
		t.Fatalf("unexpected write: %s %s", env.Cmd, env.Data)
	case <-time.After(window):
	}
}

// mustEvent waits for the named event on a capture channel.
func mustEvent(t *testing.T, ch <-chan Event, name string) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Name == name {
				return ev
			}
		case <-deadline:
			t.Fatalf("event %q not received", name)
			return Event{}
		}
	}
}

// decodeAuth decodes an authenticate envelope.
func decodeAuth(t *testing.T, env proto.Envelope) proto.AuthenticateData {
	t.Helper()
	if env.Cmd != proto.CmdAuthenticate {
		t.Fatalf("expected authenticate, got %s", env.Cmd)
	}
	var d proto.AuthenticateData
	if err := json.Unmarshal(env.Data, &d); err != nil {
		t.Fatalf("decode authenticate: %v", err)
	}
	return d
}

// decodeJoin decodes a speechbubble join envelope and returns the
// channel id.
func decodeJoin(t *testing.T, env proto.Envelope) string {
	t.Helper()
	if env.Cmd != proto.CmdSpeechBubble {
		t.Fatalf("expected speechbubble, got %s", env.Cmd)
	}
	sub, err := proto.DecodeSub(env.Data)
	if err != nil {
		t.Fatalf("decode sub: %v", err)
	}
	if sub != proto.SubJoin {
		t.Fatalf("expected join, got %s", sub)
	}
	var d proto.JoinData
	if err := json.Unmarshal(env.Data, &d); err != nil {
		t.Fatalf("decode join: %v", err)
	}
	return d.ChannelID
}

// loginPayload is a minimal login response.
func loginPayload(sessionID string, channels map[string]any) map[string]any {
	if channels == nil {
		channels = map[string]any{}
	}
	return map[string]any{
		"session_id": sessionID,
		"username":   "bot",
		"user":       map[string]any{"username": "bot"},
		"users":      map[string]any{"bot": map[string]any{"username": "bot"}},
		"config":     map[string]any{},
		"channels":   channels,
	}
}

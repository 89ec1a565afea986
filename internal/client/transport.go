package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// Conn is the duplex surface the client needs from a transport.
type Conn interface {
	// Read returns the next text frame.
	Read(ctx context.Context) ([]byte, error)
	// WriteJSON sends one JSON-encoded frame.
	WriteJSON(ctx context.Context, v any) error
	// Close closes the transport with a status code and reason.
	Close(code websocket.StatusCode, reason string) error
}

// Dialer opens transports. Swapped for a fake in tests.
type Dialer interface {
	Dial(ctx context.Context, url, userAgent string) (Conn, error)
}

type wsDialer struct{}

func (wsDialer) Dial(ctx context.Context, url, userAgent string) (Conn, error) {
	header := http.Header{}
	if userAgent != "" {
		header.Set("User-Agent", userAgent)
	}
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: header,
	})
	if err != nil {
		return nil, err
	}
	return wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c wsConn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := c.conn.Read(ctx)
	return data, err
}

func (c wsConn) WriteJSON(ctx context.Context, v any) error {
	return wsjson.Write(ctx, c.conn, v)
}

func (c wsConn) Close(code websocket.StatusCode, reason string) error {
	return c.conn.Close(code, reason)
}

// closeStatus extracts a websocket status code and reason from a read
// error, falling back to abnormal closure for transport failures.
func closeStatus(err error) (websocket.StatusCode, string) {
	var ce websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code, ce.Reason
	}
	return websocket.StatusAbnormalClosure, err.Error()
}

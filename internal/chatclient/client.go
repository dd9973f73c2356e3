// Package chatclient is a terminal client for the room relay: it joins a room,
// sends typed lines as messages and prints what the room says.
package chatclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/roomchat/internal/chat"
)

const writeWait = 10 * time.Second

// Client is one joined session seen from the user's side.
type Client struct {
	conn     *websocket.Conn
	identity chat.Identity
	out      io.Writer

	writeMu sync.Mutex
}

// Dial joins room as nickname on the relay at serverURL (ws:// or wss://,
// with or without the /ws path). origin is sent as the Origin header.
func Dial(ctx context.Context, serverURL, origin, nickname, room string, out io.Writer) (*Client, error) {
	endpoint, err := joinURL(serverURL, nickname, room)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, endpoint, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %s: %w", endpoint, resp.Status, err)
		}
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	return &Client{
		conn:     conn,
		identity: chat.Identity{Nickname: nickname, Room: room},
		out:      out,
	}, nil
}

func joinURL(serverURL, nickname, room string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}

	q := u.Query()
	q.Set("nickname", nickname)
	q.Set("room", room)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Send posts content to the room.
func (c *Client) Send(content string) error {
	return c.write(chat.Message{Type: chat.TypeMessage, Content: content})
}

// Echo returns the transcript line for content sent by this client, since
// the relay does not send a user's own messages back.
func (c *Client) Echo(content string) string {
	from := c.identity
	room := from.Room
	return Format(chat.Message{Type: chat.TypeMessage, Content: content, From: &from, To: &room})
}

// SetTyping tells the room whether the user is typing.
func (c *Client) SetTyping(typing bool) error {
	return c.write(chat.Message{Type: chat.TypeNotification, IsTyping: &typing})
}

func (c *Client) write(msg chat.Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(msg)
}

// Receive prints incoming messages until the connection closes. A close
// frame from the server is returned as *websocket.CloseError so callers can
// show the rejection reason.
func (c *Client) Receive() error {
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
				return nil
			}
			return err
		}
		if messageType != websocket.TextMessage {
			continue
		}

		line, ok := Render(data)
		if !ok {
			continue
		}
		if _, err := fmt.Fprintln(c.out, line); err != nil {
			return err
		}
	}
}

// Close leaves the room with a normal closure.
func (c *Client) Close() error {
	c.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Client closed")
	err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	c.writeMu.Unlock()

	if closeErr := c.conn.Close(); err == nil {
		err = closeErr
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	return err
}

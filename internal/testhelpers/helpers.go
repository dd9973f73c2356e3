// Package testhelpers provides common utilities and helper functions for
// testing the room relay.
//
// It provides functions for creating test servers, dialing rooms, exchanging
// frames and asserting response properties to reduce duplication in tests.
package testhelpers

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/roomchat/internal/chat"
)

// TestOrigin is the Origin header sent by ConnectWebSocket. It matches the
// server's default allow-list.
const TestOrigin = "http://localhost:8080"

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// CreateTestServer starts an httptest.Server for handler and closes it when
// the test ends.
func CreateTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

// WebSocketURL builds the /ws join URL for a test server.
func WebSocketURL(serverURL, nickname, room string) string {
	q := url.Values{}
	q.Set("nickname", nickname)
	q.Set("room", room)
	return "ws" + strings.TrimPrefix(serverURL, "http") + "/ws?" + q.Encode()
}

// MakeRequest creates and executes an HTTP request, returning the response.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequest(method, url, http.NoBody)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

// ConnectWebSocket dials url with the test origin.
func ConnectWebSocket(url string) (*websocket.Conn, error) {
	return ConnectWebSocketWithOrigin(url, TestOrigin)
}

// ConnectWebSocketWithOrigin dials url with the given Origin header.
func ConnectWebSocketWithOrigin(url, origin string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// Join connects nickname to room and waits for the server's join notice,
// which guarantees the session is registered. The connection is closed when
// the test ends.
func Join(t *testing.T, serverURL, nickname, room string) *websocket.Conn {
	t.Helper()

	conn, err := ConnectWebSocket(WebSocketURL(serverURL, nickname, room))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ExpectNotice(t, conn, nickname+" joined "+room)
	return conn
}

// SendMessage sends a Message-typed frame with content.
func SendMessage(conn *websocket.Conn, content string) error {
	return conn.WriteJSON(map[string]string{"type": "Message", "content": content})
}

// SendRawMessage sends data as a text frame.
func SendRawMessage(conn *websocket.Conn, data []byte) error {
	return conn.WriteMessage(websocket.TextMessage, data)
}

// ReceiveMessage reads one message, waiting at most timeout.
func ReceiveMessage(conn *websocket.Conn, timeout time.Duration) (chat.Message, error) {
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return chat.Message{}, err
	}
	var msg chat.Message
	err := conn.ReadJSON(&msg)
	return msg, err
}

// MustReceive reads one message or fails the test.
func MustReceive(t *testing.T, conn *websocket.Conn) chat.Message {
	t.Helper()
	msg, err := ReceiveMessage(conn, 2*time.Second)
	require.NoError(t, err)
	return msg
}

// ExpectNotice reads one message and checks it is a server notice with content.
func ExpectNotice(t *testing.T, conn *websocket.Conn, content string) chat.Message {
	t.Helper()
	msg := MustReceive(t, conn)
	require.True(t, msg.IsServerNotice(), "expected a server notice, got %+v", msg)
	require.Equal(t, content, msg.Content)
	return msg
}

// ExpectNoMessage fails if anything arrives on conn within d. The connection
// cannot be read again after a deadline expires, so use it last.
func ExpectNoMessage(t *testing.T, conn *websocket.Conn, d time.Duration) {
	t.Helper()
	msg, err := ReceiveMessage(conn, d)
	require.Error(t, err, "expected no message, got %+v", msg)
}

// CloseWebSocket sends a normal closure and closes the connection.
func CloseWebSocket(conn *websocket.Conn) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return err
	}
	return conn.Close()
}

// AssertStatusCode checks if the HTTP response has the expected status code.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	require.Equal(t, expected, resp.StatusCode, "unexpected status code")
}

// AssertContentType checks if the HTTP response has the expected Content-Type header.
func AssertContentType(t *testing.T, resp *http.Response, expected string) {
	t.Helper()
	require.Equal(t, expected, resp.Header.Get("Content-Type"), "unexpected content type")
}

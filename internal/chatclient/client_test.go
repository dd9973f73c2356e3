package chatclient_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/roomchat/internal/chat"
	"github.com/Tyrowin/roomchat/internal/chatclient"
	"github.com/Tyrowin/roomchat/internal/server"
	"github.com/Tyrowin/roomchat/internal/testhelpers"
)

func init() {
	color.Disable()
}

// syncBuffer is a bytes.Buffer safe for the receive goroutine and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func startRelay(t *testing.T) string {
	t.Helper()
	hub := server.NewHub(server.NewConfig(), testhelpers.DiscardLogger())
	srv := testhelpers.CreateTestServer(t, server.SetupRoutes(hub))
	t.Cleanup(func() { _ = hub.Shutdown(5 * time.Second) })
	return srv.URL
}

func TestFormat(t *testing.T) {
	room := "general"

	msg := chat.Message{
		Type:    chat.TypeMessage,
		Content: "hi",
		From:    &chat.Identity{ID: "1", Nickname: "alice", Room: room, Color: "#FF0000"},
		To:      &room,
	}
	require.Equal(t, "[general] -> alice: hi", chatclient.Format(msg))

	notice := chat.JoinNotice(chat.Identity{Nickname: "bob", Room: room})
	require.Equal(t, "[general] -> *SERVER: bob joined general", chatclient.Format(notice))
}

func TestRender_SkipsTypingAndGarbage(t *testing.T) {
	_, ok := chatclient.Render([]byte(`{"type":"Notification","content":"","isTyping":true}`))
	require.False(t, ok)

	_, ok = chatclient.Render([]byte(`garbage`))
	require.False(t, ok)

	line, ok := chatclient.Render([]byte(`{"type":"Message","content":"yo","from":{"nickname":"z","room":"r"},"to":"r","isTyping":null}`))
	require.True(t, ok)
	require.Equal(t, "[r] -> z: yo", line)
}

func TestRender_MessageWithTypingFlagIsShown(t *testing.T) {
	line, ok := chatclient.Render([]byte(`{"type":"Message","content":"hello","from":{"nickname":"z","room":"r"},"to":"r","isTyping":false}`))

	require.True(t, ok)
	require.Equal(t, "[r] -> z: hello", line)
}

func TestRender_ServerNoticeIsShown(t *testing.T) {
	raw, err := json.Marshal(chat.LeaveNotice(chat.Identity{Nickname: "bob", Room: "general"}))
	require.NoError(t, err)

	line, ok := chatclient.Render(raw)

	require.True(t, ok)
	require.Equal(t, "[general] -> *SERVER: bob left general", line)
}

func TestRenderPresence(t *testing.T) {
	var buf bytes.Buffer

	chatclient.RenderPresence(&buf, []chat.Identity{
		{Nickname: "alice", Room: "general", Color: "#00FF00"},
		{Nickname: "bob", Room: "random", Color: "#0000FF"},
	})

	out := buf.String()
	require.Contains(t, out, "Room")
	require.Contains(t, out, "Nickname")
	require.Contains(t, out, "alice")
	require.Contains(t, out, "#0000FF")
}

func TestHTTPBase(t *testing.T) {
	base, err := chatclient.HTTPBase("ws://localhost:8080/ws?nickname=a")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080", base)

	base, err = chatclient.HTTPBase("wss://chat.example.com/ws")
	require.NoError(t, err)
	require.Equal(t, "https://chat.example.com", base)
}

func TestClient_SendAndReceive(t *testing.T) {
	req := require.New(t)
	serverURL := startRelay(t)
	ctx := context.Background()

	var aliceOut, bobOut syncBuffer
	alice, err := chatclient.Dial(ctx, serverURL, testhelpers.TestOrigin, "alice", "general", &aliceOut)
	req.NoError(err)
	defer func() { _ = alice.Close() }()
	go func() { _ = alice.Receive() }()

	req.Eventually(func() bool {
		return strings.Contains(aliceOut.String(), "alice joined general")
	}, 2*time.Second, 10*time.Millisecond)

	bob, err := chatclient.Dial(ctx, serverURL, testhelpers.TestOrigin, "bob", "general", &bobOut)
	req.NoError(err)
	defer func() { _ = bob.Close() }()
	go func() { _ = bob.Receive() }()

	req.Eventually(func() bool {
		return strings.Contains(aliceOut.String(), "bob joined general")
	}, 2*time.Second, 10*time.Millisecond)

	req.NoError(alice.SetTyping(true))
	req.NoError(alice.Send("hello bob"))
	req.Equal("[general] -> alice: hello bob", alice.Echo("hello bob"))

	req.Eventually(func() bool {
		return strings.Contains(bobOut.String(), "[general] -> alice: hello bob")
	}, 2*time.Second, 10*time.Millisecond)
	req.NotContains(bobOut.String(), "isTyping")

	ids, err := chatclient.Who(ctx, http.DefaultClient, serverURL, "general")
	req.NoError(err)
	req.Len(ids, 2)

	req.NoError(bob.Close())
	req.Eventually(func() bool {
		return strings.Contains(aliceOut.String(), "bob left general")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestClient_ReceiveReportsRejection(t *testing.T) {
	req := require.New(t)
	serverURL := startRelay(t)
	ctx := context.Background()

	var out syncBuffer
	first, err := chatclient.Dial(ctx, serverURL, testhelpers.TestOrigin, "alice", "general", &out)
	req.NoError(err)
	defer func() { _ = first.Close() }()
	go func() { _ = first.Receive() }()
	req.Eventually(func() bool {
		return strings.Contains(out.String(), "alice joined general")
	}, 2*time.Second, 10*time.Millisecond)

	second, err := chatclient.Dial(ctx, serverURL, testhelpers.TestOrigin, "alice", "general", &out)
	req.NoError(err)
	defer func() { _ = second.Close() }()

	err = second.Receive()
	var closeErr *websocket.CloseError
	req.True(errors.As(err, &closeErr), "got %v", err)
	req.Equal(server.CloseNicknameTaken, closeErr.Code)
}

func TestDial_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := chatclient.Dial(ctx, "ftp://localhost", "", "a", "b", nil)
	require.Error(t, err)

	serverURL := startRelay(t)
	_, err = chatclient.Dial(ctx, serverURL, "http://evil.example.com", "a", "b", nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
}

package main

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/roomchat/internal/chat"
	"github.com/Tyrowin/roomchat/internal/server"
	"github.com/Tyrowin/roomchat/internal/testhelpers"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRun_PromptsJoinsAndQuits(t *testing.T) {
	hub := server.NewHub(server.NewConfig(), testhelpers.DiscardLogger())
	srv := testhelpers.CreateTestServer(t, server.SetupRoutes(hub))
	t.Cleanup(func() { _ = hub.Shutdown(5 * time.Second) })

	watcher := testhelpers.Join(t, srv.URL, "watcher", "general")

	var out lockedBuffer
	in := strings.NewReader("alice\ngeneral\nhello there\n:q!\n")
	serverURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	require.NoError(t, run(serverURL, testhelpers.TestOrigin, "", "", in, &out))

	require.Contains(t, out.String(), "Enter your nickname: ")
	require.Contains(t, out.String(), "Enter the room name: ")
	require.Contains(t, out.String(), "Joined.")
	require.Contains(t, out.String(), "[general] -> alice: hello there")

	testhelpers.ExpectNotice(t, watcher, "alice joined general")
	msg := testhelpers.MustReceive(t, watcher)
	require.Equal(t, "hello there", msg.Content)
	require.Equal(t, "alice", msg.From.Nickname)
}

func TestRun_ReportsRejection(t *testing.T) {
	hub := server.NewHub(server.NewConfig(), testhelpers.DiscardLogger())
	srv := testhelpers.CreateTestServer(t, server.SetupRoutes(hub))
	t.Cleanup(func() { _ = hub.Shutdown(5 * time.Second) })

	in, stdin := io.Pipe()
	t.Cleanup(func() { _ = stdin.Close() })

	var out lockedBuffer
	err := run(srv.URL, testhelpers.TestOrigin, "server", "general", in, &out)

	require.EqualError(t, err, "disconnected: "+chat.ErrNicknameReserved.Error())
}

func TestDescribeClose(t *testing.T) {
	err := describeClose(&websocket.CloseError{Code: server.CloseNicknameTaken, Text: server.ErrNicknameTaken.Error()})
	require.EqualError(t, err, "disconnected: "+server.ErrNicknameTaken.Error())

	require.NoError(t, describeClose(nil))
}

package server

import (
	"errors"
	"net"
	"syscall"

	"github.com/gorilla/websocket"
)

// isExpectedCloseError reports whether err is the normal fallout of a peer
// or the server closing the socket first.
func isExpectedCloseError(err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, net.ErrClosed), errors.Is(err, websocket.ErrCloseSent):
		return true
	case errors.Is(err, syscall.EPIPE), errors.Is(err, syscall.ECONNRESET):
		return true
	}
	return false
}

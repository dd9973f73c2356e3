// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, and the built-in test page.
package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// ServeWS upgrades a GET request carrying nickname and room query parameters
// and hands the channel to a new session. Join validation happens after the
// upgrade so the client is told why it was rejected through the close frame.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	if !h.accepting() {
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return
	}

	query := r.URL.Query()
	nickname := query.Get("nickname")
	room := query.Get("room")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "addr", r.RemoteAddr, "err", err)
		return
	}

	if !h.Serve(conn, r.RemoteAddr, nickname, room) {
		rejectChannel(conn, websocket.CloseGoingAway, "server shutting down", h.log)
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Room chat server is running!")
}

// TestPageHandler serves an HTML page for joining a room from a browser.
func (h *Hub) TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if _, err := fmt.Fprint(w, testPage); err != nil {
		h.log.Warn("error writing HTML response", "err", err)
	}
}

const testPage = `<!DOCTYPE html>
<html>
<head>
    <title>Room Chat</title>
    <style>
        body { font-family: sans-serif; max-width: 720px; margin: 2em auto; }
        #log { border: 1px solid #bbb; height: 320px; overflow-y: auto; padding: 8px; font-family: monospace; }
        #typing { height: 1.2em; color: #888; font-style: italic; }
        .join { display: flex; gap: 6px; margin-bottom: 8px; }
        .send { display: flex; gap: 6px; margin-top: 8px; }
        .send input { flex: 1; }
        .offline { color: #a33; }
        .online { color: #2a2; }
    </style>
</head>
<body>
    <h2>Room Chat <small id="state" class="offline">offline</small></h2>
    <div class="join">
        <input id="nickname" placeholder="nickname">
        <input id="room" placeholder="room">
        <button id="join">Join</button>
    </div>
    <div id="log"></div>
    <div id="typing"></div>
    <div class="send">
        <input id="text" placeholder="message" disabled>
        <button id="send" disabled>Send</button>
    </div>

    <script>
        const $ = (id) => document.getElementById(id);
        const typers = new Set();
        let ws = null;
        let typing = false;

        function print(line, color) {
            const row = document.createElement('div');
            row.textContent = line;
            row.style.color = color || '#555';
            $('log').appendChild(row);
            $('log').scrollTop = $('log').scrollHeight;
        }

        function online(on) {
            $('state').textContent = on ? 'online' : 'offline';
            $('state').className = on ? 'online' : 'offline';
            $('text').disabled = !on;
            $('send').disabled = !on;
            $('join').textContent = on ? 'Leave' : 'Join';
        }

        function showTyping() {
            $('typing').textContent = typers.size ? [...typers].join(', ') + ' typing...' : '';
        }

        function setTyping(on) {
            if (ws && typing !== on) {
                typing = on;
                ws.send(JSON.stringify({ type: 'Notification', isTyping: on }));
            }
        }

        function join() {
            const q = new URLSearchParams({ nickname: $('nickname').value, room: $('room').value });
            const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
            ws = new WebSocket(scheme + location.host + '/ws?' + q);
            ws.onopen = () => online(true);
            ws.onmessage = (event) => {
                const msg = JSON.parse(event.data);
                const nick = msg.from ? msg.from.nickname : '?';
                if (msg.type === 'Notification' && msg.isTyping != null) {
                    msg.isTyping ? typers.add(nick) : typers.delete(nick);
                    showTyping();
                    return;
                }
                typers.delete(nick);
                showTyping();
                print('[' + msg.to + '] -> ' + nick + ': ' + msg.content, msg.from && msg.from.color);
            };
            ws.onclose = (event) => {
                print('closed' + (event.reason ? ': ' + event.reason : ''), '#a33');
                typers.clear();
                showTyping();
                online(false);
                ws = null;
            };
        }

        function send() {
            const content = $('text').value.trim();
            if (!content || !ws) {
                return;
            }
            setTyping(false);
            ws.send(JSON.stringify({ type: 'Message', content: content }));
            print('[' + $('room').value.trim() + '] -> ' + $('nickname').value.trim() + ': ' + content, '#225');
            $('text').value = '';
        }

        $('join').onclick = () => (ws ? ws.close(1000) : join());
        $('send').onclick = send;
        $('text').addEventListener('input', () => setTyping($('text').value !== ''));
        $('text').addEventListener('keydown', (e) => { if (e.key === 'Enter') send(); });
    </script>
</body>
</html>`

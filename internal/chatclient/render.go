package chatclient

import (
	"encoding/json"
	"fmt"

	"github.com/gookit/color"

	"github.com/Tyrowin/roomchat/internal/chat"
)

// Render formats one received frame as "[room] -> nickname: content".
// Typing indicators and undecodable frames yield ok == false.
func Render(data []byte) (line string, ok bool) {
	var msg chat.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", false
	}
	if msg.Type == chat.TypeNotification && msg.IsTyping != nil {
		return "", false
	}
	return Format(msg), true
}

// Format renders msg, coloring the sender with its server-assigned color.
// Server notices are shown in yellow.
func Format(msg chat.Message) string {
	room := ""
	if msg.To != nil {
		room = *msg.To
	}

	nickname := "?"
	if msg.From != nil {
		nickname = msg.From.Nickname
	}

	switch {
	case msg.IsServerNotice():
		nickname = color.Yellow.Sprint("*" + nickname)
	case msg.From != nil && msg.From.Color != "":
		nickname = color.HEX(msg.From.Color).Sprint(nickname)
	}

	return fmt.Sprintf("[%s] -> %s: %s", room, nickname, msg.Content)
}

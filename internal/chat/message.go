// Package chat defines the JSON payloads exchanged between room members and
// the server, together with the validation rules applied to them.
package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ServerNickname is the reserved sender of synthetic notices. It is never
// registered as a real identity.
const ServerNickname = "SERVER"

// MessageType discriminates user messages from notifications.
type MessageType string

const (
	TypeMessage      MessageType = "Message"
	TypeNotification MessageType = "Notification"
)

var (
	ErrUnknownType     = errors.New("unknown message type")
	ErrContentRequired = errors.New("content is required for Message payloads")
	ErrTypingRequired  = errors.New("isTyping is required for Notification payloads")
	ErrMalformed       = errors.New("malformed message")
)

// messageTypes lists the known types in their numeric order.
var messageTypes = []MessageType{TypeMessage, TypeNotification}

// UnmarshalText accepts the type names in any case.
func (t *MessageType) UnmarshalText(text []byte) error {
	for _, known := range messageTypes {
		if strings.EqualFold(string(text), string(known)) {
			*t = known
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownType, string(text))
}

// UnmarshalJSON accepts a type name in any case or its numeric index
// (0 for Message, 1 for Notification).
func (t *MessageType) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		return t.UnmarshalText([]byte(name))
	}

	var index int
	if err := json.Unmarshal(data, &index); err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownType, data)
	}
	if index < 0 || index >= len(messageTypes) {
		return fmt.Errorf("%w: %d", ErrUnknownType, index)
	}
	*t = messageTypes[index]
	return nil
}

// Identity names a session: the nickname it joined with and the room it is in.
// ID and Color are assigned by the server and do not take part in uniqueness.
type Identity struct {
	ID       string `json:"id,omitempty"`
	Nickname string `json:"nickname"`
	Room     string `json:"room"`
	Color    string `json:"color,omitempty"`
}

// Message is the record carried by every text frame. From and To are always
// set by the server before a message is relayed.
type Message struct {
	ID       string      `json:"id,omitempty"`
	Type     MessageType `json:"type"`
	Content  string      `json:"content"`
	From     *Identity   `json:"from"`
	To       *string     `json:"to"`
	IsTyping *bool       `json:"isTyping"`
	SentAt   time.Time   `json:"sentAt,omitzero"`
}

// inbound holds the fields a client may set. Anything else in the frame,
// including id, from, to and sentAt, is ignored whatever its JSON type.
type inbound struct {
	Type     MessageType `json:"type"`
	Content  string      `json:"content"`
	IsTyping *bool       `json:"isTyping"`
}

// Decode parses an inbound frame and checks the per-type required fields.
// The result carries no routing fields; Stamp adds them.
func Decode(data []byte) (Message, error) {
	var in inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	msg := Message{Type: in.Type, Content: in.Content}
	switch in.Type {
	case TypeMessage:
		if in.Content == "" {
			return Message{}, ErrContentRequired
		}
	case TypeNotification:
		if in.IsTyping == nil {
			return Message{}, ErrTypingRequired
		}
		msg.IsTyping = in.IsTyping
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownType, string(in.Type))
	}
	return msg, nil
}

// Stamp binds a decoded message to its sender. Whatever the client put in
// from/to is overwritten.
func (m Message) Stamp(sender Identity) Message {
	from := sender
	room := sender.Room
	m.ID = uuid.NewString()
	m.From = &from
	m.To = &room
	m.SentAt = time.Now().UTC()
	return m
}

// JoinNotice is the synthetic notification announcing who entered a room.
func JoinNotice(who Identity) Message {
	return notice(who.Room, fmt.Sprintf("%s joined %s", who.Nickname, who.Room))
}

// LeaveNotice is the synthetic notification announcing who left a room.
func LeaveNotice(who Identity) Message {
	return notice(who.Room, fmt.Sprintf("%s left %s", who.Nickname, who.Room))
}

func notice(room, content string) Message {
	return Message{
		Type:    TypeNotification,
		Content: content,
	}.Stamp(Identity{Nickname: ServerNickname, Room: room})
}

// IsServerNotice reports whether m was authored by the server.
func (m Message) IsServerNotice() bool {
	return m.From != nil && m.From.Nickname == ServerNickname && m.From.ID == ""
}

// Package platform contains the chat-platform connector: the boundary between
// the engine and the wire protocol. The engine only ever sees chat.Events and
// the Connector interface.
package platform

import (
	"strings"

	"chatwarden/internal/chat"
)

// MessageHandler receives every parsed command invocation.
type MessageHandler func(ev *chat.Event)

// Connector is the platform boundary. Connect blocks until Disconnect is
// called or the connection drops.
type Connector interface {
	Connect() error
	Disconnect() error
	Say(channel, message string)
	Whisper(user, message string)
	Userlist(channel string) ([]string, error)
	OnMessage(fn MessageHandler)
}

// ParseCommand turns a raw chat line into a command event. Lines not starting
// with '!' are not commands.
func ParseCommand(message string, sender chat.User, whispered bool) (*chat.Event, bool) {
	if message == "" || message[0] != '!' {
		return nil, false
	}

	fields := strings.Fields(message[1:])
	if len(fields) == 0 || fields[0] == "" {
		return nil, false
	}

	return &chat.Event{
		Command:   strings.ToLower(fields[0]),
		Args:      fields[1:],
		Sender:    sender,
		Whispered: whispered,
	}, true
}

// Package chat holds the types shared between the platform connector, the
// dispatcher, and command handlers.
package chat

import "context"

// Group levels. Lower number means higher privilege; GroupEveryone is the
// floor for unknown chatters.
const (
	GroupBroadcaster = 0
	GroupModerator   = 1
	GroupVIP         = 5
	GroupEveryone    = 10
)

// User identifies the sender of a chat event.
type User struct {
	Name        string
	DisplayName string
	GroupID     int
	IsMod       bool
}

// Event is one parsed command invocation. Respond is attached by the
// dispatcher before a handler runs; it routes to whisper or public chat based
// on how the command arrived.
type Event struct {
	Command    string
	Subcommand string
	Args       []string
	Sender     User
	Whispered  bool
	Respond    func(msg string)
}

// HandlerFunc executes a command.
type HandlerFunc func(ctx context.Context, ev *Event) error

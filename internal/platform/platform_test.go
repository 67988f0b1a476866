package platform

import (
	"testing"

	"chatwarden/internal/chat"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	sender := chat.User{Name: "alice", GroupID: chat.GroupEveryone}

	tests := []struct {
		name     string
		message  string
		wantOK   bool
		wantCmd  string
		wantArgs []string
	}{
		{name: "plain command", message: "!points", wantOK: true, wantCmd: "points"},
		{name: "command with args", message: "!points give bob 10", wantOK: true, wantCmd: "points", wantArgs: []string{"give", "bob", "10"}},
		{name: "uppercase lowered", message: "!POINTS", wantOK: true, wantCmd: "points"},
		{name: "extra whitespace", message: "!roll   20  ", wantOK: true, wantCmd: "roll", wantArgs: []string{"20"}},
		{name: "not a command", message: "hello there", wantOK: false},
		{name: "empty message", message: "", wantOK: false},
		{name: "bare prefix", message: "!", wantOK: false},
		{name: "prefix then spaces", message: "!   ", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := ParseCommand(tt.message, sender, false)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			require.NotNil(t, ev)
			assert.Equal(t, tt.wantCmd, ev.Command)
			if len(tt.wantArgs) > 0 {
				assert.Equal(t, tt.wantArgs, ev.Args)
			} else {
				assert.Empty(t, ev.Args)
			}
			assert.Equal(t, sender, ev.Sender)
		})
	}
}

func TestParseCommandKeepsWhisperFlag(t *testing.T) {
	ev, ok := ParseCommand("!points", chat.User{Name: "alice"}, true)
	require.True(t, ok)
	assert.True(t, ev.Whispered)
}

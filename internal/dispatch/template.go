package dispatch

import (
	"strings"

	"chatwarden/internal/chat"
)

// RenderTemplate substitutes the custom-command placeholders:
//
//	$user     sender's display name
//	$streamer the channel name
//	$target   first argument, with any leading @ stripped
//	{args}    all arguments joined with spaces
func RenderTemplate(tpl string, ev *chat.Event, streamer string) string {
	out := tpl

	name := ev.Sender.DisplayName
	if name == "" {
		name = ev.Sender.Name
	}
	out = strings.ReplaceAll(out, "$user", name)
	out = strings.ReplaceAll(out, "$streamer", streamer)

	if len(ev.Args) > 0 {
		target := strings.TrimPrefix(ev.Args[0], "@")
		out = strings.ReplaceAll(out, "$target", target)
	}
	out = strings.ReplaceAll(out, "{args}", strings.Join(ev.Args, " "))

	return out
}

package platform

import (
	"context"

	"chatwarden/internal/chat"

	twitchirc "github.com/gempir/go-twitch-irc/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Twitch is the IRC-based Twitch connector. Outgoing messages pass a rate
// limiter so the bot stays under the chat send limits.
type Twitch struct {
	client  *twitchirc.Client
	channel string
	limiter *rate.Limiter
	handler MessageHandler
	log     zerolog.Logger
}

// NewTwitch builds the connector for one channel. sendRate is outgoing
// messages per second.
func NewTwitch(botName, oauthToken, channel string, sendRate float64, logger zerolog.Logger) *Twitch {
	t := &Twitch{
		client:  twitchirc.NewClient(botName, oauthToken),
		channel: channel,
		limiter: rate.NewLimiter(rate.Limit(sendRate), 1),
		log:     logger,
	}

	t.client.OnPrivateMessage(func(m twitchirc.PrivateMessage) {
		t.deliver(m.Message, userFrom(&m.User), false)
	})
	t.client.OnWhisperMessage(func(m twitchirc.WhisperMessage) {
		t.deliver(m.Message, userFrom(&m.User), true)
	})
	t.client.OnConnect(func() {
		t.log.Info().Str("channel", channel).Msg("Connected to Twitch chat")
	})
	t.client.Join(channel)

	return t
}

// OnMessage sets the command handler. Must be called before Connect.
func (t *Twitch) OnMessage(fn MessageHandler) {
	t.handler = fn
}

// Connect opens the chat connection and blocks until disconnected.
func (t *Twitch) Connect() error {
	return t.client.Connect()
}

func (t *Twitch) Disconnect() error {
	return t.client.Disconnect()
}

// Say sends a public message to a channel.
func (t *Twitch) Say(channel, message string) {
	if err := t.limiter.Wait(context.Background()); err != nil {
		return
	}
	t.client.Say(channel, message)
}

// Whisper sends a private message to a user.
func (t *Twitch) Whisper(user, message string) {
	if err := t.limiter.Wait(context.Background()); err != nil {
		return
	}
	t.client.Whisper(user, message)
}

// Userlist returns the chatters currently in the channel.
func (t *Twitch) Userlist(channel string) ([]string, error) {
	return t.client.Userlist(channel)
}

func (t *Twitch) deliver(message string, sender chat.User, whispered bool) {
	ev, ok := ParseCommand(message, sender, whispered)
	if !ok || t.handler == nil {
		return
	}
	t.handler(ev)
}

// userFrom derives the group level from chat badges: broadcaster outranks
// moderator outranks VIP outranks everyone.
func userFrom(u *twitchirc.User) chat.User {
	_, isMod := u.Badges["moderator"]
	group := chat.GroupEveryone
	if _, ok := u.Badges["vip"]; ok {
		group = chat.GroupVIP
	}
	if isMod {
		group = chat.GroupModerator
	}
	if _, ok := u.Badges["broadcaster"]; ok {
		group = chat.GroupBroadcaster
	}
	return chat.User{
		Name:        u.Name,
		DisplayName: u.DisplayName,
		GroupID:     group,
		IsMod:       isMod,
	}
}

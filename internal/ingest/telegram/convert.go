package telegram

import (
	"strconv"
	"strings"
	"time"

	"github.com/gotd/td/tg"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
)

// peers indexes the users and chats attached to a history response.
type peers struct {
	users    map[int64]*tg.User
	channels map[int64]*tg.Channel
}

func newPeers(users []tg.UserClass, chats []tg.ChatClass) peers {
	p := peers{
		users:    make(map[int64]*tg.User, len(users)),
		channels: make(map[int64]*tg.Channel, len(chats)),
	}

	for _, u := range users {
		if user, ok := u.(*tg.User); ok {
			p.users[user.ID] = user
		}
	}

	for _, c := range chats {
		if channel, ok := c.(*tg.Channel); ok {
			p.channels[channel.ID] = channel
		}
	}

	return p
}

// sender names the author of msg. Broadcast posts have no author peer and are
// attributed to the channel itself.
func (p peers) sender(msg *tg.Message, channel string) string {
	from, ok := msg.GetFromID()
	if !ok {
		return "@" + channel
	}

	switch peer := from.(type) {
	case *tg.PeerUser:
		if u, ok := p.users[peer.UserID]; ok && u.Username != "" {
			return "@" + u.Username
		}

		return "user" + strconv.FormatInt(peer.UserID, 10)
	case *tg.PeerChannel:
		if c, ok := p.channels[peer.ChannelID]; ok && c.Username != "" {
			return "@" + c.Username
		}

		return "channel" + strconv.FormatInt(peer.ChannelID, 10)
	case *tg.PeerChat:
		return "chat" + strconv.FormatInt(peer.ChatID, 10)
	default:
		return "@" + channel
	}
}

// toMessage converts a history entry. ok is false for entries carrying
// neither text nor media.
func toMessage(msg *tg.Message, channel string, p peers) (domain.Message, bool) {
	if strings.TrimSpace(msg.Message) == "" && msg.Media == nil {
		return domain.Message{}, false
	}

	return domain.Message{
		ID:        strconv.Itoa(msg.ID),
		Text:      msg.Message,
		Sender:    p.sender(msg, channel),
		Timestamp: time.Unix(int64(msg.Date), 0).UTC(),
		Channel:   channel,
		Platform:  domain.PlatformTelegram,
	}, true
}

// historyMessages unpacks the concrete history response types.
func historyMessages(history tg.MessagesMessagesClass) ([]tg.MessageClass, peers, bool) {
	switch h := history.(type) {
	case *tg.MessagesMessages:
		return h.Messages, newPeers(h.Users, h.Chats), true
	case *tg.MessagesMessagesSlice:
		return h.Messages, newPeers(h.Users, h.Chats), true
	case *tg.MessagesChannelMessages:
		return h.Messages, newPeers(h.Users, h.Chats), true
	default:
		return nil, peers{}, false
	}
}

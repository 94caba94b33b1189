package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
	apperrors "github.com/lueurxax/threat-monitor/internal/core/errors"
)

const testChannelID = 777

type fakeAPI struct {
	mu         sync.Mutex
	resolves   int
	history    []tg.MessageClass
	users      []tg.UserClass
	historyErr error
	minIDs     []int
}

func (f *fakeAPI) ContactsResolveUsername(_ context.Context, req *tg.ContactsResolveUsernameRequest) (*tg.ContactsResolvedPeer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.resolves++

	if req.Username == "missing" {
		return &tg.ContactsResolvedPeer{}, nil
	}

	return &tg.ContactsResolvedPeer{
		Chats: []tg.ChatClass{&tg.Channel{ID: testChannelID, AccessHash: 1, Title: "Market", Username: req.Username}},
	}, nil
}

func (f *fakeAPI) MessagesGetHistory(_ context.Context, req *tg.MessagesGetHistoryRequest) (tg.MessagesMessagesClass, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.minIDs = append(f.minIDs, req.MinID)

	if f.historyErr != nil {
		return nil, f.historyErr
	}

	var msgs []tg.MessageClass

	for _, m := range f.history {
		if msg, ok := m.(*tg.Message); ok && msg.ID <= req.MinID {
			continue
		}

		msgs = append(msgs, m)
	}

	return &tg.MessagesChannelMessages{
		Messages: msgs,
		Users:    f.users,
		Chats:    []tg.ChatClass{&tg.Channel{ID: testChannelID, Username: "market"}},
	}, nil
}

func unix(sec int) int {
	return int(time.Date(2024, 6, 1, 12, 0, sec, 0, time.UTC).Unix())
}

func fromUser(msg *tg.Message, userID int64) *tg.Message {
	msg.SetFromID(&tg.PeerUser{UserID: userID})

	return msg
}

func TestFetch_NotConnected(t *testing.T) {
	src := New(Config{Channels: []string{"market"}}, nil)

	_, err := src.Fetch(context.Background())
	require.ErrorIs(t, err, apperrors.ErrClientDisabled)
}

func TestFetch_ConvertsAndTracksLastID(t *testing.T) {
	api := &fakeAPI{
		// Newest first, as the server returns it.
		history: []tg.MessageClass{
			fromUser(&tg.Message{ID: 12, Date: unix(30), Message: "group post"}, 5),
			&tg.MessageService{ID: 11},
			&tg.Message{ID: 10, Date: unix(10), Message: "broadcast post"},
			&tg.Message{ID: 9, Date: unix(5), Message: ""},
		},
		users: []tg.UserClass{&tg.User{ID: 5, Username: "dealer"}},
	}

	src := New(Config{Channels: []string{"@market"}}, nil)
	src.Attach(api, nil)

	msgs, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, "10", msgs[0].ID)
	assert.Equal(t, "@market", msgs[0].Sender)
	assert.Equal(t, "market", msgs[0].Channel)
	assert.Equal(t, domain.PlatformTelegram, msgs[0].Platform)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 10, 0, time.UTC), msgs[0].Timestamp)

	assert.Equal(t, "12", msgs[1].ID)
	assert.Equal(t, "@dealer", msgs[1].Sender)
	assert.Equal(t, "telegram:dealer", msgs[1].AccountID())

	msgs, err = src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, msgs)

	assert.Equal(t, []int{0, 12}, api.minIDs)
	assert.Equal(t, 1, api.resolves, "peer is resolved once and cached")
}

func TestFetch_DownloadsMedia(t *testing.T) {
	api := &fakeAPI{
		history: []tg.MessageClass{
			&tg.Message{ID: 1, Date: unix(0), Media: &tg.MessageMediaPhoto{}},
		},
	}

	src := New(Config{Channels: []string{"market"}}, nil)
	src.Attach(api, func(context.Context, tg.MessageMediaClass) ([]byte, error) {
		return []byte{0x89, 0x50}, nil
	})

	msgs, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, [][]byte{{0x89, 0x50}}, msgs[0].Images)
}

func TestFetch_FailingChannelIsSkipped(t *testing.T) {
	api := &fakeAPI{
		history: []tg.MessageClass{&tg.Message{ID: 1, Date: unix(0), Message: "hello"}},
	}

	src := New(Config{Channels: []string{"missing", "market"}}, nil)
	src.Attach(api, nil)

	msgs, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "market", msgs[0].Channel)
}

func TestHandleRPCError(t *testing.T) {
	src := New(Config{}, nil)

	err := src.handleRPCError(context.Background(), "market", tgerr.New(420, "FLOOD_WAIT_0"))
	require.ErrorIs(t, err, apperrors.ErrRateLimited)

	other := errors.New("CHANNEL_PRIVATE")
	err = src.handleRPCError(context.Background(), "market", other)
	require.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, apperrors.ErrRateLimited)
}

func TestSender(t *testing.T) {
	p := newPeers(
		[]tg.UserClass{&tg.User{ID: 1, Username: "named"}, &tg.User{ID: 2}},
		[]tg.ChatClass{&tg.Channel{ID: 3, Username: "otherchan"}},
	)

	tests := []struct {
		name string
		from tg.PeerClass
		want string
	}{
		{"broadcast", nil, "@market"},
		{"named user", &tg.PeerUser{UserID: 1}, "@named"},
		{"anonymous user", &tg.PeerUser{UserID: 2}, "user2"},
		{"unknown user", &tg.PeerUser{UserID: 9}, "user9"},
		{"channel author", &tg.PeerChannel{ChannelID: 3}, "@otherchan"},
		{"basic chat", &tg.PeerChat{ChatID: 4}, "chat4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &tg.Message{ID: 1}
			if tt.from != nil {
				msg.SetFromID(tt.from)
			}

			assert.Equal(t, tt.want, p.sender(msg, "market"))
		})
	}
}

func TestImageLocation(t *testing.T) {
	photo := &tg.MessageMediaPhoto{Photo: &tg.Photo{
		ID: 1,
		Sizes: []tg.PhotoSizeClass{
			&tg.PhotoSize{Type: "s", W: 90, H: 90},
			&tg.PhotoSize{Type: "y", W: 1280, H: 960},
			&tg.PhotoSize{Type: "m", W: 320, H: 240},
		},
	}}

	loc, ok := imageLocation(photo).(*tg.InputPhotoFileLocation)
	require.True(t, ok)
	assert.Equal(t, "y", loc.ThumbSize)

	assert.Nil(t, imageLocation(&tg.MessageMediaDocument{Document: &tg.Document{MimeType: "video/mp4"}}))
	assert.Nil(t, imageLocation(&tg.MessageMediaDocument{Document: &tg.Document{MimeType: "image/png", Size: maxImageSize + 1}}))
	assert.NotNil(t, imageLocation(&tg.MessageMediaDocument{Document: &tg.Document{MimeType: "image/jpeg", Size: 1024}}))
	assert.Nil(t, imageLocation(&tg.MessageMediaGeo{}))
}

func TestNormalizeChannel(t *testing.T) {
	for _, in := range []string{"market", "@market", " https://t.me/market", "t.me/market"} {
		assert.Equal(t, "market", normalizeChannel(in))
	}
}

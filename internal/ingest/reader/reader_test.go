package reader

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
	"github.com/lueurxax/threat-monitor/internal/ingest/ingesttest"
)

type fakeRepo struct {
	mu    sync.Mutex
	saved map[string]string
	err   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{saved: make(map[string]string)}
}

func (r *fakeRepo) SaveRawMessage(_ context.Context, source string, msg domain.Message) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return false, r.err
	}

	key := string(msg.Platform) + "/" + msg.Channel + "/" + msg.ID
	if _, ok := r.saved[key]; ok {
		return false, nil
	}

	r.saved[key] = source

	return true, nil
}

func msg(id, text string) domain.Message {
	return domain.Message{
		ID:        id,
		Text:      text,
		Sender:    "@seller",
		Timestamp: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Channel:   "market",
		Platform:  domain.PlatformTelegram,
	}
}

func TestPoll_StoresValidNewRecords(t *testing.T) {
	repo := newFakeRepo()
	invalid := msg("3", "no sender")
	invalid.Sender = ""

	src := ingesttest.New("fake",
		[]domain.Message{msg("1", "hello"), msg("2", "world"), invalid},
		[]domain.Message{msg("2", "world"), msg("4", "again")},
	)

	r := New(repo, time.Second, nil, src)

	n, err := r.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = r.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n, "duplicate record must not count")

	n, err = r.Poll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.Len(t, repo.saved, 3)
	assert.Equal(t, "fake", repo.saved["telegram/market/1"])
}

func TestPoll_SourceFailureIsSkipped(t *testing.T) {
	repo := newFakeRepo()

	broken := ingesttest.New("broken")
	broken.FailWith(errors.New("upstream down"))

	healthy := ingesttest.New("healthy", []domain.Message{msg("1", "hello")})

	r := New(repo, time.Second, nil, broken, healthy)

	n, err := r.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, broken.Calls())
}

func TestPoll_StorageFailureAborts(t *testing.T) {
	repo := newFakeRepo()
	repo.err = errors.New("db gone")

	r := New(repo, time.Second, nil, ingesttest.New("fake", []domain.Message{msg("1", "hello")}))

	_, err := r.Poll(context.Background())
	require.ErrorIs(t, err, repo.err)
}

func TestRun(t *testing.T) {
	t.Run("no sources", func(t *testing.T) {
		require.Error(t, New(newFakeRepo(), time.Second, nil).Run(context.Background()))
	})

	t.Run("stops on cancel", func(t *testing.T) {
		repo := newFakeRepo()
		src := ingesttest.New("fake", []domain.Message{msg("1", "hello")})

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := New(repo, 10*time.Millisecond, nil, src).Run(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Len(t, repo.saved, 1)
		assert.GreaterOrEqual(t, src.Calls(), 2)
	})
}

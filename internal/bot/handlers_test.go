package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
	apperrors "github.com/lueurxax/threat-monitor/internal/core/errors"
	"github.com/lueurxax/threat-monitor/internal/output/narrative"
)

const adminID = 42

type fakeAPI struct {
	mu      sync.Mutex
	sent    []tgbotapi.MessageConfig
	updates chan tgbotapi.Update
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}

	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.sent))
	for i, m := range f.sent {
		out[i] = m.Text
	}

	return out
}

type fakeRepo struct {
	backlog  int
	alerts   []domain.Alert
	accounts map[string]domain.AccountSummary
	top      []domain.AccountSummary
	acked    []string
	err      error
}

func (f *fakeRepo) GetBacklogCount(context.Context) (int, error) { return f.backlog, f.err }

func (f *fakeRepo) ListAlerts(_ context.Context, _ bool, limit int) ([]domain.Alert, error) {
	return f.alerts[:min(limit, len(f.alerts))], f.err
}

func (f *fakeRepo) AcknowledgeAlert(_ context.Context, id string) error {
	if id == "gone" {
		return fmt.Errorf("acknowledge alert %s: %w", id, apperrors.ErrNotFound)
	}

	f.acked = append(f.acked, id)

	return f.err
}

func (f *fakeRepo) GetAccount(_ context.Context, id string) (*domain.AccountSummary, error) {
	acc, ok := f.accounts[id]
	if !ok {
		return nil, f.err
	}

	return &acc, nil
}

func (f *fakeRepo) ListAccounts(_ context.Context, limit int) ([]domain.AccountSummary, error) {
	return f.top[:min(limit, len(f.top))], f.err
}

func command(from int64, text string) *tgbotapi.Message {
	length := len(text)
	if i := strings.IndexByte(text, ' '); i > 0 {
		length = i
	}

	return &tgbotapi.Message{
		Text:     text,
		From:     &tgbotapi.User{ID: from, UserName: "investigator"},
		Chat:     &tgbotapi.Chat{ID: from},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}},
	}
}

func newTestBot(t *testing.T, repo *fakeRepo) (*Bot, *fakeAPI) {
	t.Helper()

	renderer, err := narrative.NewRenderer()
	require.NoError(t, err)

	api := &fakeAPI{updates: make(chan tgbotapi.Update, 4)}

	return NewWithAPI(api, []int64{adminID}, repo, renderer, nil), api
}

func dealerAccount() domain.AccountSummary {
	meta := domain.NewExtractedMetadata()
	meta.Values[domain.CategoryPaymentHandle] = []string{"dealer@upi"}
	meta.Confidence[domain.CategoryPaymentHandle] = 1

	return domain.AccountSummary{
		ID:            "telegram:dealer",
		Username:      "@dealer",
		Platform:      domain.PlatformTelegram,
		ThreatScore:   92,
		RiskLevel:     domain.RiskHigh,
		BotConfidence: 0.25,
		Metadata:      meta,
		MessageCount:  7,
		FirstSeen:     time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		LastSeen:      time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestCommands(t *testing.T) {
	alerts := []domain.Alert{
		{ID: "a1", Type: domain.AlertHighThreat, Severity: domain.SeverityCritical, Message: "score <92>", CreatedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)},
		{ID: "a2", Type: domain.AlertBotDetected, Severity: domain.SeverityHigh, Message: "bot"},
	}

	tests := []struct {
		name     string
		text     string
		repo     *fakeRepo
		contains []string
	}{
		{name: "help", text: "/help", repo: &fakeRepo{}, contains: []string{"/alerts", "/ack"}},
		{name: "status", text: "/status", repo: &fakeRepo{backlog: 12, alerts: alerts}, contains: []string{"Backlog: 12", "Open alerts: 2"}},
		{name: "alerts escapes", text: "/alerts", repo: &fakeRepo{alerts: alerts}, contains: []string{"[CRITICAL]", "score &lt;92&gt;", "/ack a1", "2024-06-01 12:00"}},
		{name: "alerts limit", text: "/alerts 1", repo: &fakeRepo{alerts: alerts}, contains: []string{"/ack a1"}},
		{name: "no alerts", text: "/alerts", repo: &fakeRepo{}, contains: []string{"No open alerts."}},
		{name: "ack usage", text: "/ack", repo: &fakeRepo{}, contains: []string{"Usage"}},
		{name: "ack", text: "/ack a1", repo: &fakeRepo{}, contains: []string{"a1</code> acknowledged"}},
		{name: "ack missing", text: "/ack gone", repo: &fakeRepo{}, contains: []string{"not found"}},
		{
			name:     "account",
			text:     "/account @dealer",
			repo:     &fakeRepo{accounts: map[string]domain.AccountSummary{"telegram:dealer": dealerAccount()}},
			contains: []string{"Threat score: 92 (high)", "upi_ids: dealer@upi", "THREAT NARRATIVE - @dealer", "<pre>"},
		},
		{name: "account unknown", text: "/account whatsapp:ghost", repo: &fakeRepo{}, contains: []string{"not seen yet"}},
		{name: "top", text: "/top 5", repo: &fakeRepo{top: []domain.AccountSummary{dealerAccount()}}, contains: []string{"1. <code>telegram:dealer</code> score 92 (high), bot 25%"}},
		{name: "storage error", text: "/status", repo: &fakeRepo{err: errors.New("db down")}, contains: []string{"Failed to load backlog: db down"}},
		{name: "unknown", text: "/launch", repo: &fakeRepo{}, contains: []string{"Unknown command"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, api := newTestBot(t, tt.repo)

			b.handleUpdate(context.Background(), tgbotapi.Update{Message: command(adminID, tt.text)})

			texts := api.texts()
			require.Len(t, texts, 1)

			for _, want := range tt.contains {
				assert.Contains(t, texts[0], want)
			}

			for _, m := range api.sent {
				assert.Equal(t, tgbotapi.ModeHTML, m.ParseMode)
				assert.Equal(t, int64(adminID), m.ChatID)
			}
		})
	}
}

func TestAlertsListRespectsLimit(t *testing.T) {
	repo := &fakeRepo{alerts: []domain.Alert{{ID: "a1"}, {ID: "a2"}}}
	b, api := newTestBot(t, repo)

	b.handleUpdate(context.Background(), tgbotapi.Update{Message: command(adminID, "/alerts 1")})

	require.Len(t, api.texts(), 1)
	assert.NotContains(t, api.texts()[0], "a2")
}

func TestIgnoresNonAdmins(t *testing.T) {
	b, api := newTestBot(t, &fakeRepo{})

	b.handleUpdate(context.Background(), tgbotapi.Update{Message: command(7, "/status")})
	b.handleUpdate(context.Background(), tgbotapi.Update{})

	assert.Empty(t, api.texts())
}

func TestIgnoresPlainText(t *testing.T) {
	b, api := newTestBot(t, &fakeRepo{})

	b.handleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		Text: "hello",
		From: &tgbotapi.User{ID: adminID},
		Chat: &tgbotapi.Chat{ID: adminID},
	}})

	assert.Empty(t, api.texts())
}

func TestRun(t *testing.T) {
	repo := &fakeRepo{backlog: 3}
	b, api := newTestBot(t, repo)

	api.updates <- tgbotapi.Update{Message: command(adminID, "/status")}
	close(api.updates)

	require.NoError(t, b.Run(context.Background()))
	require.Len(t, api.texts(), 1)
	assert.Contains(t, api.texts()[0], "Backlog: 3")

	b, _ = newTestBot(t, repo)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, b.Run(ctx), context.Canceled)
}

func TestListSize(t *testing.T) {
	tests := []struct {
		arg  string
		want int
	}{
		{"", defaultListSize},
		{"abc", defaultListSize},
		{"-3", defaultListSize},
		{"5", 5},
		{"500", maxListSize},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, listSize(tt.arg), tt.arg)
	}
}

package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nguyentranbao-ct/ehbot/internal/config"
	"github.com/nguyentranbao-ct/ehbot/internal/models"
	"github.com/nguyentranbao-ct/ehbot/internal/repo"
	"github.com/nguyentranbao-ct/ehbot/internal/repo/filestore"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Unix(1_700_000_000, 0).UTC()

type sentMessage struct {
	ChatID string
	Text   string
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (m *fakeMessenger) SendMessage(ctx context.Context, chatID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (m *fakeMessenger) messages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sent...)
}

func testConfig() *config.Config {
	conf := &config.Config{}
	conf.Bot.Name = "ehbot"
	conf.Bot.MaxTags = 5
	conf.Bot.RateLimitWindow = 5 * time.Minute
	conf.Bot.Timezone = "America/Mexico_City"
	conf.Bot.AdminID = "58699815"
	return conf
}

func testStore(t *testing.T) repo.Store {
	t.Helper()
	store, err := filestore.NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

var (
	ana   = models.User{ID: "101", FirstName: "Ana", Username: "ana"}
	bruno = models.User{ID: "102", FirstName: "Bruno"}
)

func newMessage(author models.User, chatID, text string, at time.Time) *models.Message {
	return &models.Message{
		ID:     1,
		Author: author,
		ChatID: chatID,
		Text:   text,
		Date:   at,
	}
}

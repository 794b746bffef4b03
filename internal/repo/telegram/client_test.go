package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/nguyentranbao-ct/ehbot/internal/config"
	"github.com/nguyentranbao-ct/ehbot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "123:abc"

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	conf := &config.Config{}
	conf.Bot.Token = testToken
	conf.Telegram.BaseURL = srv.URL
	conf.Telegram.Timeout = 5 * time.Second
	conf.Telegram.SendRPS = 1000
	return NewClient(conf)
}

func TestGetUpdates(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/bot"+testToken+"/getUpdates", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("offset"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.Equal(t, "0", r.URL.Query().Get("timeout"))

		_, _ = io.WriteString(w, `{"ok":true,"result":[
			{"update_id":42,"message":{"message_id":7,"date":1700000000,"text":"/tag buy milk",
				"chat":{"id":-1001,"type":"group"},
				"from":{"id":58699815,"first_name":"Cesar","username":"cesar"}}},
			{"update_id":43,"edited_message":{"message_id":8}},
			{"update_id":44,"message":{"message_id":9,"date":1700000001,"chat":{"id":-1001}}}
		]}`)
	})

	updates, err := client.GetUpdates(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, updates, 3)

	assert.Equal(t, int64(42), updates[0].UpdateID)
	require.NotNil(t, updates[0].Message)
	assert.Equal(t, &models.Message{
		ID:     7,
		Author: models.User{ID: "58699815", FirstName: "Cesar", Username: "cesar"},
		ChatID: "-1001",
		Text:   "/tag buy milk",
		Date:   time.Unix(1700000000, 0).UTC(),
	}, updates[0].Message)

	assert.Nil(t, updates[1].Message)
	assert.Nil(t, updates[2].Message)
}

func TestGetUpdatesFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "not ok",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"ok":false,"description":"Conflict"}`)
			},
		},
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"ok":false,"error_code":401,"description":"Unauthorized"}`)
			},
		},
		{
			name: "garbage",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `<html>`)
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client := newTestClient(t, tt.handler)
			_, err := client.GetUpdates(context.Background(), 0)
			assert.ErrorIs(t, err, models.ErrTransport)
		})
	}
}

func TestTransportErrorHidesToken(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		conn, _, err := w.(http.Hijacker).Hijack()
		require.NoError(t, err)
		_ = conn.Close()
	})

	_, err := client.GetUpdates(context.Background(), 0)
	require.ErrorIs(t, err, models.ErrTransport)
	assert.NotContains(t, err.Error(), testToken)

	err = client.SendMessage(context.Background(), "1", "hi")
	require.ErrorIs(t, err, models.ErrTransport)
	assert.NotContains(t, err.Error(), testToken)
}

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Errorf(format string, v ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}

func (l *recordingLogger) Warnf(format string, v ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}

func (l *recordingLogger) Debugf(format string, v ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}

func TestRedactLogger(t *testing.T) {
	t.Parallel()

	rec := &recordingLogger{}
	l := redactLogger{log: rec, token: testToken}
	l.Errorf("GET %s failed", "https://api.telegram.org/bot"+testToken+"/getUpdates")
	l.Warnf("retry %d", 1)
	l.Debugf("%s", testToken)

	require.Len(t, rec.lines, 3)
	assert.Equal(t, "GET https://api.telegram.org/bot<token>/getUpdates failed", rec.lines[0])
	assert.Equal(t, "retry 1", rec.lines[1])
	assert.Equal(t, "<token>", rec.lines[2])
}

func TestSendMessage(t *testing.T) {
	t.Parallel()

	received := make(chan sendMessageRequest, 1)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/bot"+testToken+"/sendMessage", r.URL.Path)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")
		var req sendMessageRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		received <- req
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":1}}`)
	})

	require.NoError(t, client.SendMessage(context.Background(), "-1001", "Stop spamming"))
	assert.Equal(t, sendMessageRequest{ChatID: "-1001", Text: "Stop spamming"}, <-received)
}

func TestSendMessageNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	err := client.SendMessage(context.Background(), "1", "hi")
	assert.ErrorIs(t, err, models.ErrTransport)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSetWebhook(t *testing.T) {
	t.Parallel()

	urls := make(chan string, 2)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot"+testToken+"/setWebhook", r.URL.Path)
		urls <- r.URL.Query().Get("url")
		_, _ = io.WriteString(w, `{"ok":true,"result":true,"description":"Webhook was set"}`)
	})

	ctx := context.Background()
	require.NoError(t, client.SetWebhook(ctx, "https://bot.example.com/webhook"))
	require.NoError(t, client.SetWebhook(ctx, ""))
	assert.Equal(t, "https://bot.example.com/webhook", <-urls)
	assert.Equal(t, "", <-urls)
}

func TestGetMe(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot"+testToken+"/getMe", r.URL.Path)
		_, _ = io.WriteString(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"EhBot","username":"ehbot"}}`)
	})

	me, err := client.GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &User{ID: 1, IsBot: true, FirstName: "EhBot", Username: "ehbot"}, me)
}

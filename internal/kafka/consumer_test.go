package kafka

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentranbao-ct/ehbot/internal/config"
	"github.com/nguyentranbao-ct/ehbot/internal/models"
)

type fakeReader struct {
	msgs chan kafka.Message

	mu        sync.Mutex
	committed []int64
	closed    bool
}

func newFakeReader(values ...string) *fakeReader {
	r := &fakeReader{msgs: make(chan kafka.Message, len(values))}
	for i, v := range values {
		r.msgs <- kafka.Message{Topic: "telegram-updates", Offset: int64(i), Value: []byte(v), Time: time.Now()}
	}
	return r
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case msg := <-r.msgs:
		return msg, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

type fakeUpdates struct {
	mu  sync.Mutex
	ids []int64
}

func (f *fakeUpdates) ProcessUpdates(ctx context.Context, updates []models.Update) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range updates {
		f.ids = append(f.ids, u.UpdateID)
	}
	return updates[0].UpdateID, ctx.Err()
}

func (f *fakeUpdates) seen() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.ids...)
}

func TestConsumerStart(t *testing.T) {
	reader := newFakeReader(
		`{"update_id":10,"message":{"message_id":1,"from":{"id":7},"chat":{"id":-1},"date":1700000000,"text":"/help"}}`,
		`not json`,
		`{"update_id":11}`,
	)
	updates := &fakeUpdates{}
	c, err := newConsumer(reader, "telegram-updates", "ehbot", updates)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool {
		return len(reader.commits()) == 3
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []int64{0, 1, 2}, reader.commits())
	assert.Equal(t, []int64{10, 11}, updates.seen())

	require.NoError(t, c.Stop(context.Background()))
	require.NoError(t, c.Stop(context.Background()))
	assert.True(t, reader.closed)
}

func TestConsumerSkipsCommitOnShutdown(t *testing.T) {
	reader := newFakeReader(`{"update_id":10}`)
	c, err := newConsumer(reader, "telegram-updates", "ehbot", &fakeUpdates{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	msg := <-reader.msgs
	assert.False(t, c.processMessage(ctx, msg))
	assert.Empty(t, reader.commits())
}

func TestNewConsumerOutsideKafkaMode(t *testing.T) {
	conf := &config.Config{}
	conf.Bot.Mode = config.ModePolling
	c, err := NewConsumer(conf, &fakeUpdates{})
	require.NoError(t, err)
	assert.IsType(t, &noopConsumer{}, c)
	assert.NoError(t, c.Start(context.Background()))
}

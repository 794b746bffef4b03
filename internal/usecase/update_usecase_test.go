package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/nguyentranbao-ct/ehbot/internal/models"
	"github.com/nguyentranbao-ct/ehbot/pkg/logger"
)

type fakeMessageUsecase struct {
	mu       sync.Mutex
	handled  []string
	inFlight atomic.Int32
	overlaps atomic.Int32
	handle   func(msg *models.Message) error
}

func (f *fakeMessageUsecase) HandleMessage(ctx context.Context, msg *models.Message) error {
	if f.inFlight.Add(1) > 1 {
		f.overlaps.Add(1)
	}
	defer f.inFlight.Add(-1)

	f.mu.Lock()
	f.handled = append(f.handled, msg.Text)
	f.mu.Unlock()

	if f.handle != nil {
		return f.handle(msg)
	}
	return nil
}

func (f *fakeMessageUsecase) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.handled...)
}

func update(id int64, text string) models.Update {
	return models.Update{
		UpdateID: id,
		Message:  newMessage(ana, "-1001", text, baseTime),
	}
}

func TestProcessUpdates(t *testing.T) {
	t.Parallel()

	t.Run("empty batch", func(t *testing.T) {
		uc, err := NewUpdateUsecase(&fakeMessageUsecase{})
		require.NoError(t, err)

		maxID, err := uc.ProcessUpdates(context.Background(), nil)
		require.NoError(t, err)
		assert.Zero(t, maxID)
	})

	t.Run("returns highest id in order", func(t *testing.T) {
		fake := &fakeMessageUsecase{}
		uc, err := NewUpdateUsecase(fake)
		require.NoError(t, err)

		maxID, err := uc.ProcessUpdates(context.Background(), []models.Update{
			update(7, "a"),
			update(9, "b"),
			{UpdateID: 10},
			update(8, "c"),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(10), maxID)
		assert.Equal(t, []string{"a", "b", "c"}, fake.texts())
	})

	t.Run("failures do not stop the batch", func(t *testing.T) {
		fake := &fakeMessageUsecase{handle: func(msg *models.Message) error {
			switch msg.Text {
			case "boom":
				panic("boom")
			case "fail":
				return status.Error(codes.Internal, "store down")
			}
			return nil
		}}
		uc, err := NewUpdateUsecase(fake)
		require.NoError(t, err)

		maxID, err := uc.ProcessUpdates(context.Background(), []models.Update{
			update(1, "boom"),
			update(2, "fail"),
			update(3, "ok"),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3), maxID)
		assert.Equal(t, []string{"boom", "fail", "ok"}, fake.texts())
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		fake := &fakeMessageUsecase{handle: func(msg *models.Message) error {
			cancel()
			return nil
		}}
		uc, err := NewUpdateUsecase(fake)
		require.NoError(t, err)

		_, err = uc.ProcessUpdates(ctx, []models.Update{update(1, "a"), update(2, "b")})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, []string{"a"}, fake.texts())
	})

	t.Run("concurrent batches are serialized", func(t *testing.T) {
		fake := &fakeMessageUsecase{handle: func(msg *models.Message) error {
			time.Sleep(time.Millisecond)
			return nil
		}}
		uc, err := NewUpdateUsecase(fake)
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := uc.ProcessUpdates(context.Background(), []models.Update{
					update(int64(i*2+1), "x"),
					update(int64(i*2+2), "y"),
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Len(t, fake.texts(), 8)
		assert.Zero(t, fake.overlaps.Load())
	})
}

func TestGetCode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		want codes.Code
	}{
		{nil, codes.OK},
		{context.Canceled, codes.Canceled},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{models.ErrRateLimited, codes.ResourceExhausted},
		{models.ErrTransport, codes.Unavailable},
		{errors.New("plain"), codes.Unknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, getCode(tt.err), "%v", tt.err)
	}
	assert.Equal(t, logger.InfoLevel, getLogLevel(codes.OK))
	assert.Equal(t, logger.WarnLevel, getLogLevel(codes.NotFound))
	assert.Equal(t, logger.ErrorLevel, getLogLevel(codes.Unavailable))
}

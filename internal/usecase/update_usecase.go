package usecase

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/nguyentranbao-ct/ehbot/internal/models"
	"github.com/nguyentranbao-ct/ehbot/pkg/logger"
	"github.com/nguyentranbao-ct/ehbot/pkg/logger/log"
	"github.com/nguyentranbao-ct/ehbot/pkg/util"
)

type UpdateUsecase interface {
	// ProcessUpdates handles a batch in order and returns the highest update
	// id seen, or 0 for an empty batch. A failing update is logged and does
	// not stop the batch. The error is non-nil only when ctx ends mid-batch.
	ProcessUpdates(ctx context.Context, updates []models.Update) (int64, error)
}

type updateUsecase struct {
	// one writer at a time across pollers and webhook deliveries
	mu       sync.Mutex
	messages MessageUsecase
	metrics  *prometheus.HistogramVec
}

func NewUpdateUsecase(messages MessageUsecase) (UpdateUsecase, error) {
	metrics, err := util.GetHistogramVec("ehbot_updates_processed", "code", "command")
	if err != nil {
		return nil, fmt.Errorf("get histogram vec: %w", err)
	}
	return &updateUsecase{
		messages: messages,
		metrics:  metrics,
	}, nil
}

func (uc *updateUsecase) ProcessUpdates(ctx context.Context, updates []models.Update) (int64, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	var maxID int64
	for _, upd := range updates {
		if err := ctx.Err(); err != nil {
			return maxID, err
		}
		uc.process(ctx, upd)
		if upd.UpdateID > maxID {
			maxID = upd.UpdateID
		}
	}
	return maxID, nil
}

func (uc *updateUsecase) process(ctx context.Context, upd models.Update) {
	if upd.Message == nil {
		log.Debugw(ctx, "skipping update without message", "update_id", upd.UpdateID)
		return
	}
	msg := upd.Message
	ctx = log.With(ctx,
		"update_id", upd.UpdateID,
		"chat_id", msg.ChatID,
		"user_id", msg.Author.ID,
	)

	duration, err := uc.handle(ctx, msg)

	code := getCode(err)
	content := "success"
	if err != nil {
		content = err.Error()
	}
	command := "noop"
	if v, ok := log.Value(ctx, "command"); ok {
		command = fmt.Sprint(v)
	}

	log.Logw(ctx, getLogLevel(code), content,
		"code", code.String(),
		"duration_ms", duration.Milliseconds(),
	)
	uc.metrics.
		WithLabelValues(code.String(), command).
		Observe(duration.Seconds())
}

func (uc *updateUsecase) handle(ctx context.Context, msg *models.Message) (duration time.Duration, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, 4096)
			length := runtime.Stack(stack, false)
			err = fmt.Errorf("PANIC RECOVER: %+v / %s", r, string(stack[:length]))
		}
		duration = time.Since(start)
	}()

	return 0, uc.messages.HandleMessage(ctx, msg)
}

func getCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return codes.DeadlineExceeded
	}
	if errors.Is(err, context.Canceled) {
		return codes.Canceled
	}
	return status.Code(err)
}

func getLogLevel(code codes.Code) logger.Level {
	switch code {
	case codes.OK:
		return logger.InfoLevel
	case codes.Canceled,
		codes.InvalidArgument,
		codes.NotFound,
		codes.AlreadyExists,
		codes.PermissionDenied,
		codes.Unauthenticated,
		codes.ResourceExhausted,
		codes.FailedPrecondition,
		codes.Aborted,
		codes.Unimplemented,
		codes.OutOfRange:
		return logger.WarnLevel
	default:
		return logger.ErrorLevel
	}
}

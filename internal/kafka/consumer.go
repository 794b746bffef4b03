// Package kafka feeds updates published by an external relay into the bot.
// Each message carries one update in the platform's JSON form.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"go.uber.org/fx"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/nguyentranbao-ct/ehbot/internal/config"
	"github.com/nguyentranbao-ct/ehbot/internal/models"
	"github.com/nguyentranbao-ct/ehbot/internal/repo/telegram"
	"github.com/nguyentranbao-ct/ehbot/internal/usecase"
	"github.com/nguyentranbao-ct/ehbot/pkg/logger"
	"github.com/nguyentranbao-ct/ehbot/pkg/logger/log"
	"github.com/nguyentranbao-ct/ehbot/pkg/util"
)

const defaultConsumeTimeout = 30 * time.Second

type kafkaConsumer struct {
	reader         Reader
	updates        usecase.UpdateUsecase
	metrics        *prometheus.HistogramVec
	topic          string
	group          string
	consumeTimeout time.Duration
	done           chan struct{}
	stopOnce       sync.Once
}

func NewConsumer(conf *config.Config, updates usecase.UpdateUsecase) (Consumer, error) {
	if conf.Bot.Mode != config.ModeKafka {
		return &noopConsumer{}, nil
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     conf.Kafka.Brokers,
		Topic:       conf.Kafka.Topic,
		GroupID:     conf.Kafka.GroupID,
		StartOffset: kafka.FirstOffset,
	})
	return newConsumer(reader, conf.Kafka.Topic, conf.Kafka.GroupID, updates)
}

func newConsumer(reader Reader, topic, group string, updates usecase.UpdateUsecase) (*kafkaConsumer, error) {
	metrics, err := util.GetHistogramVec("kafka_messages_consumed", "status", "topic", "group")
	if err != nil {
		return nil, fmt.Errorf("get histogram vec: %w", err)
	}
	return &kafkaConsumer{
		reader:         reader,
		updates:        updates,
		metrics:        metrics,
		topic:          topic,
		group:          group,
		consumeTimeout: defaultConsumeTimeout,
		done:           make(chan struct{}),
	}, nil
}

// Start consumes one message at a time and commits it once handled, so a
// crash replays at most the message in flight.
func (c *kafkaConsumer) Start(ctx context.Context) error {
	log.Infof(ctx, "Starting Kafka consumer for topic: %s", c.topic)
	for ctx.Err() == nil {
		select {
		case <-c.done:
			return nil
		default:
		}

		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			log.Errorw(ctx, "Error fetching message", "error", err)
			select {
			case <-ctx.Done():
			case <-c.done:
			case <-time.After(time.Second):
			}
			continue
		}

		if !c.processMessage(ctx, msg) {
			return nil
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			log.Errorw(ctx, "Failed to commit message", "error", err, "offset", msg.Offset)
		}
	}
	return nil
}

func (c *kafkaConsumer) Stop(ctx context.Context) error {
	log.Infof(ctx, "Stopping Kafka consumer")
	var err error
	c.stopOnce.Do(func() {
		close(c.done)
		err = c.reader.Close()
	})
	return err
}

// processMessage reports false when the message was interrupted and must
// not be committed.
func (c *kafkaConsumer) processMessage(ctx context.Context, msg kafka.Message) bool {
	start := time.Now()
	lagMs := start.Sub(msg.Time).Milliseconds()

	duration, err := c.handle(ctx, msg)
	if ctx.Err() != nil {
		log.Warnw(ctx, "message interrupted by shutdown", "offset", msg.Offset)
		return false
	}

	code := getCode(err)
	content := "success"
	if err != nil {
		content = err.Error()
	}

	log.Logw(ctx, getLogLevel(code), content,
		"code", code.String(),
		"duration_ms", duration.Milliseconds(),
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
		"lag_ms", lagMs,
		"key", string(msg.Key),
	)
	c.metrics.
		WithLabelValues(code.String(), c.topic, c.group).
		Observe(duration.Seconds())
	return true
}

func (c *kafkaConsumer) handle(msgCtx context.Context, msg kafka.Message) (duration time.Duration, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, 4096)
			length := runtime.Stack(stack, false)
			err = fmt.Errorf("PANIC RECOVER: %+v / %s", r, string(stack[:length]))
		}
		duration = time.Since(start)
	}()

	var upd telegram.Update
	if err := json.Unmarshal(msg.Value, &upd); err != nil {
		return 0, status.Errorf(codes.InvalidArgument, "failed to unmarshal update: %v", err)
	}

	ctx, cancel := context.WithTimeout(msgCtx, c.consumeTimeout)
	defer cancel()

	_, err = c.updates.ProcessUpdates(ctx, []models.Update{upd.ToModel()})
	return 0, err
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
	case codes.Canceled, codes.InvalidArgument:
		return logger.WarnLevel
	default:
		return logger.ErrorLevel
	}
}

type noopConsumer struct{}

func (n *noopConsumer) Start(ctx context.Context) error {
	return nil
}

func (n *noopConsumer) Stop(ctx context.Context) error {
	return nil
}

// StartConsumeUpdates runs the consumer for the lifetime of the app in
// kafka mode.
func StartConsumeUpdates(
	lc fx.Lifecycle,
	sd fx.Shutdowner,
	conf *config.Config,
	consumer Consumer,
) {
	if conf.Bot.Mode != config.ModeKafka {
		return
	}

	ctx, cancel := context.WithCancel(log.With(context.Background(), "component", "kafka"))
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				if err := consumer.Start(ctx); err != nil {
					log.Errorw(ctx, "kafka consumer failed", "error", err)
					_ = sd.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return consumer.Stop(stopCtx)
		},
	})
}

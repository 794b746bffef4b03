// Package poller drives the bot with long polling and keeps the update
// cursor in step with what has been processed.
package poller

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"

	"github.com/nguyentranbao-ct/ehbot/internal/config"
	"github.com/nguyentranbao-ct/ehbot/internal/models"
	"github.com/nguyentranbao-ct/ehbot/internal/repo/cursor"
	"github.com/nguyentranbao-ct/ehbot/internal/usecase"
	"github.com/nguyentranbao-ct/ehbot/pkg/logger/log"
)

// UpdateSource is the part of the telegram client the poller needs.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64) ([]models.Update, error)
	SetWebhook(ctx context.Context, url string) error
}

type Poller interface {
	// Poll runs one fetch-process-persist iteration.
	Poll(ctx context.Context) error
	// Run polls until ctx is done.
	Run(ctx context.Context) error
}

type poller struct {
	source  UpdateSource
	cursor  cursor.Store
	updates usecase.UpdateUsecase
	period  time.Duration

	offset int64
	loaded bool
}

func NewPoller(
	conf *config.Config,
	source UpdateSource,
	cur cursor.Store,
	updates usecase.UpdateUsecase,
) Poller {
	return &poller{
		source:  source,
		cursor:  cur,
		updates: updates,
		period:  conf.Bot.PollPeriod,
	}
}

func (p *poller) Poll(ctx context.Context) error {
	if !p.loaded {
		offset, err := p.cursor.Load(ctx)
		if err != nil {
			return fmt.Errorf("load cursor: %w", err)
		}
		p.offset = offset
		p.loaded = true
	}

	updates, err := p.source.GetUpdates(ctx, p.offset)
	if err != nil {
		return fmt.Errorf("get updates from %d: %w", p.offset, err)
	}
	if len(updates) == 0 {
		return nil
	}

	maxID, err := p.updates.ProcessUpdates(ctx, updates)
	if err != nil {
		return fmt.Errorf("process updates: %w", err)
	}

	next := maxID + 1
	if next <= p.offset {
		return nil
	}
	// the in-memory offset moves even if saving fails so the batch is not
	// replayed within this process
	p.offset = next
	if err := p.cursor.Save(ctx, next); err != nil {
		return fmt.Errorf("save cursor %d: %w", next, err)
	}
	log.Debugw(ctx, "cursor advanced", "offset", next, "count", len(updates))
	return nil
}

func (p *poller) Run(ctx context.Context) error {
	if err := p.source.SetWebhook(ctx, ""); err != nil {
		log.Warnw(ctx, "failed to clear webhook", "error", err)
	}

	log.Infow(ctx, "polling started", "period", p.period.String())
	for ctx.Err() == nil {
		if err := p.Poll(ctx); err != nil && ctx.Err() == nil {
			log.Errorw(ctx, "poll failed", "error", err)
		}

		select {
		case <-ctx.Done():
		case <-time.After(p.period):
		}
	}
	log.Infow(ctx, "polling stopped")
	return nil
}

// StartPolling runs the poller for the lifetime of the app in polling mode.
func StartPolling(
	lc fx.Lifecycle,
	conf *config.Config,
	p Poller,
) {
	if conf.Bot.Mode != config.ModePolling {
		return
	}

	ctx, cancel := context.WithCancel(log.With(context.Background(), "component", "poller"))
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				_ = p.Run(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

// Package app wires the bot together with fx.
package app

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"

	"github.com/nguyentranbao-ct/ehbot/internal/config"
	"github.com/nguyentranbao-ct/ehbot/internal/kafka"
	"github.com/nguyentranbao-ct/ehbot/internal/migration"
	"github.com/nguyentranbao-ct/ehbot/internal/poller"
	"github.com/nguyentranbao-ct/ehbot/internal/repo/telegram"
	"github.com/nguyentranbao-ct/ehbot/internal/server"
	"github.com/nguyentranbao-ct/ehbot/internal/usecase"
	"github.com/nguyentranbao-ct/ehbot/pkg/logger"
)

// New builds the application graph. opts usually carry fx.Invoke or
// fx.Populate calls.
func New(conf *config.Config, opts ...fx.Option) *fx.App {
	log := logger.MustNamed("app")
	log.Debugw("config loaded", log.Reflect("config", redacted(conf)))

	return fx.New(
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.ZapLogger{
				Logger: log.Unwrap().Desugar(),
			}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		Options(conf),
		fx.Options(opts...),
	)
}

// Options provides every component of the bot.
func Options(conf *config.Config) fx.Option {
	return fx.Options(
		fx.Supply(conf),
		fx.Provide(
			newStore,
			newCursor,
			chatRepository,
			userRepository,

			telegram.NewClient,
			messenger,
			updateSource,
			webhookRegistrar,

			usecase.NewTagUsecase,
			usecase.NewUserUsecase,
			usecase.NewMessageUsecase,
			usecase.NewUpdateUsecase,

			poller.NewPoller,
			server.NewController,
			server.NewEcho,
			kafka.NewConsumer,
			migration.NewMigrator,
		),
	)
}

// Invoke builds the app with funcs run at startup.
func Invoke(conf *config.Config, funcs ...any) *fx.App {
	return New(conf, fx.Invoke(funcs...))
}

func redacted(conf *config.Config) config.Config {
	c := *conf
	if c.Bot.Token != "" {
		c.Bot.Token = "***"
	}
	if c.Store.DSN != "" {
		c.Store.DSN = "***"
	}
	return c
}

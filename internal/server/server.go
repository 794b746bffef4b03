package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"

	"github.com/nguyentranbao-ct/ehbot/internal/config"
	"github.com/nguyentranbao-ct/ehbot/internal/models"
	pkgmdw "github.com/nguyentranbao-ct/ehbot/internal/server/middleware"
	"github.com/nguyentranbao-ct/ehbot/pkg/logger"
	"github.com/nguyentranbao-ct/ehbot/pkg/logger/log"
)

const (
	HealthPath  = "/health"
	MetricsPath = "/metrics"
)

// WebhookRegistrar is the part of the telegram client webhook mode needs.
type WebhookRegistrar interface {
	SetWebhook(ctx context.Context, url string) error
}

// NewEcho builds the HTTP surface. The webhook route exists only in
// webhook mode.
func NewEcho(conf *config.Config, handler Controller) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = pkgmdw.NewValidator()
	e.HTTPErrorHandler = pkgmdw.ErrorHandler(logger.MustNamed("http"))

	logConfig := pkgmdw.LogRequestConfig{
		Logger: logger.MustNamed("http"),
		Enabled: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path != HealthPath && path != MetricsPath
		},
		KeyAndValues: func(c echo.Context) []any {
			return []any{"mode", conf.Bot.Mode}
		},
	}

	e.Use(pkgmdw.Metrics())
	e.Use(pkgmdw.RequestID())
	e.Use(pkgmdw.LogRequest(logConfig))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Errorw(c.Request().Context(), "PANIC RECOVER", "error", err, "stack", string(stack))
			return err
		},
	}))

	e.GET(HealthPath, handler.Health)
	if conf.Server.Pprof {
		pkgmdw.PprofWrap(e, "")
	}

	if conf.Bot.Mode == config.ModeWebhook {
		path, err := webhookPath(conf.Webhook.URL)
		if err != nil {
			return nil, err
		}
		e.POST(path, handler.ReceiveUpdate)
	}
	return e, nil
}

// webhookPath is the route the platform will post to, taken from the
// registered URL.
func webhookPath(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: WEBHOOK_URL is empty", models.ErrConfig)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: WEBHOOK_URL: %w", models.ErrConfig, err)
	}
	if u.Path == "" || u.Path == "/" {
		return "/webhook", nil
	}
	return u.Path, nil
}

// webhookHost is the part of the webhook URL safe to log. The path may
// carry a secret.
func webhookHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

func StartServer(
	lc fx.Lifecycle,
	sd fx.Shutdowner,
	conf *config.Config,
	e *echo.Echo,
	registrar WebhookRegistrar,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if conf.Bot.Mode == config.ModeWebhook {
				if conf.Server.Port == "" {
					return fmt.Errorf("%w: SERVER_PORT is empty", models.ErrConfig)
				}
				if err := registrar.SetWebhook(ctx, conf.Webhook.URL); err != nil {
					return fmt.Errorf("register webhook: %w", err)
				}
				log.Infow(ctx, "webhook registered", "host", webhookHost(conf.Webhook.URL))
			}

			go func() {
				log.Infow(context.Background(), "starting HTTP server", "addr", conf.Server.Addr())
				if err := e.Start(conf.Server.Addr()); !errors.Is(err, http.ErrServerClosed) {
					log.Errorw(context.Background(), "HTTP server stopped", "error", err)
					_ = sd.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}

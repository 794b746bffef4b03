package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/nguyentranbao-ct/ehbot/internal/config"
	"github.com/nguyentranbao-ct/ehbot/internal/models"
	"github.com/nguyentranbao-ct/ehbot/pkg/logger"
	"github.com/nguyentranbao-ct/ehbot/pkg/util"
)

const (
	getUpdatesLimit = 100
	readRetries     = 2
	redacted        = "<token>"
)

type Client interface {
	GetUpdates(ctx context.Context, offset int64) ([]models.Update, error)
	SendMessage(ctx context.Context, chatID, text string) error
	// SetWebhook registers url. An empty url removes the webhook.
	SetWebhook(ctx context.Context, url string) error
	GetMe(ctx context.Context) (*User, error)
}

type client struct {
	log     *logger.Logger
	baseURL string
	token   string
	// reads are idempotent and retried; sends are not
	reads   *resty.Client
	writes  *resty.Client
	limiter *rate.Limiter
}

func NewClient(conf *config.Config) Client {
	log := logger.MustNamed("telegram")
	timeout := conf.Telegram.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	restyLog := redactLogger{log: log.Unwrap(), token: conf.Bot.Token}
	reads := util.NewRestyClient(restyLog, timeout, readRetries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)
	writes := util.NewRestyClient(restyLog, timeout, 0)

	limit := rate.Inf
	if conf.Telegram.SendRPS > 0 {
		limit = rate.Limit(conf.Telegram.SendRPS)
	}

	return &client{
		log:     log,
		baseURL: strings.TrimRight(conf.Telegram.BaseURL, "/"),
		token:   conf.Bot.Token,
		reads:   reads,
		writes:  writes,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (c *client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

// redactErr strips the request URL, which embeds the bot token, from
// transport errors.
func (c *client) redactErr(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		err = ue.Err
	}
	if c.token != "" && strings.Contains(err.Error(), c.token) {
		return errors.New(strings.ReplaceAll(err.Error(), c.token, redacted))
	}
	return err
}

// redactLogger masks the bot token in resty's own log lines.
type redactLogger struct {
	log   resty.Logger
	token string
}

func (l redactLogger) redact(format string, v ...any) string {
	msg := fmt.Sprintf(format, v...)
	if l.token == "" {
		return msg
	}
	return strings.ReplaceAll(msg, l.token, redacted)
}

func (l redactLogger) Errorf(format string, v ...any) { l.log.Errorf("%s", l.redact(format, v...)) }
func (l redactLogger) Warnf(format string, v ...any)  { l.log.Warnf("%s", l.redact(format, v...)) }
func (l redactLogger) Debugf(format string, v ...any) { l.log.Debugf("%s", l.redact(format, v...)) }

func call[T any](ctx context.Context, c *client, rc *resty.Client, httpMethod, apiMethod string, query map[string]string, body any) (T, error) {
	var zero T
	req := rc.R().SetContext(ctx).SetQueryParams(query)
	if body != nil {
		req.SetBody(body)
	}

	start := time.Now()
	resp, err := req.Execute(httpMethod, c.methodURL(apiMethod))
	if err != nil {
		return zero, fmt.Errorf("%w: %s: %w", models.ErrTransport, apiMethod, c.redactErr(err))
	}
	c.log.Debugw("telegram call",
		"method", apiMethod,
		"status", resp.StatusCode(),
		"latency", time.Since(start).String(),
		"response_size", len(resp.Body()),
	)

	if resp.IsError() {
		desc := gjson.GetBytes(resp.Body(), "description").String()
		return zero, fmt.Errorf("%w: %s: http %d: %s", models.ErrTransport, apiMethod, resp.StatusCode(), desc)
	}

	var out apiResponse[T]
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return zero, fmt.Errorf("%w: %s: decode response: %w", models.ErrTransport, apiMethod, err)
	}
	if !out.OK {
		return zero, fmt.Errorf("%w: %s: not ok: %s", models.ErrTransport, apiMethod, out.Description)
	}
	return out.Result, nil
}

func (c *client) GetUpdates(ctx context.Context, offset int64) ([]models.Update, error) {
	query := map[string]string{
		"offset":  strconv.FormatInt(offset, 10),
		"limit":   strconv.Itoa(getUpdatesLimit),
		"timeout": "0",
	}
	updates, err := call[[]Update](ctx, c, c.reads, http.MethodGet, "getUpdates", query, nil)
	if err != nil {
		return nil, err
	}
	return util.ConvertList(updates, Update.ToModel), nil
}

func (c *client) SendMessage(ctx context.Context, chatID, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: sendMessage: %w", models.ErrTransport, err)
	}
	body := sendMessageRequest{ChatID: chatID, Text: text}
	_, err := call[json.RawMessage](ctx, c, c.writes, http.MethodPost, "sendMessage", nil, body)
	return err
}

func (c *client) SetWebhook(ctx context.Context, url string) error {
	query := map[string]string{"url": url}
	_, err := call[bool](ctx, c, c.writes, http.MethodPost, "setWebhook", query, nil)
	return err
}

func (c *client) GetMe(ctx context.Context) (*User, error) {
	me, err := call[User](ctx, c, c.reads, http.MethodGet, "getMe", nil, nil)
	if err != nil {
		return nil, err
	}
	return &me, nil
}

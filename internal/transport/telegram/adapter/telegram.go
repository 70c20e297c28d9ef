package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	kit "homeworkbot/internal/transport"
	logx "homeworkbot/pkg/logx"
)

type Config struct {
	Token string
	// RatePerSec bounds outgoing messages; telegram allows ~1 msg/s per chat.
	RatePerSec int
	// Offline skips the getMe call on construction (tests, dry runs).
	Offline bool
}

// Adapter is a send-only Telegram client. The bot never polls for updates.
type Adapter struct {
	cfg     Config
	log     logx.Logger
	bot     *tele.Bot
	limiter *rate.Limiter
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	b, err := tele.NewBot(tele.Settings{
		Token:   cfg.Token,
		Offline: cfg.Offline,
		Client:  &http.Client{Timeout: 15 * time.Second},
	})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	return &Adapter{
		cfg:     cfg,
		log:     log,
		bot:     b,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

const telegramTextLimit = 4000

// splitTelegramText splits long messages into chunks that are safe to send to Telegram.
// It prefers newline boundaries.
func splitTelegramText(s string, limit int) []string {
	if limit <= 0 {
		limit = telegramTextLimit
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return []string{s}
	}

	out := make([]string, 0, (len(rs)+limit-1)/limit)
	start := 0
	for start < len(rs) {
		end := start + limit
		if end > len(rs) {
			end = len(rs)
		}

		if end < len(rs) {
			for i := end - 1; i > start; i-- {
				// Avoid extremely small chunks.
				if rs[i] == '\n' && i-start >= limit/3 {
					end = i + 1
					break
				}
			}
		}

		out = append(out, strings.TrimRight(string(rs[start:end]), "\n"))

		start = end
		for start < len(rs) && rs[start] == '\n' {
			start++
		}
	}
	return out
}

func (a *Adapter) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	if opt == nil {
		opt = &kit.SendOptions{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	chat := &tele.Chat{ID: to.ChatID}

	var first kit.MessageRef
	for i, chunk := range splitTelegramText(text, telegramTextLimit) {
		if err := a.limiter.Wait(ctx); err != nil {
			return first, err
		}

		msg, err := a.bot.Send(chat, chunk, &tele.SendOptions{
			ParseMode:             opt.ParseMode,
			DisableWebPagePreview: opt.DisablePreview,
			ThreadID:              to.ThreadID,
		})
		if err != nil {
			return first, classifySendError(err)
		}
		if i == 0 {
			first = kit.MessageRef{ChatID: to.ChatID, ThreadID: to.ThreadID, MessageID: msg.ID}
		}
	}

	a.log.Debug("message sent", logx.Int64("chat_id", to.ChatID), logx.Int("message_id", first.MessageID))
	return first, nil
}

// trailingCode matches the "(429)" suffix of API errors telebot does not map.
var trailingCode = regexp.MustCompile(`\((\d{3})\)$`)

// classifySendError tags telebot failures with a stable reason. Flood waits
// differ only in their retry delay, so they share one reason. Transport
// errors are stripped of the request URL, which embeds the bot token.
func classifySendError(err error) error {
	var (
		flood  tele.FloodError
		group  tele.GroupError
		apiErr *tele.Error
		urlErr *url.Error
	)
	switch {
	case errors.As(err, &flood):
		return &kit.SendError{Reason: "telegram 429", Err: err}
	case errors.As(err, &group):
		return &kit.SendError{Reason: "telegram group migrated", Err: err}
	case errors.As(err, &apiErr):
		return &kit.SendError{Reason: fmt.Sprintf("telegram %d %s", apiErr.Code, apiErr.Description), Err: err}
	case errors.As(err, &urlErr):
		return &kit.SendError{Reason: "telegram unreachable", Err: fmt.Errorf("telegram request failed: %w", urlErr.Err)}
	}
	if m := trailingCode.FindStringSubmatch(err.Error()); m != nil {
		return &kit.SendError{Reason: "telegram " + m[1], Err: err}
	}
	return err
}

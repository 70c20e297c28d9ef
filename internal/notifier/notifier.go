// Package notifier delivers bot messages to the configured Telegram chat.
package notifier

import (
	"context"
	"errors"
	"strings"

	"homeworkbot/internal/homework"
	kit "homeworkbot/internal/transport"
	logx "homeworkbot/pkg/logx"
)

var ErrNoTarget = errors.New("notifier: chat id is not set")

// Service sends plain text to a single chat. Failures are reported as
// homework.DeliveryFailedError.
type Service struct {
	sender kit.Sender
	target kit.ChatTarget
	log    logx.Logger
}

func New(sender kit.Sender, target kit.ChatTarget, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{sender: sender, target: target, log: log}
}

// Notify delivers text to the configured chat.
func (s *Service) Notify(ctx context.Context, text string) error {
	if s.target.ChatID == 0 {
		return homework.DeliveryFailed(ErrNoTarget)
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	ref, err := s.sender.SendText(ctx, s.target, text, &kit.SendOptions{DisablePreview: true})
	if err != nil {
		return homework.DeliveryFailed(err)
	}
	s.log.Debug("notification delivered", logx.Int("message_id", ref.MessageID))
	return nil
}

package notifier

import (
	"context"
	"errors"
	"testing"

	"homeworkbot/internal/homework"
	kit "homeworkbot/internal/transport"
	logx "homeworkbot/pkg/logx"
)

type fakeSender struct {
	err  error
	sent []string
	to   []kit.ChatTarget
}

func (f *fakeSender) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	if f.err != nil {
		return kit.MessageRef{}, f.err
	}
	f.sent = append(f.sent, text)
	f.to = append(f.to, to)
	return kit.MessageRef{ChatID: to.ChatID, MessageID: len(f.sent)}, nil
}

func TestNotifySendsToTarget(t *testing.T) {
	fs := &fakeSender{}
	s := New(fs, kit.ChatTarget{ChatID: 42}, logx.Nop())

	if err := s.Notify(context.Background(), "hello"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(fs.sent) != 1 || fs.sent[0] != "hello" {
		t.Fatalf("sent = %v, want [hello]", fs.sent)
	}
	if fs.to[0].ChatID != 42 {
		t.Fatalf("chat id = %d, want 42", fs.to[0].ChatID)
	}
}

func TestNotifyWrapsSendError(t *testing.T) {
	cause := errors.New("telegram: bot was blocked by the user (403)")
	s := New(&fakeSender{err: cause}, kit.ChatTarget{ChatID: 42}, logx.Nop())

	err := s.Notify(context.Background(), "hello")
	if !errors.Is(err, cause) {
		t.Fatalf("err = %v, want wrapping %v", err, cause)
	}
	if got := homework.RecordOf(err).Kind; got != homework.KindDeliveryFailed {
		t.Fatalf("kind = %v, want %v", got, homework.KindDeliveryFailed)
	}
}

func TestNotifyWithoutTarget(t *testing.T) {
	s := New(&fakeSender{}, kit.ChatTarget{}, logx.Nop())
	if err := s.Notify(context.Background(), "hello"); !errors.Is(err, ErrNoTarget) {
		t.Fatalf("err = %v, want %v", err, ErrNoTarget)
	}
}

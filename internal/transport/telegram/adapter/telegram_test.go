package adapter

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"unicode/utf8"

	tele "gopkg.in/telebot.v4"

	kit "homeworkbot/internal/transport"
	logx "homeworkbot/pkg/logx"
)

func TestSplitTelegramTextShort(t *testing.T) {
	t.Parallel()
	got := splitTelegramText("Работа взята на проверку ревьюером.", 0)
	if len(got) != 1 {
		t.Fatalf("got %d chunks, want 1", len(got))
	}
}

func TestSplitTelegramTextPrefersNewlines(t *testing.T) {
	t.Parallel()
	line := strings.Repeat("ж", 30)
	text := strings.Join([]string{line, line, line, line}, "\n")

	chunks := splitTelegramText(text, 70)
	if len(chunks) < 2 {
		t.Fatalf("expected text to be split, got %d chunk(s)", len(chunks))
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 70 {
			t.Fatalf("chunk %d has %d runes, limit 70", i, n)
		}
		if strings.HasPrefix(c, "\n") || strings.HasSuffix(c, "\n") {
			t.Fatalf("chunk %d has dangling newline: %q", i, c)
		}
	}
	if strings.Join(chunks, "\n") != text {
		t.Fatal("joined chunks do not restore the text")
	}
}

func TestNewRejectsEmptyToken(t *testing.T) {
	t.Parallel()
	if _, err := New(Config{Token: "  "}, logx.Nop()); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestNewOfflineDefaultsRate(t *testing.T) {
	t.Parallel()
	a, err := New(Config{Token: "123:abc", Offline: true}, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := a.limiter.Burst(); got != 1 {
		t.Fatalf("limiter burst = %d, want 1", got)
	}
}

func sendReason(t *testing.T, err error) string {
	t.Helper()
	var se *kit.SendError
	if !errors.As(classifySendError(err), &se) {
		t.Fatalf("classifySendError(%T) is not a SendError", err)
	}
	return se.Reason
}

func TestClassifySendErrorStableReasons(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		a, b error
		want string
	}{
		{
			name: "flood wait",
			a:    tele.FloodError{RetryAfter: 5},
			b:    tele.FloodError{RetryAfter: 31},
			want: "telegram 429",
		},
		{
			name: "unmapped api error",
			a:    errors.New("telegram: Too Many Requests: retry after 5 (429)"),
			b:    errors.New("telegram: Too Many Requests: retry after 12 (429)"),
			want: "telegram 429",
		},
		{
			name: "known api error",
			a:    tele.ErrBlockedByUser,
			b:    fmt.Errorf("telebot: %w", tele.ErrBlockedByUser),
			want: "telegram 403 Forbidden: bot was blocked by the user",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := sendReason(t, tt.a); got != tt.want {
				t.Fatalf("reason = %q, want %q", got, tt.want)
			}
			if got := sendReason(t, tt.b); got != tt.want {
				t.Fatalf("reason = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifySendErrorHidesToken(t *testing.T) {
	t.Parallel()
	cause := errors.New("dial tcp: i/o timeout")
	err := fmt.Errorf("telebot: %w", &url.Error{
		Op:  "Post",
		URL: "https://api.telegram.org/bot123:secret/sendMessage",
		Err: cause,
	})

	got := classifySendError(err)
	if strings.Contains(got.Error(), "secret") {
		t.Fatalf("error text leaks the token: %q", got.Error())
	}
	if !errors.Is(got, cause) {
		t.Fatalf("err = %v, want wrapping %v", got, cause)
	}
	if r := sendReason(t, err); r != "telegram unreachable" {
		t.Fatalf("reason = %q, want telegram unreachable", r)
	}
}

func TestClassifySendErrorPassesUnknown(t *testing.T) {
	t.Parallel()
	err := errors.New("rate: Wait(n=1) would exceed context deadline")
	if got := classifySendError(err); got != err {
		t.Fatalf("got %v, want the error unchanged", got)
	}
}

package transport

import "context"

type ChatTarget struct {
	ChatID   int64
	ThreadID int // telegram forum topic thread id (0 if none)
}

type MessageRef struct {
	ChatID    int64
	ThreadID  int
	MessageID int
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
}

// Sender delivers text messages to a chat.
type Sender interface {
	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
}

// SendError is a delivery failure tagged with a reason that stays the same
// when the same failure repeats (e.g. "telegram 429" for every flood wait).
type SendError struct {
	Reason string
	Err    error
}

func (e *SendError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return e.Err.Error()
}

func (e *SendError) Unwrap() error { return e.Err }

// DedupKey identifies the failure independently of variable message parts.
func (e *SendError) DedupKey() string { return e.Reason }

package homework

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for deduplication.
type Kind string

const (
	KindTypeMismatch        Kind = "type_mismatch"
	KindMissingKey          Kind = "missing_key"
	KindResponseUnavailable Kind = "response_unavailable"
	KindDeliveryFailed      Kind = "delivery_failed"
	KindUnexpected          Kind = "unexpected"
)

// TypeMismatchError reports that Subject is not of the Expected type.
type TypeMismatchError struct {
	Subject  string
	Expected string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("тип данных %s не '%s'!", e.Subject, e.Expected)
}

// MissingKeyError reports that Container has no Key.
type MissingKeyError struct {
	Container string
	Key       string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("в словаре %s нет ключа \"%s\"!", e.Container, e.Key)
}

// ResponseUnavailableError reports a non-OK answer (or no answer) from the status API.
type ResponseUnavailableError struct {
	Detail string
	Err    error
}

func (e *ResponseUnavailableError) Error() string {
	msg := "эндпойнт API \"Практикум.Домашка\" не доступен!"
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *ResponseUnavailableError) Unwrap() error { return e.Err }

// DeliveryFailedError reports that a message could not be delivered.
type DeliveryFailedError struct {
	Detail string
	// Key is the dedup detail. It drops variable parts such as retry delays.
	Key string
	Err error
}

func (e *DeliveryFailedError) Error() string {
	if e.Detail == "" {
		return "сообщение не доставлено"
	}
	return "сообщение не доставлено: " + e.Detail
}

func (e *DeliveryFailedError) Unwrap() error { return e.Err }

func TypeMismatch(subject, expected string) error {
	return &TypeMismatchError{Subject: subject, Expected: expected}
}

func MissingKey(container, key string) error {
	return &MissingKeyError{Container: container, Key: key}
}

func ResponseUnavailable(detail string, err error) error {
	return &ResponseUnavailableError{Detail: detail, Err: err}
}

// dedupKeyer is implemented by transport errors that carry a stable reason.
type dedupKeyer interface {
	DedupKey() string
}

func DeliveryFailed(err error) error {
	if err == nil {
		return nil
	}
	key := err.Error()
	var k dedupKeyer
	if errors.As(err, &k) && k.DedupKey() != "" {
		key = k.DedupKey()
	}
	return &DeliveryFailedError{Detail: err.Error(), Key: key, Err: err}
}

// ErrorRecord is the dedup key of a failure. Two records are the same
// failure iff they compare equal with ==.
type ErrorRecord struct {
	Kind     Kind
	Subject  string
	Expected string
}

func (r ErrorRecord) String() string {
	switch {
	case r.Subject == "" && r.Expected == "":
		return string(r.Kind)
	case r.Expected == "":
		return fmt.Sprintf("%s(%s)", r.Kind, r.Subject)
	default:
		return fmt.Sprintf("%s(%s, %s)", r.Kind, r.Subject, r.Expected)
	}
}

// RecordOf classifies err. Wrapped errors classify like the error they wrap.
func RecordOf(err error) ErrorRecord {
	var (
		tm *TypeMismatchError
		mk *MissingKeyError
		ru *ResponseUnavailableError
		df *DeliveryFailedError
	)
	switch {
	case err == nil:
		return ErrorRecord{}
	case errors.As(err, &tm):
		return ErrorRecord{Kind: KindTypeMismatch, Subject: tm.Subject, Expected: tm.Expected}
	case errors.As(err, &mk):
		return ErrorRecord{Kind: KindMissingKey, Subject: mk.Container, Expected: mk.Key}
	case errors.As(err, &ru):
		return ErrorRecord{Kind: KindResponseUnavailable, Subject: ru.Detail}
	case errors.As(err, &df):
		key := df.Key
		if key == "" {
			key = df.Detail
		}
		return ErrorRecord{Kind: KindDeliveryFailed, Subject: key}
	default:
		return ErrorRecord{Kind: KindUnexpected, Subject: err.Error()}
	}
}

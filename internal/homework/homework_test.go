package homework

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckResponse(t *testing.T) {
	tests := []struct {
		name string
		resp any
		want ErrorRecord
	}{
		{name: "nil", resp: nil, want: ErrorRecord{KindTypeMismatch, "response", "mapping"}},
		{name: "list", resp: []any{}, want: ErrorRecord{KindTypeMismatch, "response", "mapping"}},
		{name: "string", resp: "homeworks", want: ErrorRecord{KindTypeMismatch, "response", "mapping"}},
		{name: "no homeworks", resp: map[string]any{"current_date": 1}, want: ErrorRecord{KindMissingKey, "response", "homeworks"}},
		{name: "no current_date", resp: map[string]any{"homeworks": []any{}}, want: ErrorRecord{KindMissingKey, "response", "current_date"}},
		{
			name: "missing key wins over type",
			resp: map[string]any{"homeworks": "x"},
			want: ErrorRecord{KindMissingKey, "response", "current_date"},
		},
		{
			name: "homeworks not a list",
			resp: map[string]any{"homeworks": map[string]any{}, "current_date": 1},
			want: ErrorRecord{KindTypeMismatch, "homeworks", "sequence"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := CheckResponse(tt.resp)
			require.Error(t, err)
			assert.Nil(t, list)
			assert.Equal(t, tt.want, RecordOf(err))
		})
	}
}

func TestCheckResponseReturnsList(t *testing.T) {
	list, err := CheckResponse(map[string]any{"homeworks": []any{}, "current_date": 1})
	require.NoError(t, err)
	assert.Empty(t, list)

	hw := map[string]any{"homework_name": "hw1", "status": "approved"}
	list, err = CheckResponse(map[string]any{"homeworks": []any{hw}, "current_date": 1})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, hw, list[0])
}

func TestParseStatus(t *testing.T) {
	msg, err := ParseStatus(map[string]any{"homework_name": "hw1", "status": "approved"})
	require.NoError(t, err)
	assert.Equal(t, `Изменился статус проверки работы "hw1". Работа проверена: ревьюеру всё понравилось. Ура!`, msg)

	msg, err = ParseStatus(map[string]any{"homework_name": "hw2", "status": "rejected"})
	require.NoError(t, err)
	assert.Equal(t, `Изменился статус проверки работы "hw2". Работа проверена: у ревьюера есть замечания.`, msg)
}

func TestParseStatusErrors(t *testing.T) {
	tests := []struct {
		name string
		hw   any
		want ErrorRecord
	}{
		{name: "not a mapping", hw: "hw1", want: ErrorRecord{KindTypeMismatch, "homework", "mapping"}},
		{name: "no status", hw: map[string]any{"homework_name": "hw1"}, want: ErrorRecord{KindMissingKey, "homework", "status"}},
		{name: "status checked first", hw: map[string]any{}, want: ErrorRecord{KindMissingKey, "homework", "status"}},
		{name: "no name", hw: map[string]any{"status": "approved"}, want: ErrorRecord{KindMissingKey, "homework", "homework_name"}},
		{
			name: "unknown status",
			hw:   map[string]any{"homework_name": "hw1", "status": "unknown_code"},
			want: ErrorRecord{KindMissingKey, "HOMEWORK_STATUSES", "homework_status"},
		},
		{
			name: "non-string status",
			hw:   map[string]any{"homework_name": "hw1", "status": 3.0},
			want: ErrorRecord{KindMissingKey, "HOMEWORK_STATUSES", "homework_status"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStatus(tt.hw)
			require.Error(t, err)
			assert.Equal(t, tt.want, RecordOf(err))
		})
	}
}

func TestShouldReport(t *testing.T) {
	a := RecordOf(MissingKey("response", "homeworks"))
	b := RecordOf(MissingKey("response", "current_date"))

	assert.True(t, ShouldReport(nil, a), "first failure is always reported")

	prev := &a
	assert.False(t, ShouldReport(prev, a), "identical failure is suppressed")
	assert.False(t, ShouldReport(prev, a), "still suppressed on later cycles")

	assert.True(t, ShouldReport(prev, b), "different detail is reported")
	prev = &b
	assert.True(t, ShouldReport(prev, a), "switching back is reported")

	tm := RecordOf(TypeMismatch("response", "homeworks"))
	assert.True(t, ShouldReport(&a, tm), "same details, different kind")
}

func TestRecordOfWrapped(t *testing.T) {
	base := ResponseUnavailable("status 503", nil)
	wrapped := fmt.Errorf("fetch homework statuses: %w", base)
	assert.Equal(t, RecordOf(base), RecordOf(wrapped))
	assert.Equal(t, ErrorRecord{Kind: KindResponseUnavailable, Subject: "status 503"}, RecordOf(wrapped))

	df := DeliveryFailed(errors.New("telegram: chat not found"))
	assert.Equal(t, ErrorRecord{Kind: KindDeliveryFailed, Subject: "telegram: chat not found"}, RecordOf(df))

	other := errors.New("unexpected EOF")
	assert.Equal(t, ErrorRecord{Kind: KindUnexpected, Subject: "unexpected EOF"}, RecordOf(other))
	assert.Equal(t, ErrorRecord{}, RecordOf(nil))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, `в словаре response нет ключа "homeworks"!`, MissingKey("response", "homeworks").Error())
	assert.Equal(t, `тип данных homeworks не 'sequence'!`, TypeMismatch("homeworks", "sequence").Error())
	assert.Contains(t, ResponseUnavailable("status 500", nil).Error(), "(status 500)")
	assert.Nil(t, DeliveryFailed(nil))
}

type keyedErr struct{ msg, key string }

func (e keyedErr) Error() string    { return e.msg }
func (e keyedErr) DedupKey() string { return e.key }

func TestDeliveryFailedUsesStableKey(t *testing.T) {
	first := DeliveryFailed(fmt.Errorf("send: %w", keyedErr{msg: "retry after 5 (429)", key: "telegram 429"}))
	second := DeliveryFailed(keyedErr{msg: "retry after 17 (429)", key: "telegram 429"})

	a, b := RecordOf(first), RecordOf(second)
	assert.Equal(t, ErrorRecord{Kind: KindDeliveryFailed, Subject: "telegram 429"}, a)
	assert.False(t, ShouldReport(&a, b), "only the retry delay differs")

	// The message keeps the full transport text.
	assert.Contains(t, first.Error(), "retry after 5")
	assert.Contains(t, second.Error(), "retry after 17")
}

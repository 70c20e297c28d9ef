// Package homework validates Practicum status API answers and renders
// status change messages.
package homework

import "fmt"

const (
	keyHomeworks   = "homeworks"
	keyCurrentDate = "current_date"
	keyStatus      = "status"
	keyName        = "homework_name"
)

// Record is one homework entry as decoded from the API.
type Record = map[string]any

// StatusTable maps status codes to verdicts. It is never mutated.
var StatusTable = map[string]string{
	"approved":  "Работа проверена: ревьюеру всё понравилось. Ура!",
	"reviewing": "Работа взята на проверку ревьюером.",
	"rejected":  "Работа проверена: у ревьюера есть замечания.",
}

// CheckResponse validates a decoded API answer and returns its homework list.
// The list may be empty.
func CheckResponse(resp any) ([]any, error) {
	m, ok := resp.(map[string]any)
	if !ok {
		return nil, TypeMismatch("response", "mapping")
	}
	raw, ok := m[keyHomeworks]
	if !ok {
		return nil, MissingKey("response", keyHomeworks)
	}
	if _, ok := m[keyCurrentDate]; !ok {
		return nil, MissingKey("response", keyCurrentDate)
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, TypeMismatch(keyHomeworks, "sequence")
	}
	return list, nil
}

// ParseStatus renders the status change message for a single homework.
func ParseStatus(hw any) (string, error) {
	rec, ok := hw.(Record)
	if !ok {
		return "", TypeMismatch("homework", "mapping")
	}
	status, ok := rec[keyStatus]
	if !ok {
		return "", MissingKey("homework", keyStatus)
	}
	name, ok := rec[keyName]
	if !ok {
		return "", MissingKey("homework", keyName)
	}
	code, _ := status.(string)
	verdict, ok := StatusTable[code]
	if !ok {
		return "", MissingKey("HOMEWORK_STATUSES", "homework_status")
	}
	return fmt.Sprintf("Изменился статус проверки работы \"%v\". %s", name, verdict), nil
}

// ShouldReport reports whether cur must be surfaced given the previously
// reported failure. The first failure is always reported.
func ShouldReport(prev *ErrorRecord, cur ErrorRecord) bool {
	return prev == nil || *prev != cur
}

package config

import (
	"fmt"
	"strings"
	"time"
)

// ParseDurationOrDefault parses the Go duration string found at path.
// Empty or zero values yield def. Negative values are rejected.
func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	return ParseDurationAtLeast(path, raw, def, 0)
}

// ParseDurationAtLeast is ParseDurationOrDefault with a lower bound applied
// to explicitly configured values.
func ParseDurationAtLeast(path, raw string, def, floor time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	switch {
	case err != nil:
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	case d < 0:
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	case d == 0:
		return def, nil
	case d < floor:
		return 0, fmt.Errorf("%s: must be >= %s", path, floor)
	}
	return d, nil
}

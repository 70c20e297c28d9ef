package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // 0 means default
}

// EntryKind tells status messages from failure reports.
type EntryKind string

const (
	KindStatus  EntryKind = "status"
	KindFailure EntryKind = "failure"
)

// Entry records one delivery attempt.
type Entry struct {
	At    time.Time
	Kind  EntryKind
	Text  string
	OK    bool
	Error string
	// Dedup is the failure's dedup key (failure entries only).
	Dedup string
}

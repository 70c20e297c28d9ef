package config

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Config is the on-disk configuration. Credentials are normally supplied
// through the environment (see ApplyEnv) rather than the file.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "10m").
type Config struct {
	Practicum PracticumConfig `json:"practicum"`
	Telegram  TelegramConfig  `json:"telegram"`
	Poll      PollConfig      `json:"poll"`
	Logging   LoggingConfig   `json:"logging"`
	Storage   *StorageConfig  `json:"storage,omitempty"`
}

type PracticumConfig struct {
	// Token is the Practicum OAuth token (PRACTICUM_TOKEN).
	Token    string `json:"token,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
	Timeout  string `json:"timeout,omitempty"`
}

type TelegramConfig struct {
	// Token is the bot token (TELEGRAM_TOKEN).
	Token string `json:"token,omitempty"`
	// ChatID is the destination chat (TELEGRAM_CHAT_ID).
	ChatID     ChatIDString `json:"chat_id,omitempty"`
	ThreadID   int          `json:"thread_id,omitempty"`
	RatePerSec int          `json:"rate_per_sec,omitempty"`
}

// ChatIDString holds a chat id written either as a number (chat_id: 123456)
// or as a string (chat_id: "-100123456").
type ChatIDString string

func (c *ChatIDString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = ChatIDString(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("chat_id must be a number or a string: %w", err)
		}
		*c = ChatIDString(n.String())
		return nil
	}
}

// PollConfig controls the poll loop.
//
// Defaults (when fields are omitted/empty):
//   - interval: "10m"
//   - lookback: "720h" (30 days)
type PollConfig struct {
	Interval string `json:"interval,omitempty"`
	Lookback string `json:"lookback,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig controls the optional notification journal.
//
// Example:
//
//	storage: { driver: sqlite, path: ./data/journal.db }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "DEBUG", Console: true},
	}
}

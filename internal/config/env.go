package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvPracticumToken = "PRACTICUM_TOKEN"
	EnvTelegramToken  = "TELEGRAM_TOKEN"
	EnvTelegramChatID = "TELEGRAM_CHAT_ID"
	// EnvConfigPath points at an optional JSON/YAML config file.
	EnvConfigPath = "HOMEWORKBOT_CONFIG"
)

const DefaultPath = "./config.yaml"

var ErrMissingCredentials = errors.New("missing required environment variables")

// LoadDotEnv loads variables from the given .env files (default "./.env")
// without overriding variables already present in the environment.
// A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// PathFromEnv returns the config file path.
func PathFromEnv() string {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p
	}
	return DefaultPath
}

// ApplyEnv overrides credentials with non-empty environment values.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvPracticumToken)); v != "" {
		c.Practicum.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelegramToken)); v != "" {
		c.Telegram.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelegramChatID)); v != "" {
		c.Telegram.ChatID = ChatIDString(v)
	}
}

// Validate checks that every credential is present and the chat id parses.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Practicum.Token) == "" {
		missing = append(missing, EnvPracticumToken)
	}
	if strings.TrimSpace(c.Telegram.Token) == "" {
		missing = append(missing, EnvTelegramToken)
	}
	if strings.TrimSpace(string(c.Telegram.ChatID)) == "" {
		missing = append(missing, EnvTelegramChatID)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	if _, err := c.ChatID(); err != nil {
		return err
	}
	return nil
}

// ChatID parses the destination chat id.
func (c *Config) ChatID() (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(string(c.Telegram.ChatID)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram.chat_id: invalid chat id %q: %w", c.Telegram.ChatID, err)
	}
	return id, nil
}

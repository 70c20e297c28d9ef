package app

import (
	"fmt"
	"strings"
	"time"

	"homeworkbot/internal/config"
	"homeworkbot/internal/poller"
	"homeworkbot/internal/practicum"
	"homeworkbot/internal/storage"
	logx "homeworkbot/pkg/logx"
)

func mapLogConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func mapPollConfig(cfg *config.Config) (poller.Config, error) {
	interval, err := config.ParseDurationAtLeast("poll.interval", cfg.Poll.Interval, poller.DefaultInterval, time.Second)
	if err != nil {
		return poller.Config{}, err
	}
	lookback, err := config.ParseDurationOrDefault("poll.lookback", cfg.Poll.Lookback, poller.DefaultLookback)
	if err != nil {
		return poller.Config{}, err
	}
	return poller.Config{Interval: interval, Lookback: lookback}, nil
}

func mapPracticumConfig(cfg *config.Config) (practicum.Config, error) {
	timeout, err := config.ParseDurationOrDefault("practicum.timeout", cfg.Practicum.Timeout, 15*time.Second)
	if err != nil {
		return practicum.Config{}, err
	}
	return practicum.Config{
		Endpoint: cfg.Practicum.Endpoint,
		Token:    cfg.Practicum.Token,
		Timeout:  timeout,
	}, nil
}

func mapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	if cfg == nil || cfg.Storage == nil {
		return storage.Config{}, false, nil
	}
	sc := cfg.Storage
	driver := strings.ToLower(strings.TrimSpace(sc.Driver))
	switch driver {
	case "", "none":
		return storage.Config{}, false, nil
	case "sqlite", "sqlite3":
		path := strings.TrimSpace(sc.Path)
		if path == "" {
			return storage.Config{}, false, fmt.Errorf("storage.path is required when storage.driver=sqlite")
		}
		busy, err := config.ParseDurationOrDefault("storage.busy_timeout", sc.BusyTimeout, time.Second)
		if err != nil {
			return storage.Config{}, false, err
		}
		return storage.Config{Driver: driver, Path: path, BusyTimeout: busy}, true, nil
	default:
		return storage.Config{}, false, fmt.Errorf("unknown storage.driver: %s", sc.Driver)
	}
}

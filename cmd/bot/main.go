package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"homeworkbot/internal/app"
	"homeworkbot/internal/config"
	logx "homeworkbot/pkg/logx"
)

func main() {
	boot := logx.NewConsole("DEBUG")

	if err := config.LoadDotEnv(); err != nil {
		boot.Warn("failed to read .env", logx.Err(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfgm := config.NewManager(config.PathFromEnv())
	cfg, err := cfgm.Load()
	if err != nil {
		boot.Critical("failed to load config", logx.String("path", cfgm.Path()), logx.Err(err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrMissingCredentials) {
			boot.Critical("отсутствуют переменные окружения!", logx.Err(err))
		} else {
			boot.Critical("invalid config", logx.Err(err))
		}
		os.Exit(1)
	}

	a, err := app.New(cfgm, cfg)
	if err != nil {
		boot.Critical("failed to start", logx.Err(err))
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		boot.Error("stopped with error", logx.Err(err))
	}
}

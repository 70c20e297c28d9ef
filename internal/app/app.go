package app

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"homeworkbot/internal/config"
	"homeworkbot/internal/notifier"
	"homeworkbot/internal/poller"
	"homeworkbot/internal/practicum"
	"homeworkbot/internal/storage"
	kit "homeworkbot/internal/transport"
	telegram "homeworkbot/internal/transport/telegram/adapter"
	logx "homeworkbot/pkg/logx"
)

type App struct {
	cfgm *config.Manager

	log  logx.Logger
	logs *logx.Service

	journal storage.Journal
	loop    *poller.Loop

	// state lives for the whole process and is never persisted.
	state *poller.State

	sd *systemdNotifier
}

// New wires the bot from a validated config.
func New(cfgm *config.Manager, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logSvc, log := logx.New(mapLogConfig(cfg))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	chatID, err := cfg.ChatID()
	if err != nil {
		return nil, err
	}
	ad, err := telegram.New(telegram.Config{
		Token:      cfg.Telegram.Token,
		RatePerSec: cfg.Telegram.RatePerSec,
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, err
	}
	notif := notifier.New(ad, kit.ChatTarget{ChatID: chatID, ThreadID: cfg.Telegram.ThreadID},
		log.With(logx.String("comp", "notifier")))

	pcfg, err := mapPracticumConfig(cfg)
	if err != nil {
		return nil, err
	}
	client, err := practicum.New(pcfg, log.With(logx.String("comp", "practicum")))
	if err != nil {
		return nil, err
	}

	var journal storage.Journal
	if sc, enabled, err := mapStorageConfig(cfg); err != nil {
		return nil, err
	} else if enabled {
		journal, err = storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			return nil, err
		}
		log.Info("journal enabled", logx.String("driver", sc.Driver), logx.String("path", sc.Path))
		logLastEntry(journal, log.With(logx.String("comp", "storage")))
	}

	pollCfg, err := mapPollConfig(cfg)
	if err != nil {
		closeJournal(journal)
		return nil, err
	}

	a := &App{
		cfgm:    cfgm,
		log:     log.With(logx.String("comp", "app")),
		logs:    logSvc,
		journal: journal,
		state:   &poller.State{},
		sd:      newSystemdNotifier(log.With(logx.String("comp", "systemd"))),
	}

	opts := []poller.Option{poller.WithCycleHook(a.sd.cycleDone)}
	if journal != nil {
		opts = append(opts, poller.WithJournal(journal))
	}
	a.loop, err = poller.New(pollCfg, client, notif, log.With(logx.String("comp", "poller")), opts...)
	if err != nil {
		closeJournal(journal)
		return nil, err
	}
	return a, nil
}

// Run blocks until ctx is done.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	sub := a.cfgm.Subscribe(4)
	g.Go(func() error { return a.cfgm.Watch(ctx) })
	g.Go(func() error {
		defer a.cfgm.Unsubscribe(sub)
		a.applyConfigUpdates(ctx, sub)
		return nil
	})
	g.Go(func() error { return a.sd.watchdog(ctx) })
	g.Go(func() error { return a.loop.Run(ctx, a.state) })

	a.sd.ready()
	fields := []logx.Field{logx.String("config", a.cfgm.Path())}
	if cfg := a.cfgm.Get(); cfg != nil {
		fields = append(fields, logx.String("log_level", cfg.Logging.Level))
	}
	a.log.Info("bot started", fields...)

	err := g.Wait()
	a.sd.stopping()
	return err
}

// applyConfigUpdates re-applies the logging section on config reload.
// Credentials and poll settings need a restart.
func (a *App) applyConfigUpdates(ctx context.Context, sub <-chan *config.Config) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-sub:
			if !ok {
				return
			}
			a.logs.Apply(mapLogConfig(cfg))
			a.log.Info("logging config applied", logx.String("level", cfg.Logging.Level))
		}
	}
}

func (a *App) Close() error {
	closeJournal(a.journal)
	return a.logs.Close()
}

// logLastEntry logs the newest journal entry left by a previous run.
// It is informational only; poll state always starts empty.
func logLastEntry(j storage.Journal, log logx.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entries, err := j.Recent(ctx, 1)
	if err != nil {
		log.Warn("journal read failed", logx.Err(err))
		return
	}
	if len(entries) == 0 {
		log.Debug("journal is empty")
		return
	}
	e := entries[0]
	log.Info("last journal entry",
		logx.Time("at", e.At),
		logx.String("kind", string(e.Kind)),
		logx.Bool("ok", e.OK),
		logx.String("text", e.Text),
	)
}

func closeJournal(j storage.Journal) {
	if j != nil {
		_ = j.Close()
	}
}

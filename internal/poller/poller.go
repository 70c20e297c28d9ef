// Package poller runs the fetch, validate, notify cycle.
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"homeworkbot/internal/homework"
	"homeworkbot/internal/storage"
	logx "homeworkbot/pkg/logx"
)

const (
	DefaultInterval = 10 * time.Minute
	DefaultLookback = 30 * 24 * time.Hour

	failurePrefix      = "Сбой в работе программы: "
	notDeliveredPrefix = "Сообщение не отправлено: "
)

// Fetcher returns the decoded status API answer for homeworks changed since
// from (unix seconds). Homeworks must be ordered newest-first.
type Fetcher interface {
	Fetch(ctx context.Context, from int64) (any, error)
}

// Notifier delivers a message to the user.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// State is the loop's memory between cycles. It is owned by a single Loop.Run.
type State struct {
	// LastStatus is the last status message delivered.
	LastStatus string
	// LastError is the last failure reported (nil until the first one).
	LastError *homework.ErrorRecord
	// Since is the start of the last successful cycle (unix seconds), 0 before it.
	Since int64
}

type Config struct {
	Interval time.Duration
	Lookback time.Duration
}

type Option func(*Loop)

// WithJournal records every delivery attempt.
func WithJournal(j storage.Journal) Option {
	return func(l *Loop) { l.journal = j }
}

// WithClock overrides the clock used for fetch windows.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) { l.now = now }
}

// WithCycleHook is called after every cycle with the cycle's failure (nil on success).
func WithCycleHook(fn func(err error)) Option {
	return func(l *Loop) { l.onCycle = fn }
}

type Loop struct {
	cfg      Config
	fetch    Fetcher
	notify   Notifier
	journal  storage.Journal
	log      logx.Logger
	now      func() time.Time
	schedule cron.Schedule
	onCycle  func(err error)
}

func New(cfg Config, fetch Fetcher, notify Notifier, log logx.Logger, opts ...Option) (*Loop, error) {
	if fetch == nil {
		return nil, errors.New("poller: fetcher required")
	}
	if notify == nil {
		return nil, errors.New("poller: notifier required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = DefaultLookback
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	l := &Loop{
		cfg:      cfg,
		fetch:    fetch,
		notify:   notify,
		log:      log,
		now:      time.Now,
		schedule: cron.Every(cfg.Interval),
	}
	for _, o := range opts {
		o(l)
	}
	return l, nil
}

// Run repeats RunCycle every interval until ctx is done. Cycle failures never
// stop the loop.
func (l *Loop) Run(ctx context.Context, st *State) error {
	l.log.Info("poller started",
		logx.Duration("interval", l.cfg.Interval),
		logx.Duration("lookback", l.cfg.Lookback),
	)
	for {
		err := l.RunCycle(ctx, st)
		if l.onCycle != nil {
			l.onCycle(err)
		}

		now := time.Now()
		t := time.NewTimer(l.schedule.Next(now).Sub(now))
		select {
		case <-ctx.Done():
			t.Stop()
			l.log.Info("poller stopped")
			return nil
		case <-t.C:
		}
	}
}

// RunCycle performs one cycle and returns its failure, which has already been
// reported or suppressed.
func (l *Loop) RunCycle(ctx context.Context, st *State) error {
	start := l.now()
	log := l.log.With(logx.String("cycle", uuid.NewString()))

	err := l.check(ctx, st, start, log)
	if err == nil {
		st.Since = start.Unix()
		return nil
	}
	if ctx.Err() != nil {
		// Shutting down; nothing can be delivered anymore.
		log.Debug("cycle interrupted", logx.Err(err))
		return ctx.Err()
	}
	l.report(ctx, st, err, log)
	return err
}

func (l *Loop) check(ctx context.Context, st *State, start time.Time, log logx.Logger) error {
	since := st.Since
	if since == 0 {
		since = start.Add(-l.cfg.Lookback).Unix()
	}

	resp, err := l.fetch.Fetch(ctx, since)
	if err != nil {
		return err
	}
	homeworks, err := homework.CheckResponse(resp)
	if err != nil {
		return err
	}
	if len(homeworks) == 0 {
		log.Debug("no homework updates", logx.Int64("from_date", since))
		return nil
	}

	msg, err := homework.ParseStatus(homeworks[0])
	if err != nil {
		return err
	}
	if msg == st.LastStatus {
		log.Debug("Статус проверки работы не изменился.")
		return nil
	}
	if err := l.send(ctx, storage.KindStatus, msg, "", log); err != nil {
		return err
	}
	st.LastStatus = msg
	return nil
}

// report surfaces err unless it repeats the last reported failure.
// LastError only moves once the report has been delivered.
func (l *Loop) report(ctx context.Context, st *State, err error, log logx.Logger) {
	rec := homework.RecordOf(err)
	if !homework.ShouldReport(st.LastError, rec) {
		log.Debug("Ошибка не устранена", logx.String("dedup", rec.String()))
		return
	}

	msg := failurePrefix + err.Error()
	log.Error(msg, logx.String("dedup", rec.String()))
	if serr := l.send(ctx, storage.KindFailure, msg, rec.String(), log); serr != nil {
		log.Warn("failure report not delivered; will retry next cycle", logx.Err(serr))
		return
	}
	st.LastError = &rec
}

// send delivers text. When delivery fails it makes one more attempt carrying
// the failure itself, then returns the first failure either way.
func (l *Loop) send(ctx context.Context, kind storage.EntryKind, text, dedup string, log logx.Logger) error {
	err := l.notify.Notify(ctx, text)
	l.record(ctx, storage.Entry{Kind: kind, Text: text, Dedup: dedup}, err, log)
	if err == nil {
		log.Info("Сообщение отправлено!", logx.String("kind", string(kind)))
		return nil
	}

	log.Error("message not delivered", logx.Err(err), logx.String("kind", string(kind)))
	notice := notDeliveredPrefix + err.Error()
	nerr := l.notify.Notify(ctx, notice)
	l.record(ctx, storage.Entry{Kind: storage.KindFailure, Text: notice}, nerr, log)
	if nerr != nil {
		log.Debug("delivery failure notice not delivered", logx.Err(nerr))
	}
	return err
}

func (l *Loop) record(ctx context.Context, e storage.Entry, err error, log logx.Logger) {
	if l.journal == nil {
		return
	}
	e.At = l.now()
	e.OK = err == nil
	if err != nil {
		e.Error = err.Error()
	}
	if jerr := l.journal.Append(ctx, e); jerr != nil {
		log.Warn("journal append failed", logx.Err(jerr))
	}
}

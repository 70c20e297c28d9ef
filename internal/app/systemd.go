package app

import (
	"context"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	logx "homeworkbot/pkg/logx"
)

// systemdNotifier reports readiness, status and watchdog pings when the bot
// runs as a systemd unit (Type=notify). Outside systemd every call is a no-op.
type systemdNotifier struct {
	log    logx.Logger
	notify func(state string) (bool, error)
	// watchdogInterval returns 0 when the unit has no WatchdogSec.
	watchdogInterval func() (time.Duration, error)
}

func newSystemdNotifier(log logx.Logger) *systemdNotifier {
	return &systemdNotifier{
		log: log,
		notify: func(state string) (bool, error) {
			return daemon.SdNotify(false, state)
		},
		watchdogInterval: func() (time.Duration, error) {
			return daemon.SdWatchdogEnabled(false)
		},
	}
}

func (s *systemdNotifier) send(state string) {
	sent, err := s.notify(state)
	if err != nil {
		s.log.Warn("sd_notify failed", logx.String("state", state), logx.Err(err))
		return
	}
	if sent {
		s.log.Trace("sd_notify", logx.String("state", state))
	}
}

func (s *systemdNotifier) ready()    { s.send(daemon.SdNotifyReady) }
func (s *systemdNotifier) stopping() { s.send(daemon.SdNotifyStopping) }

// cycleDone publishes the outcome of the last poll cycle as the unit status.
func (s *systemdNotifier) cycleDone(err error) {
	status := "STATUS=last cycle ok"
	if err != nil {
		status = "STATUS=last cycle failed: " + statusLine(err.Error())
	}
	s.send(status)
}

// statusLine folds s onto one line; sd_notify assignments are newline separated.
func statusLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// watchdog pings systemd at half the configured watchdog interval.
func (s *systemdNotifier) watchdog(ctx context.Context) error {
	interval, err := s.watchdogInterval()
	if err != nil {
		s.log.Warn("watchdog config invalid", logx.Err(err))
		return nil
	}
	if interval <= 0 {
		return nil
	}
	t := time.NewTicker(interval / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			s.send(daemon.SdNotifyWatchdog)
		}
	}
}

package backup

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/dagaz/internal/settings"
)

// recheckInterval is how often a disabled scheduler looks at the settings
// again for a re-enable.
const recheckInterval = time.Minute

// Latch serialises snapshot creation against in-flight editor saves. The
// session coordinator provides one; a nil Latch runs snapshots immediately.
type Latch interface {
	Idle(fn func())
}

// RunScheduler creates a snapshot every configured interval until ctx is
// cancelled. Create enforces the Manager's retention, so no separate prune
// pass runs here. The interval is re-read from the settings file on every
// cycle, so changes apply without a restart. An interval of zero or less
// disables scheduling. Failures are logged and the loop keeps running.
func RunScheduler(ctx context.Context, mgr *Manager, st *settings.File, latch Latch, logger *slog.Logger) error {
	logger.Info("backup scheduler: started", slog.String("dir", mgr.Dir()))

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		delay, enabled := plan(st, logger)
		timer.Reset(delay)

		select {
		case <-ctx.Done():
			logger.Info("backup scheduler: stopped")
			return nil
		case <-timer.C:
		}

		if !enabled {
			continue
		}
		run := func() { cycle(mgr, logger) }
		if latch != nil {
			latch.Idle(run)
		} else {
			run()
		}
	}
}

// cycle takes one snapshot.
func cycle(mgr *Manager, logger *slog.Logger) {
	snap, err := mgr.Create()
	if err != nil {
		logger.Warn("backup scheduler: snapshot failed", slog.String("error", err.Error()))
		return
	}
	if snap == nil {
		logger.Debug("backup scheduler: nothing to snapshot")
		return
	}
	logger.Info("backup scheduler: snapshot created",
		slog.String("name", snap.Name), slog.Int64("size", snap.Size))
}

// plan reads the settings and decides how long to sleep and whether the
// next wakeup should take a snapshot at all.
func plan(st *settings.File, logger *slog.Logger) (delay time.Duration, enabled bool) {
	s, err := st.Load()
	if err != nil {
		logger.Warn("backup scheduler: load settings", slog.String("error", err.Error()))
		return recheckInterval, false
	}
	if s.BackupIntervalMinutes <= 0 {
		return recheckInterval, false
	}
	return time.Duration(s.BackupIntervalMinutes) * time.Minute, true
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/tahsil/core"
	"github.com/trezcool/tahsil/core/report"
)

const snapshotTimeout = 10 * time.Minute

type snapshotTaker interface {
	SnapshotWeek(ctx context.Context, day time.Time) ([]report.Snapshot, error)
}

// cronLogger adapts core.Logger to cron.Logger.
type cronLogger struct {
	logger core.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, kvFields(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, err, kvFields(keysAndValues))
}

func kvFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}

// startScheduler runs the weekly snapshots on conf.Report.Schedule.
// A run still in progress makes the next one skip.
func startScheduler(conf *core.Config, logger core.Logger, svc snapshotTaker) (*cron.Cron, error) {
	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(conf.Report.Schedule, snapshotJob(logger, svc, time.Now)); err != nil {
		return nil, errors.Wrapf(err, "scheduling snapshots %q", conf.Report.Schedule)
	}
	c.Start()
	return c, nil
}

func snapshotJob(logger core.Logger, svc snapshotTaker, now func() time.Time) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
		defer cancel()

		day := now()
		snaps, err := svc.SnapshotWeek(ctx, day)
		if err != nil {
			logger.Error("weekly snapshots failed", err, map[string]interface{}{"week_start": core.WeekStart(day).Format(core.DateLayout)})
			return
		}
		logger.Info(fmt.Sprintf("weekly snapshots taken: %d", len(snaps)))
	}
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/tahsil/core"
	"github.com/trezcool/tahsil/core/report"
)

type snapshotTaker interface {
	SnapshotWeek(ctx context.Context, day time.Time) ([]report.Snapshot, error)
}

// snapshot takes the weekly snapshots of the week containing week (YYYY-MM-DD), today when empty.
func (cli *commandLine) snapshot(week string) error {
	day := nowFunc()
	if week = core.CleanString(week); week != "" {
		var err error
		if day, err = core.ParseDate(week); err != nil {
			return errors.Wrap(err, "parsing week")
		}
	}

	snaps, err := cli.snapshots.SnapshotWeek(context.Background(), day)
	if err != nil {
		return errors.Wrap(err, "taking weekly snapshots")
	}
	cli.logger.Info(fmt.Sprintf("%d snapshots taken for the week of %s", len(snaps), core.WeekStart(day).Format(core.DateLayout)))
	return nil
}

package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tahsil/core/report"
	logsvc "github.com/trezcool/tahsil/services/logger"
	"github.com/trezcool/tahsil/tests"
)

type fakeSnapshotTaker struct {
	days []time.Time
	err  error
}

func (f *fakeSnapshotTaker) SnapshotWeek(ctx context.Context, day time.Time) ([]report.Snapshot, error) {
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("no deadline")
	}
	f.days = append(f.days, day)
	return []report.Snapshot{{StudentID: "1"}}, f.err
}

func Test_snapshotJob(t *testing.T) {
	day := time.Date(2021, 3, 12, 22, 0, 0, 0, time.UTC)
	now := func() time.Time { return day }

	tests := []struct {
		name string
		err  error
	}{
		{name: "success"},
		{name: "failure is logged", err: errors.New("db down")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeSnapshotTaker{err: tt.err}
			snapshotJob(logsvc.NewNopLogger(), svc, now)()
			assert.Equal(t, []time.Time{day}, svc.days)
		})
	}
}

func Test_startScheduler(t *testing.T) {
	conf := testutil.NewConfig()
	svc := &fakeSnapshotTaker{}

	c, err := startScheduler(conf, logsvc.NewNopLogger(), svc)
	require.NoError(t, err)
	require.Len(t, c.Entries(), 1)
	assert.True(t, c.Entries()[0].Next.Weekday() == time.Friday)
	<-c.Stop().Done()

	conf.Report.Schedule = "every friday"
	_, err = startScheduler(conf, logsvc.NewNopLogger(), svc)
	assert.Error(t, err)
}

package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRefresher struct {
	refreshFunc func(ctx context.Context) error
	calls       atomic.Int32
}

func (m *mockRefresher) RefreshAll(ctx context.Context) error {
	m.calls.Add(1)
	if m.refreshFunc != nil {
		return m.refreshFunc(ctx)
	}
	return nil
}

func TestNewScheduler(t *testing.T) {
	testCases := []struct {
		name     string
		schedule string
		wantErr  bool
	}{
		{name: "Every ten minutes", schedule: "@every 10m"},
		{name: "Cron expression", schedule: "*/5 6-22 * * *"},
		{name: "Garbage", schedule: "whenever", wantErr: true},
		{name: "Empty", schedule: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := NewScheduler(&mockRefresher{}, tc.schedule, discardLogger())
			if tc.wantErr {
				var cfgErr *ConfigError
				require.ErrorAs(t, err, &cfgErr)
				assert.Equal(t, "REFRESH_SCHEDULE", cfgErr.Key)
				return
			}
			require.NoError(t, err)
			assert.Len(t, s.cron.Entries(), 1)
		})
	}
}

func TestScheduler_EntryRunsRefreshJob(t *testing.T) {
	s, err := NewScheduler(&mockRefresher{}, "@every 10m", discardLogger())
	require.NoError(t, err)
	var runs int
	s.refreshJob = func() { runs++ }

	s.cron.Entries()[0].Job.Run()

	assert.Equal(t, 1, runs)
}

func TestScheduler_RunRefreshJob(t *testing.T) {
	t.Run("Refreshes with a deadline", func(t *testing.T) {
		var hadDeadline bool
		dash := &mockRefresher{refreshFunc: func(ctx context.Context) error {
			_, hadDeadline = ctx.Deadline()
			return nil
		}}
		s, err := NewScheduler(dash, "@every 10m", discardLogger())
		require.NoError(t, err)

		s.runRefreshJob()

		assert.EqualValues(t, 1, dash.calls.Load())
		assert.True(t, hadDeadline)
	})

	t.Run("Failures are logged, not fatal", func(t *testing.T) {
		dash := &mockRefresher{refreshFunc: func(ctx context.Context) error {
			return errors.New("refresh week: upstream down")
		}}
		s, err := NewScheduler(dash, "@every 10m", discardLogger())
		require.NoError(t, err)

		assert.NotPanics(t, s.runRefreshJob)
		assert.EqualValues(t, 1, dash.calls.Load())
	})
}

func TestScheduler_StartStop(t *testing.T) {
	dash := &mockRefresher{}
	s, err := NewScheduler(dash, "@every 1h", discardLogger())
	require.NoError(t, err)

	s.Start()
	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
	assert.Zero(t, dash.calls.Load())
}

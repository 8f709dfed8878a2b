package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/amws/backend/internal/application/importer"
	"github.com/amws/backend/internal/application/retention"
	"github.com/amws/backend/internal/infrastructure/config"
)

type stubImporter struct {
	mu    sync.Mutex
	calls []importer.ImportOptions
}

func (s *stubImporter) ImportAll(_ context.Context, opts importer.ImportOptions) (importer.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, opts)
	return importer.Summary{}, nil
}

func (s *stubImporter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type stubPurger struct {
	mu    sync.Mutex
	calls []retention.PurgeOptions
}

func (s *stubPurger) Purge(_ context.Context, opts retention.PurgeOptions) (retention.PurgeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, opts)
	return retention.PurgeResult{}, nil
}

func (s *stubPurger) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func TestScheduler_RegisterImport(t *testing.T) {
	t.Run("disabled config registers nothing", func(t *testing.T) {
		s := New(zap.NewNop())
		svc := &stubImporter{}

		require.NoError(t, s.RegisterImport(config.CronConfig{Status: false, Schedule: "@every 1s"}, svc))

		s.Start()
		time.Sleep(1500 * time.Millisecond)
		s.Stop()

		assert.Zero(t, svc.callCount())
	})

	t.Run("invalid schedule is rejected", func(t *testing.T) {
		s := New(zap.NewNop())

		err := s.RegisterImport(config.CronConfig{Status: true, Schedule: "not a schedule"}, &stubImporter{})
		assert.Error(t, err)
	})

	t.Run("enabled job runs and passes the limit", func(t *testing.T) {
		s := New(zap.NewNop())
		svc := &stubImporter{}

		require.NoError(t, s.RegisterImport(config.CronConfig{Status: true, Schedule: "@every 1s", Limit: 7}, svc))

		s.Start()
		time.Sleep(1500 * time.Millisecond)
		s.Stop()

		require.GreaterOrEqual(t, svc.callCount(), 1)
		assert.Equal(t, 7, svc.calls[0].Limit)
	})
}

func TestScheduler_RegisterPurge(t *testing.T) {
	t.Run("disabled purge cron registers nothing", func(t *testing.T) {
		s := New(zap.NewNop())
		svc := &stubPurger{}

		cfg := config.PurgeConfig{
			Status: true,
			Cron:   config.CronConfig{Status: false, Schedule: "@every 1s"},
		}
		require.NoError(t, s.RegisterPurge(cfg, svc))

		s.Start()
		time.Sleep(1500 * time.Millisecond)
		s.Stop()

		assert.Zero(t, svc.callCount())
	})

	t.Run("enabled job runs with the configured limit", func(t *testing.T) {
		s := New(zap.NewNop())
		svc := &stubPurger{}

		cfg := config.PurgeConfig{
			Status:   true,
			Interval: 3600,
			Cron:     config.CronConfig{Status: true, Schedule: "@every 1s", Limit: 50},
		}
		require.NoError(t, s.RegisterPurge(cfg, svc))

		s.Start()
		time.Sleep(1500 * time.Millisecond)
		s.Stop()

		require.GreaterOrEqual(t, svc.callCount(), 1)
		assert.Equal(t, 50, svc.calls[0].Limit)
		assert.Nil(t, svc.calls[0].Interval)
		assert.False(t, svc.calls[0].Force)
	})
}

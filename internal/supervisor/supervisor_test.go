package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/techblog/internal/models"
	"github.com/magabrotheeeer/techblog/internal/storage"
	"github.com/magabrotheeeer/techblog/internal/storage/memory"
)

type fakePrimary struct {
	*memory.Storage
	ready  atomic.Bool
	closed atomic.Bool
}

func newFakePrimary() *fakePrimary {
	p := &fakePrimary{Storage: memory.New()}
	p.ready.Store(true)
	return p
}

func (f *fakePrimary) Kind() storage.Kind { return storage.KindPostgres }
func (f *fakePrimary) Ready() bool        { return f.ready.Load() }

func (f *fakePrimary) Close(context.Context) error {
	f.closed.Store(true)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(url string) Config {
	return Config{URL: url, ConnectAttempts: 3, RetryDelay: time.Millisecond, ProbeTimeout: time.Second}
}

func startWithPrimary(t *testing.T, p *fakePrimary, opts ...Option) *Supervisor {
	t.Helper()
	opts = append(opts, WithConnector(storage.KindPostgres,
		func(context.Context, string, storage.ConnectionListener) (Primary, error) { return p, nil }))
	s := New(testConfig("postgres://db/blog"), discardLogger(), opts...)
	require.NoError(t, s.Start(context.Background()))
	require.Equal(t, StatePrimaryActive, s.State())
	return s
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		url  string
		kind storage.Kind
		ok   bool
	}{
		{url: "mongodb://localhost/blog", kind: storage.KindMongo, ok: true},
		{url: "mongodb+srv://cluster.example.com/blog", kind: storage.KindMongo, ok: true},
		{url: "postgres://user@localhost/blog", kind: storage.KindPostgres, ok: true},
		{url: "postgresql://user@localhost/blog", kind: storage.KindPostgres, ok: true},
		{url: "memory://", kind: storage.KindMemory, ok: true},
		{url: "mysql://localhost/blog"},
		{url: "localhost:5432"},
		{url: ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			kind, ok := ParseKind(tt.url)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestStart_InvalidURLUsesSeededMemory(t *testing.T) {
	called := false
	s := New(testConfig("mysql://nowhere"), discardLogger(),
		WithConnector(storage.KindPostgres, func(context.Context, string, storage.ConnectionListener) (Primary, error) {
			called = true
			return nil, errors.New("unexpected")
		}))

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, called)
	assert.Equal(t, StateMemoryActive, s.State())
	assert.Equal(t, storage.KindMemory, s.Current().Kind())

	featured, err := s.Current().GetFeaturedPost(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, featured.Title)
}

func TestStart_RetriesThenSucceeds(t *testing.T) {
	p := newFakePrimary()
	calls := 0
	s := New(testConfig("postgres://db/blog"), discardLogger(),
		WithConnector(storage.KindPostgres, func(context.Context, string, storage.ConnectionListener) (Primary, error) {
			calls++
			if calls < 3 {
				return nil, errors.New("connection refused")
			}
			return p, nil
		}))

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 3, calls)
	assert.Equal(t, StatePrimaryActive, s.State())
	assert.Same(t, p, s.Current())
	assert.Equal(t, ConnectionConnected, s.Status().Connection)
}

func TestStart_AttemptsExhausted(t *testing.T) {
	calls := 0
	s := New(testConfig("postgres://db/blog"), discardLogger(),
		WithConnector(storage.KindPostgres, func(context.Context, string, storage.ConnectionListener) (Primary, error) {
			calls++
			return nil, errors.New("connection refused")
		}))

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 3, calls)
	assert.Equal(t, StateMemoryActive, s.State())
	assert.Equal(t, "connection refused", s.Status().LastError)
	assert.Equal(t, storage.KindPostgres, s.Status().Configured)
}

func TestStart_ProbeTimeoutClosesLateConnection(t *testing.T) {
	p := newFakePrimary()
	cfg := testConfig("postgres://db/blog")
	cfg.ProbeTimeout = 20 * time.Millisecond

	s := New(cfg, discardLogger(),
		WithConnector(storage.KindPostgres, func(context.Context, string, storage.ConnectionListener) (Primary, error) {
			time.Sleep(100 * time.Millisecond)
			return p, nil
		}))

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, StateMemoryActive, s.State())
	assert.Contains(t, s.Status().LastError, ErrProbeTimeout.Error())
	assert.Eventually(t, p.closed.Load, time.Second, 10*time.Millisecond)
}

func TestReportFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	p := newFakePrimary()
	s := startWithPrimary(t, p, WithMetrics(metrics))

	assert.False(t, s.ReportFailure(CapabilityData, errors.New("validation failed")))
	assert.Equal(t, StatePrimaryActive, s.State())

	assert.True(t, s.ReportFailure(CapabilityData, storage.Unavailable("op", errors.New("broken pipe"))))
	assert.Equal(t, StateMemoryActive, s.State())
	assert.Equal(t, StatePrimaryActive, s.CapabilityState(CapabilitySessions))
	assert.Equal(t, storage.KindMemory, s.Current().Kind())

	// повторный отказ уже ничего не меняет
	assert.True(t, s.ReportFailure(CapabilityData, storage.Unavailable("op", errors.New("broken pipe"))))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Switches.WithLabelValues("data", "postgres", "memory")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Active.WithLabelValues("data", "memory")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.Active.WithLabelValues("data", "postgres")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Active.WithLabelValues("sessions", "postgres")))

	s.ReportFailure(CapabilitySessions, storage.Unavailable("op", errors.New("broken pipe")))
	assert.Equal(t, StateMemoryActive, s.CapabilityState(CapabilitySessions))
}

func TestFallbackServesFreshSeededStore(t *testing.T) {
	p := newFakePrimary()
	s := startWithPrimary(t, p)
	ctx := context.Background()

	_, err := s.Current().CreateSubscriber(ctx, models.NewSubscriber{Email: "a@x.com"})
	require.NoError(t, err)

	s.ReportFailure(CapabilityData, storage.Unavailable("op", errors.New("down")))

	subs, err := s.Current().GetAllSubscribers(ctx)
	require.NoError(t, err)
	assert.Empty(t, subs)

	admin, err := s.Current().GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	for i := 0; i < 3; i++ {
		_, err = s.Current().GetAllPosts(ctx, storage.ListOptions{})
		require.NoError(t, err)
	}
}

func TestCheck_DemotesWhenNotReady(t *testing.T) {
	p := newFakePrimary()
	s := startWithPrimary(t, p)

	assert.Equal(t, StatePrimaryActive, s.Check())
	p.ready.Store(false)
	assert.Equal(t, StateMemoryActive, s.Check())
	assert.Equal(t, StateMemoryActive, s.CapabilityState(CapabilitySessions))
	assert.Equal(t, ConnectionDisconnected, s.Status().Connection)
}

func TestDisconnectAndReconnect(t *testing.T) {
	var (
		mu       sync.Mutex
		switches []storage.Kind
	)
	p := newFakePrimary()
	s := startWithPrimary(t, p, OnSwitch(func(c Capability, kind storage.Kind) {
		if c == CapabilityData {
			mu.Lock()
			switches = append(switches, kind)
			mu.Unlock()
		}
	}))

	s.Disconnected(errors.New("heartbeat failed"))
	assert.Equal(t, StateMemoryActive, s.State())
	assert.Contains(t, s.Status().LastError, storage.ErrUnavailable.Error())

	// без явного сигнала основное хранилище не возвращается
	p.ready.Store(true)
	assert.Equal(t, StateMemoryActive, s.Check())

	s.Reconnected()
	assert.Equal(t, StatePrimaryActive, s.State())
	assert.Equal(t, StatePrimaryActive, s.CapabilityState(CapabilitySessions))
	assert.Same(t, p, s.Current())
	assert.Equal(t, 2, s.Status().Switches)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []storage.Kind{storage.KindMemory, storage.KindPostgres}, switches)
}

func TestReportRecovery_WithoutPrimaryIsNoop(t *testing.T) {
	s := New(testConfig(""), discardLogger())
	require.NoError(t, s.Start(context.Background()))

	s.ReportRecovery()
	assert.Equal(t, StateMemoryActive, s.State())
	assert.Equal(t, ConnectionNotConfigured, s.Status().Connection)
}

func TestStatus(t *testing.T) {
	p := newFakePrimary()
	s := startWithPrimary(t, p)

	st := s.Status()
	assert.Equal(t, storage.KindPostgres, st.Backend)
	assert.Equal(t, StatePrimaryActive, st.Capabilities[CapabilityData])
	assert.False(t, st.StartedAt.IsZero())
	assert.NotZero(t, st.Memory.Sys)
	assert.Positive(t, st.Memory.Goroutines)

	require.NoError(t, s.Close(context.Background()))
	assert.True(t, p.closed.Load())
}

package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/five82/journey/internal/api"
	"github.com/five82/journey/internal/config"
	"github.com/five82/journey/internal/journeytest"
	"github.com/five82/journey/internal/tokenstore"
)

func newTestApp(t *testing.T, srv *journeytest.Server) (*App, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.APIURL = srv.URL
	cfg.TokenStore.Backend = config.BackendMemory
	cfg.PollInterval = 10 * time.Millisecond

	var out bytes.Buffer
	a, err := New(Options{
		Config: &cfg,
		Out:    &out,
		Logger: zaptest.NewLogger(t),
		Tokens: tokenstore.NewMemory(""),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a, &out
}

func TestApp_CloseFlushesFileLog(t *testing.T) {
	srv := journeytest.NewServer(t)
	cfg := config.Default()
	cfg.APIURL = srv.URL
	cfg.Log = config.Log{Level: "debug", Format: "json", Output: filepath.Join(t.TempDir(), "journey.log")}

	a, err := New(Options{Config: &cfg, Out: &bytes.Buffer{}, Tokens: tokenstore.NewMemory("")})
	require.NoError(t, err)
	require.NoError(t, a.Login(context.Background(), journeytest.Email, journeytest.Password))
	require.NoError(t, a.Close())
	assert.ErrorIs(t, a.closeLog(), os.ErrClosed)

	data, err := os.ReadFile(cfg.Log.Output)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestApp_JourneyLifecycle(t *testing.T) {
	srv := journeytest.NewServer(t)
	a, out := newTestApp(t, srv)
	ctx := context.Background()

	require.NoError(t, a.Status(ctx))
	assert.Contains(t, out.String(), "session: logged out")
	assert.Zero(t, srv.Calls(""))

	err := a.List(ctx)
	assert.True(t, api.IsAuthenticationRequired(err), "err = %v", err)

	out.Reset()
	require.NoError(t, a.Login(ctx, journeytest.Email, journeytest.Password))
	assert.Equal(t, "logged in as runner@example.com\n", out.String())

	out.Reset()
	require.NoError(t, a.Create(ctx, "charlotte-nc", "atlanta-ga", ""))
	assert.Equal(t, "created journey #1 Charlotte → Atlanta (245.0 mi)\n", out.String())

	out.Reset()
	require.NoError(t, a.LogRun(ctx, RunInput{JourneyID: 1, Miles: 5, Date: "2025-12-07", Mood: 8}))
	assert.Contains(t, out.String(), "logged 5.0 mi on 2025-12-07\n")
	assert.Contains(t, out.String(), "5.0 of 245.0 mi (2.0%), 240.0 mi to go")
	assert.Contains(t, out.String(), "last activity 2025-12-07")
	runs := srv.Runs()
	require.Len(t, runs, 1)
	require.NotNil(t, runs[0].MoodRating)
	assert.Equal(t, 8, *runs[0].MoodRating)

	out.Reset()
	require.NoError(t, a.List(ctx))
	assert.Equal(t, "Active:\n  #1 Charlotte → Atlanta (Charlotte, NC → Atlanta, GA, 245.0 mi)\n", out.String())

	out.Reset()
	require.NoError(t, a.Show(ctx, 1))
	assert.Contains(t, out.String(), "#1 Charlotte → Atlanta [active]")

	out.Reset()
	require.NoError(t, a.Current(ctx))
	assert.Contains(t, out.String(), "#1 Charlotte → Atlanta [active]")

	out.Reset()
	require.NoError(t, a.Location(ctx, 1))
	assert.Contains(t, out.String(), "#1 at 35.1975")

	out.Reset()
	require.NoError(t, a.Delete(ctx, 1))
	assert.Equal(t, "deleted journey #1\n", out.String())

	out.Reset()
	require.NoError(t, a.List(ctx))
	assert.Equal(t, "no journeys\n", out.String())

	out.Reset()
	require.NoError(t, a.Logout(ctx))
	require.NoError(t, a.Status(ctx))
	assert.Contains(t, out.String(), "session: logged out")
}

func TestApp_CreateUsesFallbackDistance(t *testing.T) {
	srv := journeytest.NewServer(t)
	a, out := newTestApp(t, srv)
	ctx := context.Background()
	require.NoError(t, a.Login(ctx, journeytest.Email, journeytest.Password))

	out.Reset()
	require.NoError(t, a.Create(ctx, "savannah-ga", "washington-dc", "Coastal"))
	assert.Equal(t, "created journey #1 Coastal (250.0 mi)\n", out.String())

	assert.Error(t, a.Create(ctx, "savannah-ga", "atlantis", ""))
	assert.Error(t, a.Create(ctx, "savannah-ga", "savannah-ga", ""))
	assert.Equal(t, 1, srv.Calls("POST /api/v1/journeys"))
}

func TestApp_LogRunRejectsBadInput(t *testing.T) {
	srv := journeytest.NewServer(t)
	a, _ := newTestApp(t, srv)
	ctx := context.Background()
	require.NoError(t, a.Login(ctx, journeytest.Email, journeytest.Password))

	assert.Error(t, a.LogRun(ctx, RunInput{JourneyID: 1, Miles: 3, Date: "12/07/2025"}))
	assert.Error(t, a.LogRun(ctx, RunInput{JourneyID: 1, Miles: 3, Mood: 11}))
	assert.Error(t, a.LogRun(ctx, RunInput{JourneyID: 1, Miles: 0}))
	assert.Zero(t, srv.Calls("POST /api/v1/runs"))
}

func TestApp_Cities(t *testing.T) {
	srv := journeytest.NewServer(t)
	a, out := newTestApp(t, srv)
	a.Cities()
	assert.Contains(t, out.String(), "charlotte-nc")
	assert.Contains(t, out.String(), "Charlotte, NC")
}

func TestApp_WatchReturnsWhenSessionExpires(t *testing.T) {
	srv := journeytest.NewServer(t)
	a, out := newTestApp(t, srv)
	a.cfg.MetricsAddr = "127.0.0.1:0"
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, a.Login(ctx, journeytest.Email, journeytest.Password))
	srv.RevokeToken()

	err := a.Watch(ctx)
	assert.True(t, api.IsAuthenticationRequired(err), "err = %v", err)
	assert.Contains(t, out.String(), "refresh failed")
	assert.NoError(t, ctx.Err())

	count, err := testutil.GatherAndCount(a.registry, "journey_client_requests_total")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 2)
}

func TestApp_WatchStopsOnCancel(t *testing.T) {
	srv := journeytest.NewServer(t)
	a, _ := newTestApp(t, srv)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, a.Login(ctx, journeytest.Email, journeytest.Password))

	errc := make(chan error, 1)
	go func() { errc <- a.Watch(ctx) }()
	require.Eventually(t, func() bool { return srv.Calls("GET /api/v1/journeys") >= 1 }, 5*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

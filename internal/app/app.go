package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/five82/journey/internal/api"
	"github.com/five82/journey/internal/cities"
	"github.com/five82/journey/internal/config"
	"github.com/five82/journey/internal/journey"
	"github.com/five82/journey/internal/logging"
	"github.com/five82/journey/internal/progress"
	"github.com/five82/journey/internal/state"
	"github.com/five82/journey/internal/tokenstore"
)

// Options configure the journey application.
type Options struct {
	ConfigPath string
	PollEvery  int       // seconds; zero uses the configured interval
	Out        io.Writer // nil uses stdout

	// Overrides, mainly for tests.
	Config *config.Config
	Logger *zap.Logger
	Tokens tokenstore.Store
}

// App is the composition root behind the CLI.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	closeLog func() error
	tokens   tokenstore.Store
	client   *api.Client
	cities   *cities.Graph
	registry *prometheus.Registry
	out      io.Writer
}

// New loads configuration and wires logging, the token store and the client.
func New(opts Options) (*App, error) {
	var cfg config.Config
	if opts.Config != nil {
		cfg = *opts.Config
	} else {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = time.Duration(opts.PollEvery) * time.Second
	}

	logger := opts.Logger
	closeLog := func() error {
		_ = logger.Sync()
		return nil
	}
	if logger == nil {
		l, closer, err := logging.New(cfg.Log)
		if err != nil {
			return nil, fmt.Errorf("init logging: %w", err)
		}
		logger, closeLog = l, closer
	}

	tokens := opts.Tokens
	if tokens == nil {
		t, err := tokenstore.Open(cfg.TokenStore)
		if err != nil {
			return nil, fmt.Errorf("open token store: %w", err)
		}
		tokens = t
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	client, err := api.NewClient(api.Options{
		BaseURL: cfg.APIURL,
		Store:   tokens,
		Logger:  logger,
		Metrics: api.NewMetrics(registry),
		Timeout: cfg.RequestTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("init api client: %w", err)
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &App{
		cfg:      cfg,
		logger:   logger,
		closeLog: closeLog,
		tokens:   tokens,
		client:   client,
		cities:   cities.Default(),
		registry: registry,
		out:      out,
	}, nil
}

// Close releases the token store connection, flushes logs and closes a file
// log output.
func (a *App) Close() error {
	var err error
	if c, ok := a.tokens.(io.Closer); ok {
		err = c.Close()
	}
	if cerr := a.closeLog(); cerr != nil && err == nil {
		err = fmt.Errorf("close log output: %w", cerr)
	}
	return err
}

// Login authenticates and persists the token.
func (a *App) Login(ctx context.Context, email, password string) error {
	if err := a.client.Login(ctx, email, password); err != nil {
		return err
	}
	a.printf("logged in as %s\n", email)
	return nil
}

// Logout forgets the stored token.
func (a *App) Logout(ctx context.Context) error {
	if err := a.client.Logout(ctx); err != nil {
		return err
	}
	a.printf("logged out\n")
	return nil
}

// Status reports the configured API and whether a token is stored. It makes
// no network call.
func (a *App) Status(ctx context.Context) error {
	token, err := a.tokens.Get(ctx)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	a.printf("api: %s\n", a.cfg.APIURL)
	a.printf("token store: %s\n", a.cfg.TokenStore.Backend)
	token = api.NormalizeToken(token)
	switch exp, ok := api.TokenExpiry(token); {
	case token == "":
		a.printf("session: logged out\n")
	case !ok:
		a.printf("session: logged in\n")
	case exp.Before(time.Now()):
		a.printf("session: logged in (token expired %s)\n", exp.Local().Format(time.RFC3339))
	default:
		a.printf("session: logged in (expires %s)\n", exp.Local().Format(time.RFC3339))
	}
	return nil
}

// Current prints the active journey.
func (a *App) Current(ctx context.Context) error {
	p, err := a.client.FetchCurrentJourney(ctx)
	if err != nil {
		return err
	}
	a.printProgress(p)
	return nil
}

// List prints journeys grouped into active and completed.
func (a *App) List(ctx context.Context) error {
	list, err := a.client.FetchAllJourneys(ctx)
	if err != nil {
		return err
	}
	groups := progress.Categorize(list)
	if len(groups.Active) == 0 && len(groups.Completed) == 0 {
		a.printf("no journeys\n")
		return nil
	}
	a.printGroup("Active", groups.Active)
	a.printGroup("Completed", groups.Completed)
	return nil
}

// Show prints one journey with progress.
func (a *App) Show(ctx context.Context, id int64) error {
	p, err := a.client.FetchJourneyProgress(ctx, id)
	if err != nil {
		return err
	}
	a.printProgress(p)
	return nil
}

// Location prints the interpolated position along a journey.
func (a *App) Location(ctx context.Context, id int64) error {
	loc, err := a.client.FetchProgressLocation(ctx, id)
	if err != nil {
		return err
	}
	a.printLocation(loc)
	return nil
}

// Cities prints the known cities.
func (a *App) Cities() {
	for _, c := range a.cities.Cities() {
		a.printf("%-16s %s\n", c.ID, c.Label())
	}
}

// Create starts a journey between two known cities.
func (a *App) Create(ctx context.Context, from, to, name string) error {
	req, err := a.cities.NewJourneyRequest(from, to, name)
	if err != nil {
		return err
	}
	if !a.cities.HasDistance(from, to) {
		a.logger.Warn("no distance for city pair; using fallback",
			zap.String("from", from),
			zap.String("to", to),
			zap.Float64("miles", cities.FallbackDistanceMiles),
		)
	}
	j, err := a.client.CreateJourney(ctx, req)
	if err != nil {
		return err
	}
	a.printf("created journey #%d %s (%.1f mi)\n", j.ID, j.Name, j.TotalDistanceMiles)
	return nil
}

// RunInput holds the fields of a run to log. An empty Date means today; a
// zero Mood is omitted.
type RunInput struct {
	JourneyID    int64
	Miles        float64
	Date         string
	Mood         int
	ActivityType string
}

// LogRun records a run and prints the journey's updated progress.
func (a *App) LogRun(ctx context.Context, in RunInput) error {
	req := journey.NewRunRequest(in.JourneyID, in.Miles, time.Now(), nil)
	if in.Date != "" {
		d, err := journey.ParseDate(in.Date)
		if err != nil {
			return err
		}
		req.Date = d
	}
	if in.Mood != 0 {
		mood := in.Mood
		req.MoodRating = &mood
	}
	if in.ActivityType != "" {
		req.ActivityType = in.ActivityType
	}

	run, err := a.client.CreateRun(ctx, req)
	if err != nil {
		return err
	}
	a.printf("logged %.1f mi on %s\n", run.DistanceMiles, run.Date.Format("2006-01-02"))

	p, err := a.client.FetchJourneyProgress(ctx, in.JourneyID)
	if err != nil {
		// The run is already recorded.
		a.logger.Warn("fetch progress after run failed", zap.Int64("journey_id", in.JourneyID), zap.Error(err))
		return nil
	}
	a.printProgress(p)
	return nil
}

// Delete removes a journey.
func (a *App) Delete(ctx context.Context, id int64) error {
	if err := a.client.DeleteJourney(ctx, id); err != nil {
		return err
	}
	a.printf("deleted journey #%d\n", id)
	return nil
}

// Watch polls the API until ctx is cancelled or the session expires, printing
// each refresh. When metrics_addr is set the client metrics are served on
// /metrics for the duration.
func (a *App) Watch(ctx context.Context) error {
	if a.cfg.MetricsAddr != "" {
		stop, err := a.serveMetrics()
		if err != nil {
			return err
		}
		defer stop()
	}

	store := &state.Store{}
	done := StartPoller(ctx, store, a.client, a.cfg.PollInterval, a.logger)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	var last time.Time
	report := func() {
		snap := store.Snapshot()
		if snap.LastUpdated.IsZero() || snap.LastUpdated.Equal(last) {
			return
		}
		last = snap.LastUpdated
		a.printSnapshot(snap)
	}

	for {
		select {
		case <-ctx.Done():
			<-done
			return nil
		case <-done:
			report()
			if err := store.Snapshot().LastError; api.IsAuthenticationRequired(err) {
				return err
			}
			return nil
		case <-ticker.C:
			report()
		}
	}
}

func (a *App) serveMetrics() (func(), error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              a.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	// Surface bind failures before polling starts.
	select {
	case err := <-errc:
		return nil, fmt.Errorf("serve metrics on %s: %w", a.cfg.MetricsAddr, err)
	case <-time.After(100 * time.Millisecond):
	}
	a.logger.Info("serving metrics", zap.String("addr", a.cfg.MetricsAddr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Warn("metrics server shutdown", zap.Error(err))
		}
	}, nil
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

func (a *App) printGroup(title string, list []journey.Journey) {
	if len(list) == 0 {
		return
	}
	a.printf("%s:\n", title)
	for _, j := range list {
		a.printf("  #%d %s (%s → %s, %.1f mi)\n", j.ID, j.Name, j.StartLabel, j.DestLabel, j.TotalDistanceMiles)
	}
}

func (a *App) printProgress(p journey.JourneyProgress) {
	a.printf("#%d %s [%s]\n", p.ID, p.Name, p.Status)
	a.printf("  %s → %s\n", p.StartLabel, p.DestLabel)
	a.printf("  %.1f of %.1f mi (%.1f%%), %.1f mi to go\n",
		p.DistanceCompletedMiles, p.TotalDistanceMiles, progress.Percent(p)*100, progress.DistanceRemaining(p))
	if p.LastActivityDate != nil {
		a.printf("  last activity %s\n", p.LastActivityDate.Format("2006-01-02"))
	}
}

func (a *App) printLocation(loc journey.ProgressLocation) {
	a.printf("#%d at %.5f, %.5f (%.1f mi, %.1f%%)\n",
		loc.JourneyID, loc.CurrentLat, loc.CurrentLng, loc.DistanceCompletedMiles, progress.LocationPercent(loc)*100)
}

func (a *App) printSnapshot(snap state.Snapshot) {
	stamp := snap.LastUpdated.Format(time.TimeOnly)
	if snap.LastError != nil {
		suffix := ""
		if snap.IsOffline() {
			suffix = " (offline)"
		}
		a.printf("%s refresh failed%s: %v\n", stamp, suffix, snap.LastError)
		return
	}
	groups := progress.Categorize(snap.Journeys)
	a.printf("%s %d active, %d completed\n", stamp, len(groups.Active), len(groups.Completed))
	for _, j := range groups.Active {
		p, ok := snap.ProgressFor(j.ID)
		if !ok {
			continue
		}
		a.printf("  #%d %s %.1f%% (%.1f mi to go)", j.ID, j.Name, progress.Percent(p)*100, progress.DistanceRemaining(p))
		if loc, ok := snap.Locations[j.ID]; ok {
			a.printf(" at %.5f, %.5f", loc.CurrentLat, loc.CurrentLng)
		}
		a.printf("\n")
	}
}

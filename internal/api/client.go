package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/five82/journey/internal/journey"
	"github.com/five82/journey/internal/tokenstore"
)

// JourneyService is the authenticated surface of the API.
// This interface is implemented by *Client and can be used for testing.
type JourneyService interface {
	FetchCurrentJourney(ctx context.Context) (journey.JourneyProgress, error)
	FetchAllJourneys(ctx context.Context) ([]journey.Journey, error)
	FetchJourneyProgress(ctx context.Context, id int64) (journey.JourneyProgress, error)
	FetchProgressLocation(ctx context.Context, id int64) (journey.ProgressLocation, error)
	CreateJourney(ctx context.Context, req journey.JourneyCreateRequest) (journey.Journey, error)
	CreateRun(ctx context.Context, req journey.RunCreateRequest) (journey.Run, error)
	DeleteJourney(ctx context.Context, id int64) error
}

// Ensure Client implements JourneyService at compile time.
var _ JourneyService = (*Client)(nil)

const (
	defaultAPIURL    = "127.0.0.1:8000"
	defaultUserAgent = "journey/0.1"
	apiPrefix        = "/api/v1"
	requestTimeout   = 15 * time.Second
	maxBodyBytes     = 4 << 20
)

// Options configure a Client. Store is required.
type Options struct {
	BaseURL   string
	Store     tokenstore.Store
	Logger    *zap.Logger
	Metrics   *Metrics
	Timeout   time.Duration
	UserAgent string
	Transport http.RoundTripper
}

// Client talks to the journey HTTP API.
type Client struct {
	baseURL   *url.URL
	store     tokenstore.Store
	session   *Session
	http      *http.Client
	live      *http.Client
	logger    *zap.Logger
	metrics   *Metrics
	userAgent string
}

// NewClient builds a Client. Reads of live progress go through a second
// http.Client that asks every cache on the path to revalidate.
func NewClient(opts Options) (*Client, error) {
	if opts.Store == nil {
		return nil, errors.New("token store is required")
	}
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = requestTimeout
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	redirect := PreserveHeaders(headerAuthorization, "Content-Type", "Accept", "X-Request-ID")
	return &Client{
		baseURL: base,
		store:   opts.Store,
		session: NewSession(opts.Store),
		http: &http.Client{
			Timeout:       timeout,
			Transport:     transport,
			CheckRedirect: redirect,
		},
		live: &http.Client{
			Timeout:       timeout,
			Transport:     noCacheTransport{base: transport},
			CheckRedirect: redirect,
		},
		logger:    logger.Named("api"),
		metrics:   opts.Metrics,
		userAgent: userAgent,
	}, nil
}

// Login exchanges credentials for a token and stores it. The request is sent
// without an Authorization header.
func (c *Client) Login(ctx context.Context, email, password string) (err error) {
	start := time.Now()
	defer func() { c.metrics.observe("login", err, time.Since(start)) }()

	if strings.TrimSpace(email) == "" || password == "" {
		return errors.New("email and password are required")
	}
	payload, err := json.Marshal(map[string]string{"email": strings.TrimSpace(email), "password": password})
	if err != nil {
		return fmt.Errorf("encode login: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/login", payload)
	if err != nil {
		return err
	}
	status, body, err := c.execute(c.http, req)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return &ServerError{StatusCode: status, Message: journey.DecodeServerMessage(body)}
	}
	raw, err := journey.ExtractToken(body)
	token := NormalizeToken(raw)
	if err != nil || token == "" {
		return &ServerError{StatusCode: status, Message: journey.ErrNoToken.Error()}
	}
	if err := c.store.Set(ctx, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	fields := []zap.Field{zap.String("email", strings.TrimSpace(email))}
	if exp, ok := TokenExpiry(token); ok {
		fields = append(fields, zap.Time("expires", exp))
	}
	c.logger.Info("logged in", fields...)
	return nil
}

// Logout forgets the stored token. No request is sent.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// FetchCurrentJourney retrieves the user's current journey with progress.
func (c *Client) FetchCurrentJourney(ctx context.Context) (journey.JourneyProgress, error) {
	p, err := fetch(ctx, c, "current_journey", c.live, http.MethodGet, "/journeys/current", nil, journey.DecodeJourneyProgress)
	if err == nil {
		c.checkCompletion("current_journey", p.Journey)
	}
	return p, err
}

// FetchAllJourneys retrieves every journey in server order.
func (c *Client) FetchAllJourneys(ctx context.Context) ([]journey.Journey, error) {
	list, err := fetch(ctx, c, "list_journeys", c.http, http.MethodGet, "/journeys", nil, journey.DecodeJourneys)
	if err == nil {
		c.checkCompletion("list_journeys", list...)
	}
	return list, err
}

// FetchJourneyProgress retrieves one journey with progress.
func (c *Client) FetchJourneyProgress(ctx context.Context, id int64) (journey.JourneyProgress, error) {
	if err := checkID(id); err != nil {
		return journey.JourneyProgress{}, err
	}
	p, err := fetch(ctx, c, "journey_progress", c.live, http.MethodGet, journeyPath(id), nil, journey.DecodeJourneyProgress)
	if err == nil {
		c.checkCompletion("journey_progress", p.Journey)
	}
	return p, err
}

// FetchProgressLocation retrieves the interpolated position along a journey.
func (c *Client) FetchProgressLocation(ctx context.Context, id int64) (journey.ProgressLocation, error) {
	if err := checkID(id); err != nil {
		return journey.ProgressLocation{}, err
	}
	return fetch(ctx, c, "progress_location", c.live, http.MethodGet, journeyPath(id)+"/progress-location", nil, journey.DecodeProgressLocation)
}

// CreateJourney creates a journey from validated request fields.
func (c *Client) CreateJourney(ctx context.Context, req journey.JourneyCreateRequest) (journey.Journey, error) {
	if err := req.Validate(); err != nil {
		return journey.Journey{}, err
	}
	j, err := fetch(ctx, c, "create_journey", c.http, http.MethodPost, "/journeys", req, journey.DecodeJourney)
	if err == nil {
		c.checkCompletion("create_journey", j)
	}
	return j, err
}

// CreateRun logs a run against a journey.
func (c *Client) CreateRun(ctx context.Context, req journey.RunCreateRequest) (journey.Run, error) {
	if err := req.Validate(); err != nil {
		return journey.Run{}, err
	}
	return fetch(ctx, c, "create_run", c.http, http.MethodPost, "/runs", req, journey.DecodeRun)
}

// DeleteJourney removes a journey. The response body is ignored.
func (c *Client) DeleteJourney(ctx context.Context, id int64) error {
	if err := checkID(id); err != nil {
		return err
	}
	_, err := fetch(ctx, c, "delete_journey", c.http, http.MethodDelete, journeyPath(id), nil, func([]byte) (struct{}, error) {
		return struct{}{}, nil
	})
	return err
}

// checkCompletion logs journeys whose completion time contradicts their status.
// The server is authoritative, so they are returned unchanged.
func (c *Client) checkCompletion(op string, journeys ...journey.Journey) {
	for _, j := range journeys {
		if err := j.CheckCompletion(); err != nil {
			c.logger.Warn("journey status disagrees with completed_at",
				zap.String("operation", op),
				zap.Int64("journey_id", j.ID),
				zap.Error(err))
		}
	}
}

func checkID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("journey id must be positive, got %d", id)
	}
	return nil
}

func journeyPath(id int64) string {
	return fmt.Sprintf("/journeys/%d", id)
}

// fetch runs an authenticated request and decodes a 2xx body.
func fetch[T any](ctx context.Context, c *Client, op string, hc *http.Client, method, path string, body any, decode func([]byte) (T, error)) (result T, err error) {
	start := time.Now()
	defer func() { c.metrics.observe(op, err, time.Since(start)) }()

	var payload []byte
	if body != nil {
		if payload, err = json.Marshal(body); err != nil {
			return result, fmt.Errorf("encode %s: %w", op, err)
		}
	}
	req, err := c.newRequest(ctx, method, path, payload)
	if err != nil {
		return result, err
	}
	if err := c.session.Authorize(ctx, req); err != nil {
		return result, err
	}
	status, data, err := c.execute(hc, req)
	if err != nil {
		return result, err
	}
	switch {
	case status == http.StatusUnauthorized:
		c.expireSession(ctx, op, req.Header.Get(headerAuthorization))
		return result, &AuthenticationRequiredError{Message: journey.DecodeServerMessage(data)}
	case status < 200 || status > 299:
		return result, &ServerError{StatusCode: status, Message: journey.DecodeServerMessage(data)}
	}
	return decode(data)
}

// expireSession applies the 401 policy: the token that was sent is cleared.
// A token stored since the request went out (a concurrent login) is kept.
func (c *Client) expireSession(ctx context.Context, op, sent string) {
	ctx = context.WithoutCancel(ctx)
	current, err := c.session.Header(ctx)
	if err == nil && current != sent {
		c.logger.Info("server rejected a superseded token; keeping the current one", zap.String("operation", op))
		return
	}
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn("clear token after 401 failed", zap.String("operation", op), zap.Error(err))
		return
	}
	c.logger.Warn("server rejected token; logged out", zap.String("operation", op))
}

func (c *Client) newRequest(ctx context.Context, method, path string, payload []byte) (*http.Request, error) {
	reqURL := *c.baseURL
	reqURL.Path = strings.TrimRight(c.baseURL.Path, "/") + apiPrefix + path
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

// execute sends req and reads the whole body. Only transport failures return
// an error; every HTTP status is handed back to the caller.
func (c *Client) execute(hc *http.Client, req *http.Request) (int, []byte, error) {
	op := req.Method + " " + req.URL.Path
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return 0, nil, &NetworkError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, &NetworkError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}
	c.logger.Debug("api request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("request_id", req.Header.Get("X-Request-ID")),
	)
	return resp.StatusCode, data, nil
}

// noCacheTransport marks every request as uncacheable.
type noCacheTransport struct {
	base http.RoundTripper
}

func (t noCacheTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Cache-Control", "no-cache")
	clone.Header.Set("Pragma", "no-cache")
	return t.base.RoundTrip(clone)
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_url %q: missing host", raw)
	}
	u.Path = strings.TrimSuffix(strings.TrimRight(u.Path, "/"), apiPrefix)
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

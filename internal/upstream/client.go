package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/angeloszaimis/callchain/internal/lifecycle"
)

const (
	EchoPath   = "/echo"
	HealthPath = "/health"

	DefaultName    = "Service A"
	DefaultTimeout = 2 * time.Second

	maxBodyBytes = 1 << 20
)

// Observer is told about every finished forwarding call.
type Observer interface {
	ObserveForward(state State, elapsed time.Duration)
}

// Options configures a Client. Zero values fall back to the defaults.
type Options struct {
	Name       string
	Timeout    time.Duration
	Logger     *slog.Logger
	Observer   Observer
	HTTPClient *http.Client
}

// Client forwards requests to a single upstream. The base URL, name and
// timeout are fixed at construction and shared read-only by all requests.
type Client struct {
	baseURL    *url.URL
	name       string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
	observer   Observer

	mutex   sync.Mutex
	healthy bool
}

// New creates a Client for baseURL. The upstream starts out as healthy.
func New(baseURL *url.URL, opts Options) *Client {
	c := &Client{
		baseURL:    baseURL,
		name:       opts.Name,
		timeout:    opts.Timeout,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		observer:   opts.Observer,
		healthy:    true,
	}

	if c.name == "" {
		c.name = DefaultName
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// Name returns the display name used in client-visible errors.
func (c *Client) Name() string {
	return c.name
}

// URL returns the upstream base URL.
func (c *Client) URL() *url.URL {
	return c.baseURL
}

// Timeout returns the bound applied to each call.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// EchoURL builds the upstream echo URL for msg.
func (c *Client) EchoURL(msg string) string {
	u := c.baseURL.JoinPath(EchoPath)
	u.RawQuery = url.Values{"msg": []string{msg}}.Encode()
	return u.String()
}

// Forward calls the upstream echo endpoint once. Cancellation of ctx is not
// propagated to the call, only its values are; the call is bounded by the
// client timeout alone. The caller is expected to have rejected an empty msg.
func (c *Client) Forward(ctx context.Context, msg string) Result {
	target := c.EchoURL(msg)
	start := time.Now()

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	log := c.logger.With(slog.String("url", target))
	if rc, ok := lifecycle.FromContext(ctx); ok {
		log = log.With(slog.String("request_id", rc.ID))
	}

	var fc call
	fc.advance(StateInFlight)
	log.Info(fmt.Sprintf("Calling %s", c.name),
		slog.Duration("timeout", c.timeout),
		slog.String("state", fc.state.String()))

	res := c.do(callCtx, target)
	elapsed := time.Since(start)
	fc.advance(res.State())

	switch r := res.(type) {
	case Success:
		log.Info(fmt.Sprintf("%s call successful", c.name),
			slog.Int("status", r.StatusCode),
			slog.String("state", fc.state.String()),
			slog.Duration("elapsed", elapsed))
	case Unavailable:
		log.Error(r.Detail,
			slog.String("reason", r.Reason.String()),
			slog.String("state", fc.state.String()),
			slog.Duration("elapsed", elapsed))
	}

	if c.observer != nil {
		c.observer.ObserveForward(fc.state, elapsed)
	}

	return res
}

func (c *Client) do(ctx context.Context, target string) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return c.unavailable(ReasonOtherRequestError, err)
	}
	req.Header.Set("Accept", "application/json")
	if rc, ok := lifecycle.FromContext(ctx); ok {
		req.Header.Set(lifecycle.RequestIDHeader, rc.ID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.unavailable(classify(ctx, err), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return c.unavailable(classify(ctx, err), err)
	}

	if len(data) > maxBodyBytes {
		return c.unavailable(ReasonOtherRequestError,
			fmt.Errorf("response body exceeds %d bytes", maxBodyBytes))
	}

	if !json.Valid(data) {
		return c.unavailable(ReasonOtherRequestError,
			errors.New("response body is not valid JSON"))
	}

	return Success{
		StatusCode: resp.StatusCode,
		Body:       json.RawMessage(data),
	}
}

func (c *Client) unavailable(reason Reason, err error) Unavailable {
	var detail string

	switch reason {
	case ReasonTimeout:
		detail = fmt.Sprintf("Timeout calling %s after %ss", c.name, formatSeconds(c.timeout))
	case ReasonConnectionFailure:
		detail = fmt.Sprintf("Connection error: %v", err)
	default:
		detail = fmt.Sprintf("Request error: %v", err)
	}

	return Unavailable{Reason: reason, Detail: detail}
}

// formatSeconds renders d in seconds, keeping one decimal for whole values
// (2s -> "2.0", 50ms -> "0.05").
func formatSeconds(d time.Duration) string {
	s := strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

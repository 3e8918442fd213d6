package loadtest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angeloszaimis/callchain/internal/lifecycle"
)

const (
	DefaultConcurrency = 10
	DefaultRequests    = 100
	DefaultTimeout     = 10 * time.Second

	maxBodyBytes = 64 << 10
)

type Options struct {
	URL         string
	Concurrency int
	Requests    int
	Timeout     time.Duration

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// Result describes one request. Status is zero when no response arrived.
type Result struct {
	Index     int
	Timestamp time.Time
	RequestID string
	Status    int
	Duration  time.Duration
	Detail    string
	Err       error
}

func (r Result) Succeeded() bool {
	return r.Err == nil && r.Status >= 200 && r.Status <= 299
}

// Run sends opts.Requests requests from opts.Concurrency workers. Requests
// not yet started when ctx is cancelled are skipped.
func Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.URL == "" {
		return nil, errors.New("target url is required")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Requests <= 0 {
		opts.Requests = DefaultRequests
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	results := make([]Result, opts.Requests)
	jobs := make(chan int)
	var wg sync.WaitGroup

	start := time.Now()

	for i := 0; i < opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = send(ctx, client, opts.URL, idx)
			}
		}()
	}

	sent := 0
dispatch:
	for ; sent < opts.Requests; sent++ {
		select {
		case jobs <- sent:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	return newReport(opts, results[:sent], time.Since(start)), nil
}

func send(ctx context.Context, client *http.Client, target string, idx int) Result {
	res := Result{
		Index:     idx,
		Timestamp: time.Now(),
		RequestID: uuid.NewString(),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		res.Err = err
		return res
	}
	req.Header.Set(lifecycle.RequestIDHeader, res.RequestID)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		res.Duration = time.Since(start)
		res.Err = err
		return res
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	res.Duration = time.Since(start)
	res.Status = resp.StatusCode

	if resp.StatusCode == http.StatusServiceUnavailable {
		res.Detail = detailKind(body)
	}

	return res
}

// detailKind reduces an unavailability body to the part of its details
// before the first colon, e.g. "Connection error".
func detailKind(body []byte) string {
	var payload struct {
		Details string `json:"details"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Details == "" {
		return "unknown"
	}

	kind, _, _ := strings.Cut(payload.Details, ":")
	return strings.TrimSpace(kind)
}

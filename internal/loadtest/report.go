package loadtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"
)

type LatencySummary struct {
	Samples int     `json:"samples"`
	MinMs   float64 `json:"min_ms"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	P50Ms   float64 `json:"p50_ms"`
	P90Ms   float64 `json:"p90_ms"`
	P95Ms   float64 `json:"p95_ms"`
	P99Ms   float64 `json:"p99_ms"`
}

type Report struct {
	Target        string         `json:"target"`
	Requests      int            `json:"requests"`
	Concurrency   int            `json:"concurrency"`
	TotalSent     int            `json:"total_sent"`
	Success       int            `json:"success"`
	Failure       int            `json:"failure"`
	DurationMs    int64          `json:"duration_ms"`
	ThroughputRPS float64        `json:"throughput_rps"`
	StatusCodes   map[int]int    `json:"status_codes"`
	Unavailable   map[string]int `json:"unavailable,omitempty"`
	Errors        int            `json:"transport_errors"`
	Latency       LatencySummary `json:"latency"`

	results []Result
}

func newReport(opts Options, results []Result, elapsed time.Duration) *Report {
	r := &Report{
		Target:      opts.URL,
		Requests:    opts.Requests,
		Concurrency: opts.Concurrency,
		TotalSent:   len(results),
		DurationMs:  elapsed.Milliseconds(),
		StatusCodes: make(map[int]int),
		Unavailable: make(map[string]int),
		results:     results,
	}

	latencies := make([]time.Duration, 0, len(results))
	for _, res := range results {
		latencies = append(latencies, res.Duration)

		if res.Succeeded() {
			r.Success++
		} else {
			r.Failure++
		}

		if res.Err != nil {
			r.Errors++
			continue
		}

		r.StatusCodes[res.Status]++
		if res.Detail != "" {
			r.Unavailable[res.Detail]++
		}
	}

	if elapsed > 0 {
		r.ThroughputRPS = float64(len(results)) / elapsed.Seconds()
	}
	r.Latency = summarize(latencies)

	return r
}

// Results returns the per-request outcomes in dispatch order.
func (r *Report) Results() []Result {
	return r.results
}

func summarize(latencies []time.Duration) LatencySummary {
	if len(latencies) == 0 {
		return LatencySummary{}
	}

	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}

	pick := func(p float64) float64 {
		return ms(sorted[int(float64(len(sorted)-1)*p)])
	}

	return LatencySummary{
		Samples: len(sorted),
		MinMs:   ms(sorted[0]),
		AvgMs:   ms(sum / time.Duration(len(sorted))),
		MaxMs:   ms(sorted[len(sorted)-1]),
		P50Ms:   pick(0.50),
		P90Ms:   pick(0.90),
		P95Ms:   pick(0.95),
		P99Ms:   pick(0.99),
	}
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

// WriteText prints a human readable summary.
func (r *Report) WriteText(w io.Writer) error {
	var err error
	printf := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	printf("--- Load Test Summary ---\n")
	printf("Target: %s\n", r.Target)
	printf("Requests: %d  Concurrency: %d\n", r.Requests, r.Concurrency)
	printf("Total sent: %d  Success: %d  Failure: %d  Transport errors: %d\n", r.TotalSent, r.Success, r.Failure, r.Errors)
	printf("Duration: %dms  Throughput: %.2f req/s\n", r.DurationMs, r.ThroughputRPS)

	printf("\nStatus codes:\n")
	codes := make([]int, 0, len(r.StatusCodes))
	for code := range r.StatusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		printf("  %d -> %d\n", code, r.StatusCodes[code])
	}

	if len(r.Unavailable) > 0 {
		printf("\nUnavailable details:\n")
		kinds := make([]string, 0, len(r.Unavailable))
		for kind := range r.Unavailable {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			printf("  %s -> %d\n", kind, r.Unavailable[kind])
		}
	}

	l := r.Latency
	printf("\nLatencies:\n")
	printf("  samples=%d min=%.3fms avg=%.3fms max=%.3fms p50=%.3fms p90=%.3fms p95=%.3fms p99=%.3fms\n",
		l.Samples, l.MinMs, l.AvgMs, l.MaxMs, l.P50Ms, l.P90Ms, l.P95Ms, l.P99Ms)

	return err
}

// WriteCSV writes one row per request.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"idx", "timestamp", "request_id", "status", "duration_ms", "detail", "error"}); err != nil {
		return err
	}

	for _, res := range r.results {
		errText := ""
		if res.Err != nil {
			errText = res.Err.Error()
		}

		row := []string{
			strconv.Itoa(res.Index),
			res.Timestamp.Format(time.RFC3339Nano),
			res.RequestID,
			strconv.Itoa(res.Status),
			strconv.FormatFloat(ms(res.Duration), 'f', 3, 64),
			res.Detail,
			errText,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

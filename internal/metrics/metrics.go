package metrics

import (
	"sort"
	"sync"
	"time"
)

const maxSamples = 1000

type Metrics struct {
	mutex         sync.RWMutex
	requests      map[string]int64
	responseTimes map[string][]time.Duration
	statusCodes   map[string]map[int]int64
	forwards      map[string]int64
	forwardTimes  []time.Duration
	upstreamSeen  bool
	upstreamUp    bool
	startTime     time.Time
}

type Snapshot struct {
	Node          string                  `json:"node"`
	TotalRequests int64                   `json:"total_requests"`
	Uptime        time.Duration           `json:"uptime"`
	Routes        map[string]RouteMetrics `json:"routes"`
	Upstream      *UpstreamMetrics        `json:"upstream,omitempty"`
}

type RouteMetrics struct {
	Requests    int64         `json:"requests"`
	AvgResponse time.Duration `json:"avg_response"`
	P50Response time.Duration `json:"p50_response"`
	P95Response time.Duration `json:"p95_response"`
	P99Response time.Duration `json:"p99_response"`
	StatusCodes map[int]int64 `json:"status_codes"`
}

type UpstreamMetrics struct {
	Calls       int64            `json:"calls"`
	Outcomes    map[string]int64 `json:"outcomes"`
	AvgResponse time.Duration    `json:"avg_response"`
	P95Response time.Duration    `json:"p95_response"`
	Healthy     *bool            `json:"healthy,omitempty"`
}

func (m *Metrics) RecordRequest(route string, duration time.Duration, statusCode int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.requests[route]++
	m.responseTimes[route] = appendSample(m.responseTimes[route], duration)

	if m.statusCodes[route] == nil {
		m.statusCodes[route] = make(map[int]int64)
	}
	m.statusCodes[route][statusCode]++
}

func (m *Metrics) RecordForward(outcome string, duration time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.forwards[outcome]++
	m.forwardTimes = appendSample(m.forwardTimes, duration)
}

func (m *Metrics) UpdateUpstreamHealth(healthy bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.upstreamSeen = true
	m.upstreamUp = healthy
}

func (m *Metrics) Snapshot(node string) Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Node:   node,
		Uptime: time.Since(m.startTime),
		Routes: make(map[string]RouteMetrics, len(m.requests)),
	}

	for route, count := range m.requests {
		snap.TotalRequests += count

		codes := make(map[int]int64, len(m.statusCodes[route]))
		for code, n := range m.statusCodes[route] {
			codes[code] = n
		}

		rm := RouteMetrics{
			Requests:    count,
			StatusCodes: codes,
		}

		if sorted := sortedCopy(m.responseTimes[route]); len(sorted) > 0 {
			rm.AvgResponse = average(sorted)
			rm.P50Response = percentile(sorted, 0.50)
			rm.P95Response = percentile(sorted, 0.95)
			rm.P99Response = percentile(sorted, 0.99)
		}

		snap.Routes[route] = rm
	}

	if len(m.forwards) > 0 || m.upstreamSeen {
		um := &UpstreamMetrics{Outcomes: make(map[string]int64, len(m.forwards))}
		for outcome, n := range m.forwards {
			um.Outcomes[outcome] = n
			um.Calls += n
		}

		if sorted := sortedCopy(m.forwardTimes); len(sorted) > 0 {
			um.AvgResponse = average(sorted)
			um.P95Response = percentile(sorted, 0.95)
		}

		if m.upstreamSeen {
			healthy := m.upstreamUp
			um.Healthy = &healthy
		}

		snap.Upstream = um
	}

	return snap
}

func NewMetrics() *Metrics {
	return &Metrics{
		requests:      make(map[string]int64),
		responseTimes: make(map[string][]time.Duration),
		statusCodes:   make(map[string]map[int]int64),
		forwards:      make(map[string]int64),
		startTime:     time.Now(),
	}
}

func appendSample(samples []time.Duration, d time.Duration) []time.Duration {
	samples = append(samples, d)
	if len(samples) > maxSamples {
		samples = samples[1:]
	}
	return samples
}

func sortedCopy(durations []time.Duration) []time.Duration {
	if len(durations) == 0 {
		return nil
	}

	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	return sorted
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}

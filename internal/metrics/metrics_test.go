package metrics_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/callchain/internal/metrics"
)

var _ = Describe("Metrics", func() {
	var m *metrics.Metrics

	BeforeEach(func() {
		m = metrics.NewMetrics()
	})

	Describe("RecordRequest", func() {
		It("should count requests per route", func() {
			m.RecordRequest("/echo", 10*time.Millisecond, 200)
			m.RecordRequest("/echo", 20*time.Millisecond, 200)
			m.RecordRequest("/health", time.Millisecond, 200)

			snap := m.Snapshot("echo")
			Expect(snap.Node).To(Equal("echo"))
			Expect(snap.TotalRequests).To(Equal(int64(3)))
			Expect(snap.Routes["/echo"].Requests).To(Equal(int64(2)))
			Expect(snap.Routes["/health"].Requests).To(Equal(int64(1)))
		})

		It("should track status codes and average latency", func() {
			m.RecordRequest("/call-echo", 100*time.Millisecond, 200)
			m.RecordRequest("/call-echo", 200*time.Millisecond, 400)
			m.RecordRequest("/call-echo", 300*time.Millisecond, 503)

			route := m.Snapshot("gateway").Routes["/call-echo"]
			Expect(route.AvgResponse).To(Equal(200 * time.Millisecond))
			Expect(route.StatusCodes).To(Equal(map[int]int64{200: 1, 400: 1, 503: 1}))
		})

		It("should calculate percentiles", func() {
			for i := 1; i <= 100; i++ {
				m.RecordRequest("/echo", time.Duration(i)*time.Millisecond, 200)
			}

			route := m.Snapshot("echo").Routes["/echo"]
			Expect(route.P50Response).To(BeNumerically("~", 50*time.Millisecond, time.Millisecond))
			Expect(route.P95Response).To(BeNumerically("~", 95*time.Millisecond, time.Millisecond))
			Expect(route.P99Response).To(BeNumerically("~", 99*time.Millisecond, time.Millisecond))
		})

		It("should keep only the most recent samples", func() {
			for i := 1; i <= 1500; i++ {
				m.RecordRequest("/echo", time.Duration(i)*time.Millisecond, 200)
			}

			route := m.Snapshot("echo").Routes["/echo"]
			Expect(route.Requests).To(Equal(int64(1500)))
			Expect(route.AvgResponse).To(BeNumerically(">", 500*time.Millisecond))
		})
	})

	Describe("RecordForward", func() {
		It("should count outcomes and latency", func() {
			m.RecordForward("succeeded", 10*time.Millisecond)
			m.RecordForward("succeeded", 30*time.Millisecond)
			m.RecordForward("timed_out", 2*time.Second)

			up := m.Snapshot("gateway").Upstream
			Expect(up).NotTo(BeNil())
			Expect(up.Calls).To(Equal(int64(3)))
			Expect(up.Outcomes).To(Equal(map[string]int64{"succeeded": 2, "timed_out": 1}))
			Expect(up.P95Response).To(Equal(2 * time.Second))
			Expect(up.Healthy).To(BeNil())
		})
	})

	Describe("UpdateUpstreamHealth", func() {
		It("should expose the last probe result", func() {
			m.UpdateUpstreamHealth(true)
			m.UpdateUpstreamHealth(false)

			up := m.Snapshot("gateway").Upstream
			Expect(up).NotTo(BeNil())
			Expect(up.Healthy).To(HaveValue(BeFalse()))
			Expect(up.Calls).To(BeZero())
		})
	})

	Describe("Snapshot", func() {
		It("should handle empty metrics", func() {
			snap := m.Snapshot("echo")

			Expect(snap.TotalRequests).To(BeZero())
			Expect(snap.Routes).To(BeEmpty())
			Expect(snap.Upstream).To(BeNil())
		})

		It("should include uptime", func() {
			time.Sleep(5 * time.Millisecond)
			Expect(m.Snapshot("echo").Uptime).To(BeNumerically(">", 0))
		})

		It("should return independent snapshots", func() {
			m.RecordRequest("/echo", time.Millisecond, 200)
			snap1 := m.Snapshot("echo")

			m.RecordRequest("/echo", time.Millisecond, 200)
			snap2 := m.Snapshot("echo")

			Expect(snap1.TotalRequests).To(Equal(int64(1)))
			Expect(snap1.Routes["/echo"].StatusCodes[200]).To(Equal(int64(1)))
			Expect(snap2.TotalRequests).To(Equal(int64(2)))
		})
	})
})

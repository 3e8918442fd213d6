package handler_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
	"github.com/onsi/gomega/ghttp"

	"github.com/angeloszaimis/callchain/internal/handler"
	"github.com/angeloszaimis/callchain/internal/upstream"
)

type stubForwarder struct {
	calls  atomic.Int32
	last   atomic.Value
	result upstream.Result
}

func (f *stubForwarder) Forward(ctx context.Context, msg string) upstream.Result {
	f.calls.Add(1)
	f.last.Store(msg)
	return f.result
}

func (f *stubForwarder) Name() string { return "Service A" }

var _ = Describe("GatewayHandler", func() {
	var (
		logBuf *gbytes.Buffer
		log    *slog.Logger
	)

	BeforeEach(func() {
		logBuf = gbytes.NewBuffer()
		log = slog.New(slog.NewTextHandler(logBuf, nil))
	})

	callEcho := func(h *handler.GatewayHandler, target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		h.CallEcho(w, httptest.NewRequest(http.MethodGet, target, nil))
		return w
	}

	Describe("Health", func() {
		It("should report ok regardless of the upstream", func() {
			fwd := &stubForwarder{}
			h := handler.NewGatewayHandler(log, fwd)

			w := httptest.NewRecorder()
			h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`{"status":"ok"}`))
			Expect(fwd.calls.Load()).To(BeZero())
		})
	})

	Describe("CallEcho with a stub forwarder", func() {
		It("should reject a missing msg without forwarding", func() {
			fwd := &stubForwarder{}
			h := handler.NewGatewayHandler(log, fwd)

			for _, target := range []string{"/call-echo", "/call-echo?msg="} {
				w := callEcho(h, target)

				Expect(w.Code).To(Equal(http.StatusBadRequest))
				Expect(w.Header().Get("Content-Type")).To(Equal("application/json"))
				Expect(w.Body.String()).To(MatchJSON(`{"error":"Missing 'msg' parameter"}`))
			}

			Expect(fwd.calls.Load()).To(BeZero())
			Expect(logBuf).To(gbytes.Say("Missing 'msg' parameter"))
		})

		It("should wrap a successful echo", func() {
			fwd := &stubForwarder{result: upstream.Success{StatusCode: 200, Body: []byte(`{"echo":"hi"}`)}}
			h := handler.NewGatewayHandler(log, fwd)

			w := callEcho(h, "/call-echo?msg=hi")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`{"msg":"hi","echo_response":{"echo":"hi"}}`))
			Expect(fwd.calls.Load()).To(Equal(int32(1)))
		})

		DescribeTable("should forward raw query values as sent",
			func(target, msg string) {
				fwd := &stubForwarder{result: upstream.Success{StatusCode: 200, Body: []byte(`{"echo":"x"}`)}}
				h := handler.NewGatewayHandler(log, fwd)

				w := callEcho(h, target)

				Expect(w.Code).To(Equal(http.StatusOK))
				Expect(fwd.calls.Load()).To(Equal(int32(1)))
				Expect(fwd.last.Load()).To(Equal(msg))
			},
			Entry("raw semicolon", "/call-echo?msg=a;b", "a;b"),
			Entry("stray percent", "/call-echo?msg=100%", "100%"),
			Entry("invalid escape", "/call-echo?msg=%zz", "%zz"),
		)

		DescribeTable("should map every unavailable reason to one 503 shape",
			func(reason upstream.Reason, detail string) {
				fwd := &stubForwarder{result: upstream.Unavailable{Reason: reason, Detail: detail}}
				h := handler.NewGatewayHandler(log, fwd)

				w := callEcho(h, "/call-echo?msg=hi")

				Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
				Expect(w.Body.String()).To(MatchJSON(`{"error":"Service A unavailable","details":"` + detail + `"}`))
			},
			Entry("timeout", upstream.ReasonTimeout, "Timeout calling Service A after 2.0s"),
			Entry("connection failure", upstream.ReasonConnectionFailure, "Connection error: connection refused"),
			Entry("other request error", upstream.ReasonOtherRequestError, "Request error: invalid character"),
		)
	})

	Describe("CallEcho against a fake echo node", func() {
		var (
			server *ghttp.Server
			h      *handler.GatewayHandler
		)

		BeforeEach(func() {
			server = ghttp.NewServer()
			base, err := url.Parse(server.URL())
			Expect(err).NotTo(HaveOccurred())

			client := upstream.New(base, upstream.Options{
				Timeout: 200 * time.Millisecond,
				Logger:  log,
			})
			h = handler.NewGatewayHandler(log, client)
		})

		AfterEach(func() {
			server.Close()
		})

		It("should relay the echo response", func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, "/echo", "msg=hello+world"),
				ghttp.RespondWith(http.StatusOK, `{"echo":"hello world"}`),
			))

			w := callEcho(h, "/call-echo?msg=hello%20world")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`{"msg":"hello world","echo_response":{"echo":"hello world"}}`))
			Expect(server.ReceivedRequests()).To(HaveLen(1))
		})

		It("should relay an upstream error body as a success", func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, `{"error":"boom"}`))

			w := callEcho(h, "/call-echo?msg=x")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`{"msg":"x","echo_response":{"error":"boom"}}`))
		})

		It("should return 503 when the echo node is too slow", func() {
			release := make(chan struct{})
			defer close(release)
			server.AppendHandlers(func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-release:
				case <-time.After(2 * time.Second):
				}
			})

			w := callEcho(h, "/call-echo?msg=x")

			Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
			Expect(w.Body.String()).To(MatchJSON(`{"error":"Service A unavailable","details":"Timeout calling Service A after 0.2s"}`))
		})

		It("should make no outbound call without msg", func() {
			w := callEcho(h, "/call-echo")

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(server.ReceivedRequests()).To(BeEmpty())
		})
	})
})

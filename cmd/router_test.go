package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gorilla/mux"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"

	"github.com/angeloszaimis/callchain/internal/handler"
	"github.com/angeloszaimis/callchain/internal/lifecycle"
	"github.com/angeloszaimis/callchain/internal/upstream"
)

// routeTemplates lists the path templates registered on r.
func routeTemplates(r *mux.Router) []string {
	var paths []string
	_ = r.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		if tpl, err := route.GetPathTemplate(); err == nil {
			paths = append(paths, tpl)
		}
		return nil
	})
	return paths
}

var _ = Describe("Routers", func() {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	It("should register the echo routes", func() {
		Expect(routeTemplates(newEchoRouter(handler.NewEchoHandler(quiet)))).To(ConsistOf(echoRoutes))
	})

	It("should register the gateway routes", func() {
		client := upstream.New(mustParseURL("http://127.0.0.1:1"), upstream.Options{Logger: quiet})
		r := newGatewayRouter(handler.NewGatewayHandler(quiet, client))
		Expect(routeTemplates(r)).To(ConsistOf(gatewayRoutes))
	})

	DescribeTable("should measure every outcome on the echo node",
		func(method, target string, status int) {
			buf := gbytes.NewBuffer()
			log := slog.New(slog.NewTextHandler(buf, nil))
			h := lifecycle.New(log, nil).Wrap(newEchoRouter(handler.NewEchoHandler(log)))

			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(method, target, nil))

			Expect(w.Code).To(Equal(status))
			path := strings.SplitN(target, "?", 2)[0]
			Expect(buf).To(gbytes.Say(fmt.Sprintf("%s %s %d ", method, path, status)))
			Expect(strings.Count(string(buf.Contents()), "latency_ms=")).To(Equal(1))
		},
		Entry("health", http.MethodGet, "/health", http.StatusOK),
		Entry("echo", http.MethodGet, "/echo?msg=hi", http.StatusOK),
		Entry("unknown path", http.MethodGet, "/nope", http.StatusNotFound),
		Entry("wrong method", http.MethodPost, "/echo", http.StatusMethodNotAllowed),
	)
})

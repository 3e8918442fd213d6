package main

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/angeloszaimis/callchain/internal/handler"
	"github.com/angeloszaimis/callchain/internal/upstream"
)

const (
	healthRoute   = upstream.HealthPath
	echoRoute     = upstream.EchoPath
	callEchoRoute = "/call-echo"
)

var (
	echoRoutes    = []string{healthRoute, echoRoute}
	gatewayRoutes = []string{healthRoute, callEchoRoute}
)

func newEchoRouter(h *handler.EchoHandler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc(healthRoute, h.Health).Methods(http.MethodGet)
	r.HandleFunc(echoRoute, h.Echo).Methods(http.MethodGet)

	return r
}

func newGatewayRouter(h *handler.GatewayHandler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc(healthRoute, h.Health).Methods(http.MethodGet)
	r.HandleFunc(callEchoRoute, h.CallEcho).Methods(http.MethodGet)

	return r
}

package handler

import (
	"log/slog"
	"net/http"
)

type echoResponse struct {
	Echo string `json:"echo"`
}

// EchoHandler serves the echo node.
type EchoHandler struct {
	logger *slog.Logger
}

func NewEchoHandler(logger *slog.Logger) *EchoHandler {
	return &EchoHandler{logger: logger}
}

func (h *EchoHandler) Health(w http.ResponseWriter, r *http.Request) {
	health(h.logger)(w, r)
}

// Echo returns the msg query parameter. A missing parameter echoes "".
func (h *EchoHandler) Echo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, echoResponse{Echo: msgParam(r)})
}

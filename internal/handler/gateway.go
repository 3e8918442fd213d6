package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/angeloszaimis/callchain/internal/lifecycle"
	"github.com/angeloszaimis/callchain/internal/upstream"
)

// MissingMsgError is returned to clients calling /call-echo without msg.
const MissingMsgError = "Missing 'msg' parameter"

// Forwarder relays a message to the echo node.
type Forwarder interface {
	Forward(ctx context.Context, msg string) upstream.Result
	Name() string
}

type callEchoResponse struct {
	Msg          string          `json:"msg"`
	EchoResponse json.RawMessage `json:"echo_response"`
}

// GatewayHandler serves the gateway node.
type GatewayHandler struct {
	logger    *slog.Logger
	forwarder Forwarder
}

func NewGatewayHandler(logger *slog.Logger, forwarder Forwarder) *GatewayHandler {
	return &GatewayHandler{
		logger:    logger,
		forwarder: forwarder,
	}
}

// Health never consults the upstream.
func (h *GatewayHandler) Health(w http.ResponseWriter, r *http.Request) {
	health(h.logger)(w, r)
}

func (h *GatewayHandler) CallEcho(w http.ResponseWriter, r *http.Request) {
	msg := msgParam(r)
	if msg == "" {
		attrs := []any{slog.String("path", r.URL.Path)}
		if rc, ok := lifecycle.FromContext(r.Context()); ok {
			attrs = append(attrs, slog.String("request_id", rc.ID))
		}
		h.logger.Info(MissingMsgError, attrs...)

		writeJSON(w, h.logger, http.StatusBadRequest, errorResponse{Error: MissingMsgError})
		return
	}

	switch res := h.forwarder.Forward(r.Context(), msg).(type) {
	case upstream.Success:
		writeJSON(w, h.logger, http.StatusOK, callEchoResponse{
			Msg:          msg,
			EchoResponse: res.Body,
		})

	case upstream.Unavailable:
		writeJSON(w, h.logger, http.StatusServiceUnavailable, errorResponse{
			Error:   h.forwarder.Name() + " unavailable",
			Details: res.Detail,
		})

	default:
		h.logger.Error("Unexpected forward result", slog.Any("result", res))
		writeJSON(w, h.logger, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

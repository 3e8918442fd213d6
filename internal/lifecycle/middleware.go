package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"
)

// Completion describes a request whose response status is final.
type Completion struct {
	RequestID string
	Method    string
	Path      string
	Status    int
	Elapsed   time.Duration
}

// Observer receives one Completion per request. Implementations must not block.
type Observer interface {
	ObserveRequest(Completion)
}

// Middleware measures and logs the latency of every request it wraps.
type Middleware struct {
	logger   *slog.Logger
	observer Observer
}

// New returns a Middleware logging to logger. observer may be nil.
func New(logger *slog.Logger, observer Observer) *Middleware {
	return &Middleware{
		logger:   logger,
		observer: observer,
	}
}

// Wrap instruments next. The response reaches the client only after the
// latency record has been emitted.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := newRequestContext(r)
		rec := newResponseRecorder()

		defer func() {
			if p := recover(); p != nil {
				m.complete(rc, http.StatusInternalServerError)
				panic(p)
			}
		}()

		next.ServeHTTP(rec, r.WithContext(WithRequestContext(r.Context(), rc)))

		m.complete(rc, rec.status)

		if err := rec.flushTo(w); err != nil {
			m.logger.Debug("Failed to write response",
				slog.String("request_id", rc.ID),
				slog.Any("err", err))
		}
	})
}

func (m *Middleware) complete(rc *RequestContext, status int) {
	elapsed := rc.Elapsed()

	m.log(rc, status, elapsed)

	if m.observer != nil {
		m.observer.ObserveRequest(Completion{
			RequestID: rc.ID,
			Method:    rc.Method,
			Path:      rc.Path,
			Status:    status,
			Elapsed:   elapsed,
		})
	}
}

// log never lets a failing handler or sink affect the request.
func (m *Middleware) log(rc *RequestContext, status int, elapsed time.Duration) {
	defer func() {
		_ = recover()
	}()

	ms := float64(elapsed) / float64(time.Millisecond)

	m.logger.LogAttrs(context.Background(), slog.LevelInfo,
		fmt.Sprintf("%s %s %d %.2fms", rc.Method, rc.Path, status, ms),
		slog.String("request_id", rc.ID),
		slog.String("method", rc.Method),
		slog.String("path", rc.Path),
		slog.Int("status", status),
		slog.Float64("latency_ms", math.Round(ms*100)/100),
	)
}

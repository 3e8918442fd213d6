package lifecycle

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request id between the two nodes.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 128

// RequestContext is the per-request state kept for the duration of one request.
type RequestContext struct {
	ID     string
	Start  time.Time
	Method string
	Path   string
}

// Elapsed returns the monotonic time since the request arrived.
func (rc *RequestContext) Elapsed() time.Duration {
	return time.Since(rc.Start)
}

type contextKey struct{}

// WithRequestContext returns a copy of ctx carrying rc.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, rc)
}

// FromContext returns the RequestContext stored in ctx, if any.
func FromContext(ctx context.Context) (*RequestContext, bool) {
	rc, ok := ctx.Value(contextKey{}).(*RequestContext)
	return rc, ok
}

func newRequestContext(r *http.Request) *RequestContext {
	return &RequestContext{
		ID:     requestID(r),
		Start:  time.Now(),
		Method: r.Method,
		Path:   r.URL.Path,
	}
}

func requestID(r *http.Request) string {
	if id := r.Header.Get(RequestIDHeader); id != "" && len(id) <= maxRequestIDLength {
		return id
	}
	return uuid.NewString()
}

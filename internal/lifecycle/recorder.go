package lifecycle

import (
	"bytes"
	"net/http"
)

// responseRecorder holds the handler's response until the latency record has
// been written.
type responseRecorder struct {
	header      http.Header
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func newResponseRecorder() *responseRecorder {
	return &responseRecorder{
		header: make(http.Header),
		status: http.StatusOK,
	}
}

func (r *responseRecorder) Header() http.Header {
	return r.header
}

func (r *responseRecorder) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.status = code
	r.wroteHeader = true
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.body.Write(b)
}

func (r *responseRecorder) flushTo(w http.ResponseWriter) error {
	dst := w.Header()
	for key, values := range r.header {
		dst[key] = values
	}

	w.WriteHeader(r.status)
	_, err := w.Write(r.body.Bytes())
	return err
}

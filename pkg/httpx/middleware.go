package httpx

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	log "github.com/Goden-Gun/fault-lib/pkg/logger"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

var redactedHeaders = map[string]bool{
	"Authorization": true,
	"Cookie":        true,
	"Set-Cookie":    true,
}

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func wrapWriter(w http.ResponseWriter) *statusWriter {
	if sw, ok := w.(*statusWriter); ok {
		return sw
	}
	return &statusWriter{ResponseWriter: w}
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func (w *statusWriter) WriteHeader(statusCode int) {
	if w.status == 0 {
		w.status = statusCode
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

// RequestID reuses an incoming X-Request-ID or generates one, echoes it on
// the response and stores it on the request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(log.ContextWithRequestID(r.Context(), id)))
	})
}

// AccessLog logs one line per request at info level. At debug level the
// request and response headers are logged as well.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		entry := log.WithTrace(r.Context())
		debug := log.IsLevelEnabled(log.DebugLevel)
		if debug {
			entry.WithFields(log.Fields{
				"method":  r.Method,
				"uri":     r.URL.Path,
				"query":   r.URL.RawQuery,
				"headers": headerFields(r.Header),
			}).Debug("incoming request")
		}

		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		status := sw.status
		if status == 0 {
			status = http.StatusOK
		}
		ms := time.Since(start).Milliseconds()
		if debug {
			entry.WithFields(log.Fields{
				"method":      r.Method,
				"uri":         r.URL.Path,
				"status":      status,
				"duration_ms": ms,
				"bytes":       sw.bytes,
				"headers":     headerFields(sw.Header()),
			}).Debug("outgoing response")
			return
		}
		entry.Infof("%s %s %d - %dms", r.Method, r.URL.Path, status, ms)
	})
}

func headerFields(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if redactedHeaders[k] {
			out[k] = "[redacted]"
			continue
		}
		out[k] = strings.Join(v, ", ")
	}
	return out
}

// Package httpx is the seam between net/http handlers and the translation
// layer. Handlers return errors; the Boundary renders them.
package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/Goden-Gun/fault-lib/pkg/envelope"
	log "github.com/Goden-Gun/fault-lib/pkg/logger"
	"github.com/Goden-Gun/fault-lib/pkg/translate"
)

const contentTypeJSON = "application/json; charset=utf-8"

// HandlerFunc is an http handler that reports failure by returning it.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Boundary renders handler failures as error envelopes.
type Boundary struct {
	tr *translate.Translator
}

// NewBoundary uses a default Translator when tr is nil.
func NewBoundary(tr *translate.Translator) *Boundary {
	if tr == nil {
		tr = translate.New(translate.Options{})
	}
	return &Boundary{tr: tr}
}

// Handle adapts h. Returned errors and panics are translated; a panic
// with http.ErrAbortHandler is re-raised.
func (b *Boundary) Handle(h HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := wrapWriter(w)
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				b.WriteError(sw, r, &translate.Uncaught{Err: fmt.Errorf("panic: %v", rec)})
			}
		}()
		if err := h(sw, r); err != nil {
			b.WriteError(sw, r, err)
		}
	})
}

// Methods dispatches by request method. Unknown methods get a
// MethodNotAllowed envelope and an Allow header.
func (b *Boundary) Methods(handlers map[string]HandlerFunc) http.Handler {
	allowed := make([]string, 0, len(handlers))
	for m := range handlers {
		allowed = append(allowed, m)
	}
	sort.Strings(allowed)
	notAllowed := b.MethodNotAllowed(allowed...)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.Method]
		if !ok {
			notAllowed.ServeHTTP(w, r)
			return
		}
		b.Handle(h).ServeHTTP(w, r)
	})
}

// NotFound renders the no-route envelope.
func (b *Boundary) NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.WriteError(w, r, &translate.NoRoute{Method: r.Method, Path: r.URL.Path})
	})
}

// MethodNotAllowed renders the unsupported-verb envelope.
func (b *Boundary) MethodNotAllowed(allowed ...string) http.Handler {
	allow := strings.Join(allowed, ", ")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if allow != "" {
			w.Header().Set("Allow", allow)
		}
		b.WriteError(w, r, &translate.MethodNotAllowed{Method: r.Method, Allowed: allowed})
	})
}

// WriteError translates err and writes it unless a response has already
// been started, in which case the failure is only recorded.
func (b *Boundary) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	res := b.tr.Translate(r.Context(), r.URL.Path, err)
	if sw, ok := w.(*statusWriter); ok && sw.status != 0 {
		log.WithTrace(r.Context()).WithField("status", sw.status).
			Warn("httpx: response already started, error envelope dropped")
		return
	}
	writeJSON(w, res.Status, res.Body)
}

// WriteOK writes a success envelope. An empty message uses MsgSuccess.
func WriteOK[T any](w http.ResponseWriter, r *http.Request, status int, message string, data T) error {
	if message == "" {
		message = envelope.MsgSuccess
	}
	return writeJSON(w, status, envelope.OK(message, data, r.URL.Path, time.Now()))
}

func writeJSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}

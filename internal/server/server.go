// Package server is the demo HTTP service behind `faultctl serve`. It
// exposes the error code registry and the per-day fault counters through
// the httpx boundary.
package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Goden-Gun/fault-lib/pkg/bootstrap"
	"github.com/Goden-Gun/fault-lib/pkg/codes"
	"github.com/Goden-Gun/fault-lib/pkg/fault"
	"github.com/Goden-Gun/fault-lib/pkg/httpx"
	"github.com/Goden-Gun/fault-lib/pkg/retry"
	"github.com/Goden-Gun/fault-lib/pkg/translate"
)

const dayLayout = "2006-01-02"

// Options configures the handler.
type Options struct {
	// Retry bounds counter reads.
	Retry retry.Policy
	// MountMetrics serves /metrics on the same mux.
	MountMetrics bool
	// Now defaults to time.Now.
	Now func() time.Time
}

// CodeCount is the body of a counter lookup.
type CodeCount struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

type server struct {
	stack *bootstrap.FaultStack
	opts  Options
}

// New builds the routed handler wrapped in request-id and access-log
// middleware.
func New(stack *bootstrap.FaultStack, opts Options) http.Handler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &server{stack: stack, opts: opts}
	b := httpx.NewBoundary(stack.Translator)

	mux := http.NewServeMux()
	mux.Handle("/healthz", b.Methods(map[string]httpx.HandlerFunc{http.MethodGet: s.health}))
	mux.Handle("/v1/codes", b.Methods(map[string]httpx.HandlerFunc{http.MethodGet: s.listCodes}))
	mux.Handle("/v1/codes/{code}", b.Methods(map[string]httpx.HandlerFunc{http.MethodGet: s.getCode}))
	mux.Handle("/v1/codes/{code}/count", b.Methods(map[string]httpx.HandlerFunc{http.MethodGet: s.countCode}))
	if opts.MountMetrics {
		mux.Handle("/metrics", stack.Metrics.Handler())
	}
	mux.Handle("/", b.NotFound())

	return httpx.RequestID(httpx.AccessLog(mux))
}

func (s *server) health(w http.ResponseWriter, r *http.Request) error {
	return httpx.WriteOK(w, r, http.StatusOK, "", map[string]string{"status": "ok"})
}

func (s *server) listCodes(w http.ResponseWriter, r *http.Request) error {
	list := codes.All()
	if raw := r.URL.Query().Get("band"); raw != "" {
		band, ok := codes.ParseBand(raw)
		if !ok {
			return &translate.TypeMismatch{Name: "band", Value: raw, Cause: errors.New("unknown band")}
		}
		list = codes.ByBand(band)
	}
	return httpx.WriteOK(w, r, http.StatusOK, "", list)
}

func (s *server) getCode(w http.ResponseWriter, r *http.Request) error {
	code, err := s.resolve(r)
	if err != nil {
		return err
	}
	return httpx.WriteOK(w, r, http.StatusOK, "", code)
}

func (s *server) countCode(w http.ResponseWriter, r *http.Request) error {
	code, err := s.resolve(r)
	if err != nil {
		return err
	}

	day := s.opts.Now().UTC()
	if raw := r.URL.Query().Get("day"); raw != "" {
		day, err = time.Parse(dayLayout, raw)
		if err != nil {
			return &translate.TypeMismatch{Name: "day", Value: raw, Cause: err}
		}
	}

	counter := s.stack.Counter
	if counter == nil {
		return fault.WithDetails(codes.ServiceUnavailable, "fault counter is not configured")
	}

	n, err := retry.DoPolicy(r.Context(), s.opts.Retry, func() (int64, error) {
		n, err := counter.Count(r.Context(), code.Code, day)
		if err != nil {
			return 0, fault.Wrap(codes.DatabaseError, err)
		}
		return n, nil
	}, retry.WithName("fault_count"), retry.WithObserver(s.stack.Metrics), retry.OnRetryable())
	if err != nil {
		return err
	}

	return httpx.WriteOK(w, r, http.StatusOK, "", CodeCount{
		Code:  code.Code,
		Name:  code.Name,
		Day:   day.Format(dayLayout),
		Count: n,
	})
}

// resolve accepts a wire code ("ERR_4000") or a symbolic name ("data_not_found").
func (s *server) resolve(r *http.Request) (codes.ErrorCode, error) {
	key := r.PathValue("code")
	if err := httpx.ValidateParam("code", key, "required,max=64"); err != nil {
		return codes.ErrorCode{}, err
	}
	return Resolve(key)
}

// Resolve looks key up by wire code, then by symbolic name.
func Resolve(key string) (codes.ErrorCode, error) {
	if c, ok := codes.Lookup(strings.ToUpper(key)); ok {
		return c, nil
	}
	if c, ok := codes.LookupName(strings.ToUpper(key)); ok {
		return c, nil
	}
	return codes.ErrorCode{}, fault.WithArgs(codes.DataNotFound, "error code %s is not registered", key)
}

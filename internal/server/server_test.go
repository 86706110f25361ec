package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Goden-Gun/fault-lib/pkg/bootstrap"
	"github.com/Goden-Gun/fault-lib/pkg/codes"
	"github.com/Goden-Gun/fault-lib/pkg/config"
	"github.com/Goden-Gun/fault-lib/pkg/diagnostics"
	"github.com/Goden-Gun/fault-lib/pkg/envelope"
	"github.com/Goden-Gun/fault-lib/pkg/fault"
	"github.com/Goden-Gun/fault-lib/pkg/httpx"
	log "github.com/Goden-Gun/fault-lib/pkg/logger"
	"github.com/Goden-Gun/fault-lib/pkg/retry"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	handler http.Handler
	stack   *bootstrap.FaultStack
	redis   *miniredis.Miniredis
}

func newFixture(t *testing.T, withRedis bool) *fixture {
	t.Helper()
	log.SetOutput(&bytes.Buffer{})
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	cfg := &config.Config{}
	cfg.ApplyDefaults()

	f := &fixture{}
	var opts bootstrap.StackOptions
	if withRedis {
		f.redis = miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: f.redis.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		opts.Redis = client
	}
	f.stack = bootstrap.NewFaultStack(cfg, nil, nil, opts)
	f.handler = New(f.stack, Options{
		Retry:        retry.Policy{MaxAttempts: 2},
		MountMetrics: true,
		Now:          func() time.Time { return fixedNow },
	})
	return f
}

func eventFor(code codes.ErrorCode, at time.Time) diagnostics.Event {
	return diagnostics.Event{Code: code.Code, Name: code.Name, Status: code.Status, Timestamp: at}
}

func (f *fixture) do(method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeOK[T any](t *testing.T, rec *httptest.ResponseRecorder) envelope.ApiResponse[T] {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body envelope.ApiResponse[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)
	return body
}

func decodeFailure(t *testing.T, rec *httptest.ResponseRecorder) envelope.ApiResponse[*envelope.ErrorResponse] {
	t.Helper()
	var body envelope.ApiResponse[*envelope.ErrorResponse]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.Success)
	require.NotNil(t, body.Data)
	return body
}

func TestHealth(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(http.MethodGet, "/healthz")

	body := decodeOK[map[string]string](t, rec)
	assert.Equal(t, "ok", body.Data["status"])
	assert.NotEmpty(t, rec.Header().Get(httpx.HeaderRequestID))
}

func TestListCodes(t *testing.T) {
	f := newFixture(t, false)

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{name: "all", target: "/v1/codes", want: len(codes.All())},
		{name: "by band name", target: "/v1/codes?band=auth", want: len(codes.ByBand(codes.BandAuth))},
		{name: "by band digit", target: "/v1/codes?band=6", want: len(codes.ByBand(codes.BandExternal))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := decodeOK[[]codes.ErrorCode](t, f.do(http.MethodGet, tt.target))
			assert.Len(t, body.Data, tt.want)
		})
	}

	t.Run("unknown band", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/v1/codes?band=cosmic")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeFailure(t, rec)
		assert.Equal(t, codes.InvalidInput.Code, body.ErrorCode)
		assert.Equal(t, "Invalid value 'cosmic' for parameter 'band'", body.Data.Message)
	})
}

func TestGetCode(t *testing.T) {
	f := newFixture(t, false)

	tests := []struct {
		name   string
		target string
		want   codes.ErrorCode
	}{
		{name: "wire code", target: "/v1/codes/ERR_3001", want: codes.DuplicateEntry},
		{name: "lower case code", target: "/v1/codes/err_4000", want: codes.DataNotFound},
		{name: "symbolic name", target: "/v1/codes/token_expired", want: codes.TokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := decodeOK[codes.ErrorCode](t, f.do(http.MethodGet, tt.target))
			assert.Equal(t, tt.want, body.Data)
		})
	}

	t.Run("unregistered", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/v1/codes/ERR_9999")
		require.Equal(t, http.StatusNotFound, rec.Code)
		body := decodeFailure(t, rec)
		assert.Equal(t, codes.DataNotFound.Code, body.ErrorCode)
		assert.Equal(t, "error code ERR_9999 is not registered", body.Data.Details)
		assert.Equal(t, "/v1/codes/ERR_9999", body.Data.Path)
	})

	t.Run("method not allowed", func(t *testing.T) {
		rec := f.do(http.MethodDelete, "/v1/codes/ERR_3001")
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, http.MethodGet, rec.Header().Get("Allow"))
		body := decodeFailure(t, rec)
		assert.Equal(t, codes.MethodNotAllowed.Code, body.ErrorCode)
	})
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(http.MethodGet, "/v2/nothing")

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeFailure(t, rec)
	assert.Equal(t, codes.NotFound.Code, body.ErrorCode)
	assert.Equal(t, "Endpoint not found", body.Data.Message)
}

func TestCountCode(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		f.stack.Counter.Record(ctx, eventFor(codes.DuplicateEntry, fixedNow))
	}

	t.Run("today", func(t *testing.T) {
		body := decodeOK[CodeCount](t, f.do(http.MethodGet, "/v1/codes/DUPLICATE_ENTRY/count"))
		assert.Equal(t, CodeCount{Code: "ERR_3001", Name: "DUPLICATE_ENTRY", Day: "2025-06-01", Count: 2}, body.Data)
	})

	t.Run("other day", func(t *testing.T) {
		body := decodeOK[CodeCount](t, f.do(http.MethodGet, "/v1/codes/ERR_3001/count?day=2025-05-31"))
		assert.Zero(t, body.Data.Count)
	})

	t.Run("bad day", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/v1/codes/ERR_3001/count?day=yesterday")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, codes.InvalidInput.Code, decodeFailure(t, rec).ErrorCode)
	})

	t.Run("redis down exhausts retries", func(t *testing.T) {
		f.redis.SetError("ERR induced failure")
		rec := f.do(http.MethodGet, "/v1/codes/ERR_3001/count")
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeFailure(t, rec)
		assert.Equal(t, codes.DatabaseError.Code, body.ErrorCode)

		metrics := f.do(http.MethodGet, "/metrics")
		assert.Contains(t, metrics.Body.String(), `retry_transitions_total{operation="fault_count",state="exhausted"} 1`)
	})
}

func TestCountCodeWithoutCounter(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(http.MethodGet, "/v1/codes/ERR_3001/count")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeFailure(t, rec)
	assert.Equal(t, codes.ServiceUnavailable.Code, body.ErrorCode)
}

func TestResolve(t *testing.T) {
	c, err := Resolve("err_1004")
	require.NoError(t, err)
	assert.Equal(t, codes.NotFound, c)

	_, err = Resolve("nope")
	assert.True(t, fault.Is(err, codes.DataNotFound))
}

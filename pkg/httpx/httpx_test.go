package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Goden-Gun/fault-lib/pkg/codes"
	"github.com/Goden-Gun/fault-lib/pkg/diagnostics"
	"github.com/Goden-Gun/fault-lib/pkg/envelope"
	"github.com/Goden-Gun/fault-lib/pkg/fault"
	log "github.com/Goden-Gun/fault-lib/pkg/logger"
	"github.com/Goden-Gun/fault-lib/pkg/translate"
)

type createUser struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,max=8"`
}

func newBoundary() *Boundary {
	return NewBoundary(translate.New(translate.Options{Sink: diagnostics.Discard}))
}

func decodeFailure(t *testing.T, rec *httptest.ResponseRecorder) envelope.ApiResponse[*envelope.ErrorResponse] {
	t.Helper()
	require.Equal(t, contentTypeJSON, rec.Header().Get("Content-Type"))
	var body envelope.ApiResponse[*envelope.ErrorResponse]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.Success)
	require.NotNil(t, body.Data)
	return body
}

func TestHandle_Success(t *testing.T) {
	b := newBoundary()
	h := b.Handle(func(w http.ResponseWriter, r *http.Request) error {
		return WriteOK(w, r, http.StatusCreated, envelope.MsgCreated, map[string]int{"id": 7})
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users", nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	var body envelope.ApiResponse[map[string]int]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Equal(t, envelope.MsgCreated, body.Message)
	require.Equal(t, 7, body.Data["id"])
	require.Equal(t, "/users", body.Path)
	require.NotContains(t, rec.Body.String(), "errorCode")
}

func TestHandle_Fault(t *testing.T) {
	b := newBoundary()
	h := b.Handle(func(http.ResponseWriter, *http.Request) error {
		return fault.WithDetails(codes.DataNotFound, "user 42")
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/42?x=1", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeFailure(t, rec)
	require.Equal(t, codes.DataNotFound.Code, body.ErrorCode)
	require.Equal(t, "Data not found", body.Data.Message)
	require.Equal(t, "user 42", body.Data.Details)
	require.Equal(t, "/users/42", body.Data.Path)
}

func TestHandle_Panic(t *testing.T) {
	b := newBoundary()
	h := b.Handle(func(http.ResponseWriter, *http.Request) error {
		panic("nil map write in secret module")
	})
	rec := httptest.NewRecorder()
	require.NotPanics(t, func() { h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil)) })

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeFailure(t, rec)
	require.Equal(t, codes.InternalServerError.Code, body.ErrorCode)
	require.NotContains(t, rec.Body.String(), "secret")
}

func TestHandle_AbortHandlerPanicPropagates(t *testing.T) {
	b := newBoundary()
	h := b.Handle(func(http.ResponseWriter, *http.Request) error {
		panic(http.ErrAbortHandler)
	})
	require.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestHandle_ErrorAfterResponseStarted(t *testing.T) {
	b := newBoundary()
	h := b.Handle(func(w http.ResponseWriter, _ *http.Request) error {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("partial"))
		return errors.New("stream broke")
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, "partial", rec.Body.String())
}

func TestNotFoundAndMethods(t *testing.T) {
	b := newBoundary()
	mux := http.NewServeMux()
	mux.Handle("/items", b.Methods(map[string]HandlerFunc{
		http.MethodGet: func(w http.ResponseWriter, r *http.Request) error {
			return WriteOK(w, r, http.StatusOK, "", []string{"a"})
		},
		http.MethodPost: func(w http.ResponseWriter, r *http.Request) error {
			return WriteOK(w, r, http.StatusCreated, envelope.MsgCreated, "ok")
		},
	}))
	mux.Handle("/", b.NotFound())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/items", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Equal(t, "GET, POST", rec.Header().Get("Allow"))
	body := decodeFailure(t, rec)
	require.Equal(t, "Method 'DELETE' is not supported", body.Data.Message)
	require.Equal(t, "Method not allowed", body.Message)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	body = decodeFailure(t, rec)
	require.Equal(t, codes.NotFound.Code, body.ErrorCode)
	require.Equal(t, "/missing", body.Path)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDecodeAndValidate(t *testing.T) {
	b := newBoundary()
	h := b.Handle(func(w http.ResponseWriter, r *http.Request) error {
		var in createUser
		if err := DecodeAndValidate(r, &in); err != nil {
			return err
		}
		return WriteOK(w, r, http.StatusCreated, "", in)
	})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
		wantFields []string
	}{
		{name: "valid", body: `{"email":"a@b.co","name":"ann"}`, wantStatus: http.StatusCreated},
		{name: "syntax error", body: `{"email":`, wantStatus: http.StatusBadRequest, wantCode: codes.InvalidFormat.Code},
		{name: "wrong type", body: `{"email":5}`, wantStatus: http.StatusBadRequest, wantCode: codes.InvalidFormat.Code},
		{name: "empty", body: ``, wantStatus: http.StatusBadRequest, wantCode: codes.InvalidFormat.Code},
		{name: "trailing", body: `{"email":"a@b.co","name":"ann"} {}`, wantStatus: http.StatusBadRequest, wantCode: codes.InvalidFormat.Code},
		{
			name:       "all violations",
			body:       `{"email":"not-an-email","name":"much-too-long"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   codes.ValidationError.Code,
			wantFields: []string{"email", "name"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(tt.body)))
			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode == "" {
				return
			}
			body := decodeFailure(t, rec)
			require.Equal(t, tt.wantCode, body.ErrorCode)
			var fields []string
			for _, fe := range body.Data.FieldErrors {
				fields = append(fields, fe.Field)
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
		})
	}
}

func TestQueryHelpers(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/list?page=abc&size=20", nil)

	_, err := RequireQuery(r, "sort")
	var missing *translate.MissingParameter
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "sort", missing.Name)

	_, err = QueryInt(r, "page")
	var mismatch *translate.TypeMismatch
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, "abc", mismatch.Value)

	n, err := QueryInt(r, "size")
	require.NoError(t, err)
	require.Equal(t, 20, n)

	n, err = QueryIntDefault(r, "limit", 50)
	require.NoError(t, err)
	require.Equal(t, 50, n)
}

func TestPathInt(t *testing.T) {
	mux := http.NewServeMux()
	var got int
	var gotErr error
	mux.HandleFunc("GET /orders/{id}", func(_ http.ResponseWriter, r *http.Request) {
		got, gotErr = PathInt(r, "id")
	})
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/12", nil))
	require.NoError(t, gotErr)
	require.Equal(t, 12, got)

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/x1", nil))
	var mismatch *translate.TypeMismatch
	require.ErrorAs(t, gotErr, &mismatch)
}

func TestValidateParam(t *testing.T) {
	require.NoError(t, ValidateParam("size", 10, "min=1,max=100"))

	err := ValidateParam("size", 0, "min=1,max=100")
	var vf *translate.ValidationFailure
	require.ErrorAs(t, err, &vf)
	require.True(t, vf.Constraint)
	require.Len(t, vf.Violations, 1)
	require.Equal(t, "size", vf.Violations[0].Field)
	require.Equal(t, 0, vf.Violations[0].Rejected)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = log.RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	h.ServeHTTP(rec, req)
	require.Equal(t, "abc-123", seen)
	require.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Len(t, seen, 36)
	require.Equal(t, seen, rec.Header().Get(HeaderRequestID))
}

func TestRequestIDReachesEnvelope(t *testing.T) {
	b := newBoundary()
	h := RequestID(b.Handle(func(http.ResponseWriter, *http.Request) error {
		return fault.New(codes.Conflict)
	}))
	req := httptest.NewRequest(http.MethodPut, "/x", nil)
	req.Header.Set(HeaderRequestID, "rid-9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	body := decodeFailure(t, rec)
	require.Equal(t, "rid-9", body.Data.Metadata[translate.MetadataRequestID])
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	prevOut := log.StandardLogger().Out
	prevLevel := log.StandardLogger().GetLevel()
	log.SetOutput(&buf)
	defer func() {
		log.SetOutput(prevOut)
		log.SetLevel(prevLevel)
	}()

	h := AccessLog(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	log.SetLevel(log.InfoLevel)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/tea", nil))
	require.Contains(t, buf.String(), "GET /tea 418 - ")

	buf.Reset()
	log.SetLevel(log.DebugLevel)
	req := httptest.NewRequest(http.MethodGet, "/tea", nil).WithContext(context.Background())
	req.Header.Set("Authorization", "Bearer secret-token")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Contains(t, buf.String(), "incoming request")
	require.Contains(t, buf.String(), "outgoing response")
	require.NotContains(t, buf.String(), "secret-token")
}

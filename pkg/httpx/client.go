package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/Goden-Gun/fault-lib/pkg/codes"
	"github.com/Goden-Gun/fault-lib/pkg/fault"
	log "github.com/Goden-Gun/fault-lib/pkg/logger"
	"github.com/Goden-Gun/fault-lib/pkg/retry"
)

// DetailsExternalCall is the fault details of every failed outbound call.
const DetailsExternalCall = "Failed to call external service"

const (
	defaultClientTimeout = 15 * time.Second
	maxErrorBody         = 512
)

var errInvalidResponse = errors.New("invalid response body")

// StatusError is a non-2xx reply from an external service.
type StatusError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Status)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.Status, e.Body)
}

// Temporary reports whether the same request may succeed later.
func (e *StatusError) Temporary() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests || e.Status == http.StatusRequestTimeout
}

// Client calls external JSON services. Every failure comes back as a Fault
// in the external band; transient ones are retried under Retry.
//
//	var rate quote
//	err := client.Get(ctx, "https://fx.example/rates", url.Values{"ccy": {"USD"}}, &rate)
type Client struct {
	HTTP     *http.Client
	Retry    retry.Policy
	Headers  http.Header
	Observer retry.Observer
}

// NewClient returns a Client; a nil httpClient gets a 15s timeout.
func NewClient(httpClient *http.Client, policy retry.Policy) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultClientTimeout}
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Client{HTTP: httpClient, Retry: policy, Headers: http.Header{}}
}

// Get sends GET rawURL with params appended to the query and decodes the
// reply into out when out is not nil.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values, out any) error {
	if len(params) > 0 {
		u, err := url.Parse(rawURL)
		if err != nil {
			return fault.WrapWithDetails(codes.ExternalServiceError, DetailsExternalCall, err)
		}
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
		rawURL = u.String()
	}
	return c.Do(ctx, http.MethodGet, rawURL, nil, out)
}

func (c *Client) Post(ctx context.Context, rawURL string, body, out any) error {
	return c.Do(ctx, http.MethodPost, rawURL, body, out)
}

func (c *Client) Put(ctx context.Context, rawURL string, body, out any) error {
	return c.Do(ctx, http.MethodPut, rawURL, body, out)
}

func (c *Client) Delete(ctx context.Context, rawURL string) error {
	return c.Do(ctx, http.MethodDelete, rawURL, nil, nil)
}

// Do sends body as JSON and decodes a 2xx reply into out.
func (c *Client) Do(ctx context.Context, method, rawURL string, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fault.WrapWithDetails(codes.InvalidFormat, "encode request body", err)
		}
		payload = b
	}

	opts := []retry.Option{
		retry.WithName(method + " " + rawURL),
		retry.OnlyIf(c.retryable(ctx)),
	}
	if c.Observer != nil {
		opts = append(opts, retry.WithObserver(c.Observer))
	}
	return retry.RunPolicy(ctx, c.Retry, func() error {
		return c.once(ctx, method, rawURL, payload, out)
	}, opts...)
}

func (c *Client) once(ctx context.Context, method, rawURL string, payload []byte, out any) error {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return fault.WrapWithDetails(codes.ExternalServiceError, DetailsExternalCall, err)
	}
	for k, vs := range c.Headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if payload != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	req.Header.Set("Accept", "application/json")
	if id := log.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(HeaderRequestID, id)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	entry := log.WithTrace(ctx).WithFields(log.Fields{"method": method, "url": rawURL})
	entry.Debug("external request")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		entry.WithError(err).Error("external request failed")
		return fault.WrapWithDetails(transportCode(err), DetailsExternalCall, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		serr := &StatusError{Method: method, URL: rawURL, Status: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
		entry.WithField("status", resp.StatusCode).Error("external request failed")
		return fault.WrapWithDetails(statusCode(resp.StatusCode), DetailsExternalCall, serr)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		entry.WithError(err).Error("external response undecodable")
		return fault.WrapWithDetails(codes.ExternalServiceError, DetailsExternalCall, errors.Join(errInvalidResponse, err))
	}
	return nil
}

// retryable keeps transient external failures in the loop while the
// caller's context is alive. A per-attempt client timeout is retried.
func (c *Client) retryable(ctx context.Context) func(error) bool {
	return func(err error) bool {
		if ctx.Err() != nil || errors.Is(err, errInvalidResponse) {
			return false
		}
		var se *StatusError
		if errors.As(err, &se) {
			return se.Temporary()
		}
		if f, ok := fault.As(err); ok {
			return f.Code().IsTransient()
		}
		return retry.Retryable(err)
	}
}

func transportCode(err error) codes.ErrorCode {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return codes.ExternalServiceTimeout
	}
	return codes.ExternalServiceError
}

func statusCode(status int) codes.ErrorCode {
	switch status {
	case http.StatusServiceUnavailable:
		return codes.ExternalServiceUnavailable
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return codes.ExternalServiceTimeout
	default:
		return codes.ExternalServiceError
	}
}

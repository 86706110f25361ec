// Package envelope defines the wire-stable response shapes returned to API
// consumers.
//
// Success:
//
//	{"success":true,"message":"...","data":<T>,"path":"/v1/x","timestamp":"2025-01-01T00:00:00.000Z"}
//
// Failure carries an ErrorResponse as data and mirrors its errorCode.
// Unset optional fields are omitted, never written as null.
package envelope

import (
	"bytes"
	"encoding/json"
	"time"
)

const (
	MsgSuccess = "Operation completed successfully"
	MsgCreated = "Resource created successfully"
	MsgUpdated = "Resource updated successfully"
	MsgDeleted = "Resource deleted successfully"
)

// ApiResponse is the generic success/failure envelope.
type ApiResponse[T any] struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Data      T         `json:"data"`
	ErrorCode string    `json:"errorCode,omitempty"`
	Path      string    `json:"path"`
	Timestamp Timestamp `json:"timestamp"`
}

// Valid reports whether the success flag and errorCode agree.
func (r *ApiResponse[T]) Valid() bool {
	if r == nil {
		return false
	}
	return r.Success == (r.ErrorCode == "")
}

// FieldError describes one violated input constraint.
type FieldError struct {
	Field         string `json:"field"`
	Message       string `json:"message"`
	RejectedValue any    `json:"rejectedValue,omitempty"`
}

// UnmarshalJSON keeps numeric rejected values as json.Number so large
// integers survive a decode/encode cycle unchanged.
func (e *FieldError) UnmarshalJSON(b []byte) error {
	type plain FieldError
	return decodeNumbers(b, (*plain)(e))
}

// ErrorResponse is the failure payload carried in ApiResponse.Data.
type ErrorResponse struct {
	ErrorCode   string         `json:"errorCode"`
	Message     string         `json:"message"`
	Details     string         `json:"details,omitempty"`
	Timestamp   Timestamp      `json:"timestamp"`
	Path        string         `json:"path"`
	Status      int            `json:"status"`
	FieldErrors []FieldError   `json:"fieldErrors,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// UnmarshalJSON keeps numeric metadata values as json.Number.
func (e *ErrorResponse) UnmarshalJSON(b []byte) error {
	type plain ErrorResponse
	return decodeNumbers(b, (*plain)(e))
}

func decodeNumbers(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(v)
}

// OK builds a success envelope.
func OK[T any](message string, data T, path string, now time.Time) *ApiResponse[T] {
	return &ApiResponse[T]{
		Success:   true,
		Message:   message,
		Data:      data,
		Path:      path,
		Timestamp: NewTimestamp(now),
	}
}

// NewErrorResponse builds a failure payload.
func NewErrorResponse(errorCode, message string, status int, path string, now time.Time) *ErrorResponse {
	return &ErrorResponse{
		ErrorCode: errorCode,
		Message:   message,
		Status:    status,
		Path:      path,
		Timestamp: NewTimestamp(now),
	}
}

// WithDetails sets the details field.
func (e *ErrorResponse) WithDetails(details string) *ErrorResponse {
	e.Details = details
	return e
}

// WithFieldErrors appends field errors in order.
func (e *ErrorResponse) WithFieldErrors(fields ...FieldError) *ErrorResponse {
	e.FieldErrors = append(e.FieldErrors, fields...)
	return e
}

// WithMetadata merges md into the metadata map.
func (e *ErrorResponse) WithMetadata(md map[string]any) *ErrorResponse {
	if len(md) == 0 {
		return e
	}
	if e.Metadata == nil {
		e.Metadata = make(map[string]any, len(md))
	}
	for k, v := range md {
		e.Metadata[k] = v
	}
	return e
}

// Fail wraps resp in a failure envelope with the given summary message.
// An empty summary falls back to resp.Message.
func Fail(summary string, resp *ErrorResponse) *ApiResponse[*ErrorResponse] {
	if summary == "" {
		summary = resp.Message
	}
	return &ApiResponse[*ErrorResponse]{
		Success:   false,
		Message:   summary,
		Data:      resp,
		ErrorCode: resp.ErrorCode,
		Path:      resp.Path,
		Timestamp: resp.Timestamp,
	}
}

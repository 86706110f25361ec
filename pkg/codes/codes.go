package codes

import (
	"net/http"
	"sort"
	"strings"
)

// ErrorCode represents a stable fault kind shared across services.
//
// Code is the wire identifier and is never reused for a different meaning
// once published. Status is the HTTP-equivalent wire status.
type ErrorCode struct {
	Code    string `json:"code" yaml:"code"`
	Name    string `json:"name" yaml:"name"`
	Message string `json:"message" yaml:"message"`
	Status  int    `json:"status" yaml:"status"`
}

// IsZero reports whether c is the zero value.
func (c ErrorCode) IsZero() bool {
	return c.Code == ""
}

// Band returns the advisory band encoded by the first digit of the code.
func (c ErrorCode) Band() Band {
	return bandOf(c.Code)
}

func (c ErrorCode) String() string {
	return c.Code + " " + c.Name
}

var (
	// General (1xxx)
	InternalServerError  = ErrorCode{Code: "ERR_1000", Name: "INTERNAL_SERVER_ERROR", Message: "Internal server error occurred", Status: http.StatusInternalServerError}
	BadRequest           = ErrorCode{Code: "ERR_1001", Name: "BAD_REQUEST", Message: "Bad request", Status: http.StatusBadRequest}
	Unauthorized         = ErrorCode{Code: "ERR_1002", Name: "UNAUTHORIZED", Message: "Unauthorized access", Status: http.StatusUnauthorized}
	Forbidden            = ErrorCode{Code: "ERR_1003", Name: "FORBIDDEN", Message: "Access forbidden", Status: http.StatusForbidden}
	NotFound             = ErrorCode{Code: "ERR_1004", Name: "NOT_FOUND", Message: "Resource not found", Status: http.StatusNotFound}
	MethodNotAllowed     = ErrorCode{Code: "ERR_1005", Name: "METHOD_NOT_ALLOWED", Message: "Method not allowed", Status: http.StatusMethodNotAllowed}
	Conflict             = ErrorCode{Code: "ERR_1006", Name: "CONFLICT", Message: "Resource conflict", Status: http.StatusConflict}
	UnsupportedMediaType = ErrorCode{Code: "ERR_1007", Name: "UNSUPPORTED_MEDIA_TYPE", Message: "Unsupported media type", Status: http.StatusUnsupportedMediaType}
	TooManyRequests      = ErrorCode{Code: "ERR_1008", Name: "TOO_MANY_REQUESTS", Message: "Too many requests", Status: http.StatusTooManyRequests}
	ServiceUnavailable   = ErrorCode{Code: "ERR_1009", Name: "SERVICE_UNAVAILABLE", Message: "Service unavailable", Status: http.StatusServiceUnavailable}

	// Validation (2xxx)
	ValidationError      = ErrorCode{Code: "ERR_2000", Name: "VALIDATION_ERROR", Message: "Validation error", Status: http.StatusBadRequest}
	InvalidInput         = ErrorCode{Code: "ERR_2001", Name: "INVALID_INPUT", Message: "Invalid input provided", Status: http.StatusBadRequest}
	MissingRequiredField = ErrorCode{Code: "ERR_2002", Name: "MISSING_REQUIRED_FIELD", Message: "Required field is missing", Status: http.StatusBadRequest}
	InvalidFormat        = ErrorCode{Code: "ERR_2003", Name: "INVALID_FORMAT", Message: "Invalid format", Status: http.StatusBadRequest}
	InvalidDateRange     = ErrorCode{Code: "ERR_2004", Name: "INVALID_DATE_RANGE", Message: "Invalid date range", Status: http.StatusBadRequest}
	InvalidEmail         = ErrorCode{Code: "ERR_2005", Name: "INVALID_EMAIL", Message: "Invalid email format", Status: http.StatusBadRequest}
	InvalidPhone         = ErrorCode{Code: "ERR_2006", Name: "INVALID_PHONE", Message: "Invalid phone number", Status: http.StatusBadRequest}

	// Business rules (3xxx)
	BusinessError       = ErrorCode{Code: "ERR_3000", Name: "BUSINESS_ERROR", Message: "Business logic error", Status: http.StatusBadRequest}
	DuplicateEntry      = ErrorCode{Code: "ERR_3001", Name: "DUPLICATE_ENTRY", Message: "Duplicate entry found", Status: http.StatusConflict}
	InsufficientBalance = ErrorCode{Code: "ERR_3002", Name: "INSUFFICIENT_BALANCE", Message: "Insufficient balance", Status: http.StatusBadRequest}
	OperationNotAllowed = ErrorCode{Code: "ERR_3003", Name: "OPERATION_NOT_ALLOWED", Message: "Operation not allowed", Status: http.StatusForbidden}
	ResourceLocked      = ErrorCode{Code: "ERR_3004", Name: "RESOURCE_LOCKED", Message: "Resource is locked", Status: http.StatusLocked}
	QuotaExceeded       = ErrorCode{Code: "ERR_3005", Name: "QUOTA_EXCEEDED", Message: "Quota exceeded", Status: http.StatusTooManyRequests}

	// Data (4xxx)
	DataNotFound           = ErrorCode{Code: "ERR_4000", Name: "DATA_NOT_FOUND", Message: "Data not found", Status: http.StatusNotFound}
	DataIntegrityViolation = ErrorCode{Code: "ERR_4001", Name: "DATA_INTEGRITY_VIOLATION", Message: "Data integrity violation", Status: http.StatusConflict}
	DatabaseError          = ErrorCode{Code: "ERR_4002", Name: "DATABASE_ERROR", Message: "Database error occurred", Status: http.StatusInternalServerError}

	// Authentication & authorization (5xxx)
	InvalidCredentials      = ErrorCode{Code: "ERR_5000", Name: "INVALID_CREDENTIALS", Message: "Invalid credentials", Status: http.StatusUnauthorized}
	TokenExpired            = ErrorCode{Code: "ERR_5001", Name: "TOKEN_EXPIRED", Message: "Token has expired", Status: http.StatusUnauthorized}
	TokenInvalid            = ErrorCode{Code: "ERR_5002", Name: "TOKEN_INVALID", Message: "Invalid token", Status: http.StatusUnauthorized}
	InsufficientPermissions = ErrorCode{Code: "ERR_5003", Name: "INSUFFICIENT_PERMISSIONS", Message: "Insufficient permissions", Status: http.StatusForbidden}
	AccountLocked           = ErrorCode{Code: "ERR_5004", Name: "ACCOUNT_LOCKED", Message: "Account is locked", Status: http.StatusForbidden}
	AccountDisabled         = ErrorCode{Code: "ERR_5005", Name: "ACCOUNT_DISABLED", Message: "Account is disabled", Status: http.StatusForbidden}

	// External dependencies (6xxx)
	ExternalServiceError       = ErrorCode{Code: "ERR_6000", Name: "EXTERNAL_SERVICE_ERROR", Message: "External service error", Status: http.StatusBadGateway}
	ExternalServiceTimeout     = ErrorCode{Code: "ERR_6001", Name: "EXTERNAL_SERVICE_TIMEOUT", Message: "External service timeout", Status: http.StatusGatewayTimeout}
	ExternalServiceUnavailable = ErrorCode{Code: "ERR_6002", Name: "EXTERNAL_SERVICE_UNAVAILABLE", Message: "External service unavailable", Status: http.StatusServiceUnavailable}
)

// table is the published set. Append only.
var table = []ErrorCode{
	InternalServerError, BadRequest, Unauthorized, Forbidden, NotFound,
	MethodNotAllowed, Conflict, UnsupportedMediaType, TooManyRequests, ServiceUnavailable,

	ValidationError, InvalidInput, MissingRequiredField, InvalidFormat,
	InvalidDateRange, InvalidEmail, InvalidPhone,

	BusinessError, DuplicateEntry, InsufficientBalance, OperationNotAllowed,
	ResourceLocked, QuotaExceeded,

	DataNotFound, DataIntegrityViolation, DatabaseError,

	InvalidCredentials, TokenExpired, TokenInvalid, InsufficientPermissions,
	AccountLocked, AccountDisabled,

	ExternalServiceError, ExternalServiceTimeout, ExternalServiceUnavailable,
}

var (
	byCode = index(table, func(c ErrorCode) string { return c.Code })
	byName = index(table, func(c ErrorCode) string { return c.Name })
)

func index(src []ErrorCode, key func(ErrorCode) string) map[string]ErrorCode {
	m := make(map[string]ErrorCode, len(src))
	for _, c := range src {
		k := key(c)
		if _, dup := m[k]; dup {
			panic("codes: duplicate registry key " + k)
		}
		m[k] = c
	}
	return m
}

// Lookup returns the ErrorCode registered under code.
func Lookup(code string) (ErrorCode, bool) {
	c, ok := byCode[strings.TrimSpace(code)]
	return c, ok
}

// LookupName returns the ErrorCode registered under its symbolic name.
func LookupName(name string) (ErrorCode, bool) {
	c, ok := byName[strings.ToUpper(strings.TrimSpace(name))]
	return c, ok
}

// All returns a copy of the registry ordered by code.
func All() []ErrorCode {
	out := make([]ErrorCode, len(table))
	copy(out, table)
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

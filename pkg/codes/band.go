package codes

import (
	"net/http"
	"strings"

	grpccodes "google.golang.org/grpc/codes"
)

// Band groups codes by broad cause. The grouping is advisory.
type Band int

const (
	BandUnknown Band = iota
	BandGeneral
	BandValidation
	BandBusiness
	BandData
	BandAuth
	BandExternal
)

var bandNames = map[Band]string{
	BandUnknown:    "unknown",
	BandGeneral:    "general",
	BandValidation: "validation",
	BandBusiness:   "business",
	BandData:       "data",
	BandAuth:       "auth",
	BandExternal:   "external",
}

func (b Band) String() string {
	if s, ok := bandNames[b]; ok {
		return s
	}
	return bandNames[BandUnknown]
}

// ParseBand accepts a band name ("auth") or its leading digit ("5").
func ParseBand(s string) (Band, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for b, name := range bandNames {
		if b != BandUnknown && name == s {
			return b, true
		}
	}
	if len(s) == 1 && s[0] >= '1' && s[0] <= '6' {
		return Band(s[0] - '0'), true
	}
	return BandUnknown, false
}

func bandOf(code string) Band {
	digits := strings.TrimPrefix(code, "ERR_")
	if len(digits) != 4 || digits[0] < '1' || digits[0] > '6' {
		return BandUnknown
	}
	return Band(digits[0] - '0')
}

// ByBand returns the registered codes of band b ordered by code.
func ByBand(b Band) []ErrorCode {
	var out []ErrorCode
	for _, c := range All() {
		if c.Band() == b {
			out = append(out, c)
		}
	}
	return out
}

// IsTransient reports whether a failure carrying c may succeed when retried.
func (c ErrorCode) IsTransient() bool {
	if c.Band() == BandExternal {
		return true
	}
	switch c.Code {
	case TooManyRequests.Code, ServiceUnavailable.Code, DatabaseError.Code:
		return true
	}
	return false
}

// GRPCCode maps the wire status of c to a gRPC status code.
func (c ErrorCode) GRPCCode() grpccodes.Code {
	switch c.Code {
	case ExternalServiceTimeout.Code:
		return grpccodes.DeadlineExceeded
	case DataIntegrityViolation.Code, DuplicateEntry.Code:
		return grpccodes.AlreadyExists
	case QuotaExceeded.Code:
		return grpccodes.ResourceExhausted
	case MethodNotAllowed.Code:
		return grpccodes.Unimplemented
	}
	switch c.Status {
	case http.StatusBadRequest:
		return grpccodes.InvalidArgument
	case http.StatusUnauthorized:
		return grpccodes.Unauthenticated
	case http.StatusForbidden:
		return grpccodes.PermissionDenied
	case http.StatusNotFound:
		return grpccodes.NotFound
	case http.StatusConflict, http.StatusLocked:
		return grpccodes.FailedPrecondition
	case http.StatusTooManyRequests:
		return grpccodes.ResourceExhausted
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return grpccodes.Unavailable
	case http.StatusGatewayTimeout:
		return grpccodes.DeadlineExceeded
	case http.StatusUnsupportedMediaType:
		return grpccodes.InvalidArgument
	case http.StatusMethodNotAllowed:
		return grpccodes.Unimplemented
	}
	return grpccodes.Internal
}

// FromGRPCCode picks the general code closest to a gRPC status code.
func FromGRPCCode(code grpccodes.Code) ErrorCode {
	switch code {
	case grpccodes.InvalidArgument, grpccodes.OutOfRange:
		return BadRequest
	case grpccodes.Unauthenticated:
		return Unauthorized
	case grpccodes.PermissionDenied:
		return Forbidden
	case grpccodes.NotFound:
		return NotFound
	case grpccodes.AlreadyExists, grpccodes.Aborted:
		return Conflict
	case grpccodes.FailedPrecondition:
		return BusinessError
	case grpccodes.ResourceExhausted:
		return TooManyRequests
	case grpccodes.Unavailable:
		return ExternalServiceUnavailable
	case grpccodes.DeadlineExceeded:
		return ExternalServiceTimeout
	case grpccodes.Unimplemented:
		return MethodNotAllowed
	}
	return InternalServerError
}

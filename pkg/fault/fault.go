// Package fault provides the typed failure value raised by business code.
//
// A Fault always carries a registered error code. Its client-facing message
// is the code's default message; caller-supplied details travel alongside
// for diagnostics and may be surfaced separately.
//
//	if balance < amount {
//	    return fault.WithArgs(codes.InsufficientBalance, "need %d, have %d", amount, balance)
//	}
package fault

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Goden-Gun/fault-lib/pkg/codes"
)

// Fault is an immutable, classified failure.
type Fault struct {
	code     codes.ErrorCode
	details  string
	args     []any
	cause    error
	metadata map[string]any
}

func newFault(code codes.ErrorCode, details string, args []any, cause error) *Fault {
	if code.IsZero() {
		code = codes.BusinessError
	}
	var copied []any
	if len(args) > 0 {
		copied = append([]any(nil), args...)
	}
	return &Fault{code: code, details: details, args: copied, cause: cause}
}

// New creates a Fault carrying only code.
func New(code codes.ErrorCode) *Fault {
	return newFault(code, "", nil, nil)
}

// WithDetails creates a Fault with free-form details.
func WithDetails(code codes.ErrorCode, details string) *Fault {
	return newFault(code, details, nil, nil)
}

// WithArgs creates a Fault whose details are interpolated with args.
func WithArgs(code codes.ErrorCode, details string, args ...any) *Fault {
	return newFault(code, details, args, nil)
}

// Wrap creates a Fault around cause.
func Wrap(code codes.ErrorCode, cause error) *Fault {
	return newFault(code, "", nil, cause)
}

// WrapWithDetails creates a Fault around cause with details.
func WrapWithDetails(code codes.ErrorCode, details string, cause error) *Fault {
	return newFault(code, details, nil, cause)
}

// FromMessage creates a generic business Fault from a bare message.
func FromMessage(msg string) *Fault {
	return newFault(codes.BusinessError, msg, nil, nil)
}

// FromMessageWrap is FromMessage with a wrapped cause.
func FromMessageWrap(msg string, cause error) *Fault {
	return newFault(codes.BusinessError, msg, nil, cause)
}

// Code returns the error code.
func (f *Fault) Code() codes.ErrorCode { return f.code }

// Message returns the code's default message, never the details.
func (f *Fault) Message() string { return f.code.Message }

// Status returns the wire status of the code.
func (f *Fault) Status() int { return f.code.Status }

// RawDetails returns the details as supplied, without interpolation.
func (f *Fault) RawDetails() string { return f.details }

// Details returns the details interpolated with the fault arguments.
// Details without a format verb get the arguments appended, space separated.
func (f *Fault) Details() string {
	if len(f.args) == 0 || f.details == "" {
		return f.details
	}
	if !strings.Contains(f.details, "%") {
		return f.details + " " + strings.TrimSuffix(fmt.Sprintln(f.args...), "\n")
	}
	return fmt.Sprintf(f.details, f.args...)
}

// Args returns a copy of the interpolation arguments.
func (f *Fault) Args() []any {
	if len(f.args) == 0 {
		return nil
	}
	return append([]any(nil), f.args...)
}

// Metadata returns a copy of the attached metadata, or nil.
func (f *Fault) Metadata() map[string]any {
	if f.metadata == nil {
		return nil
	}
	out := make(map[string]any, len(f.metadata))
	for k, v := range f.metadata {
		out[k] = v
	}
	return out
}

// WithMetadata returns a copy of f with key set in its metadata.
func (f *Fault) WithMetadata(key string, value any) *Fault {
	clone := *f
	clone.metadata = f.Metadata()
	if clone.metadata == nil {
		clone.metadata = make(map[string]any, 1)
	}
	clone.metadata[key] = value
	return &clone
}

// Unwrap returns the wrapped cause.
func (f *Fault) Unwrap() error { return f.cause }

// Error formats as "[CODE] message: details: cause".
func (f *Fault) Error() string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(f.code.Code)
	b.WriteString("] ")
	b.WriteString(f.code.Message)
	if d := f.Details(); d != "" {
		b.WriteString(": ")
		b.WriteString(d)
	}
	if f.cause != nil {
		b.WriteString(": ")
		b.WriteString(f.cause.Error())
	}
	return b.String()
}

// As returns the outermost Fault in err's chain.
func As(err error) (*Fault, bool) {
	var f *Fault
	if err == nil || !errors.As(err, &f) {
		return nil, false
	}
	return f, true
}

// CodeOf returns the code of the outermost Fault in err's chain, or
// INTERNAL_SERVER_ERROR when there is none.
func CodeOf(err error) codes.ErrorCode {
	if f, ok := As(err); ok {
		return f.code
	}
	return codes.InternalServerError
}

// Is reports whether err's chain holds a Fault carrying code.
func Is(err error, code codes.ErrorCode) bool {
	for err != nil {
		var f *Fault
		if !errors.As(err, &f) {
			return false
		}
		if f.code.Code == code.Code {
			return true
		}
		err = f.cause
	}
	return false
}

package translate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Goden-Gun/fault-lib/pkg/codes"
	"github.com/Goden-Gun/fault-lib/pkg/fault"
)

// Category names a failure class observed at a boundary.
type Category int

const (
	CategoryUncaught Category = iota
	CategoryBusiness
	CategoryValidation
	CategoryMalformedBody
	CategoryMissingParameter
	CategoryTypeMismatch
	CategoryMethodNotAllowed
	CategoryNoRoute
)

func (c Category) String() string {
	switch c {
	case CategoryBusiness:
		return "business"
	case CategoryValidation:
		return "validation"
	case CategoryMalformedBody:
		return "malformed_body"
	case CategoryMissingParameter:
		return "missing_parameter"
	case CategoryTypeMismatch:
		return "type_mismatch"
	case CategoryMethodNotAllowed:
		return "method_not_allowed"
	case CategoryNoRoute:
		return "no_route"
	}
	return "uncaught"
}

// Failure is the closed set of failure variants the Translator renders.
// Only types in this package implement it.
type Failure interface {
	error
	Category() Category
	sealed()
}

// Business carries a Fault raised by application code.
type Business struct {
	Fault *fault.Fault
}

func (b *Business) Error() string      { return b.Fault.Error() }
func (b *Business) Unwrap() error      { return b.Fault }
func (b *Business) Category() Category { return CategoryBusiness }
func (*Business) sealed()              {}

// Violation is one violated input constraint.
type Violation struct {
	Field    string
	Message  string
	Rejected any
}

// ValidationFailure reports every violated constraint of one input.
type ValidationFailure struct {
	Violations []Violation
	// Constraint marks parameter-level constraint checks as opposed to
	// request body validation. Only the response message differs.
	Constraint bool
}

func (v *ValidationFailure) Error() string {
	parts := make([]string, 0, len(v.Violations))
	for _, viol := range v.Violations {
		parts = append(parts, viol.Field+": "+viol.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
func (v *ValidationFailure) Category() Category { return CategoryValidation }
func (*ValidationFailure) sealed()              {}

// MalformedBody means the request body could not be decoded.
type MalformedBody struct {
	Cause error
}

func (m *MalformedBody) Error() string {
	if m.Cause == nil {
		return "malformed request body"
	}
	return "malformed request body: " + m.Cause.Error()
}
func (m *MalformedBody) Unwrap() error      { return m.Cause }
func (m *MalformedBody) Category() Category { return CategoryMalformedBody }
func (*MalformedBody) sealed()              {}

// MissingParameter means a required parameter was absent.
type MissingParameter struct {
	Name string
}

func (m *MissingParameter) Error() string      { return fmt.Sprintf("missing required parameter %q", m.Name) }
func (m *MissingParameter) Category() Category { return CategoryMissingParameter }
func (*MissingParameter) sealed()              {}

// TypeMismatch means a parameter was present but could not be converted.
type TypeMismatch struct {
	Name  string
	Value string
	Cause error
}

func (m *TypeMismatch) Error() string {
	msg := fmt.Sprintf("invalid value %q for parameter %q", m.Value, m.Name)
	if m.Cause != nil {
		msg += ": " + m.Cause.Error()
	}
	return msg
}
func (m *TypeMismatch) Unwrap() error      { return m.Cause }
func (m *TypeMismatch) Category() Category { return CategoryTypeMismatch }
func (*TypeMismatch) sealed()              {}

// MethodNotAllowed means the verb is not supported on the addressed resource.
type MethodNotAllowed struct {
	Method  string
	Allowed []string
}

func (m *MethodNotAllowed) Error() string      { return fmt.Sprintf("method %s not allowed", m.Method) }
func (m *MethodNotAllowed) Category() Category { return CategoryMethodNotAllowed }
func (*MethodNotAllowed) sealed()              {}

// NoRoute means no resource matches the request target.
type NoRoute struct {
	Method string
	Path   string
}

func (n *NoRoute) Error() string      { return fmt.Sprintf("no route for %s %s", n.Method, n.Path) }
func (n *NoRoute) Category() Category { return CategoryNoRoute }
func (*NoRoute) sealed()              {}

// Uncaught is any failure not otherwise classified. Its text never reaches
// the client.
type Uncaught struct {
	Err error
}

func (u *Uncaught) Error() string {
	if u.Err == nil {
		return "uncaught failure"
	}
	return u.Err.Error()
}
func (u *Uncaught) Unwrap() error      { return u.Err }
func (u *Uncaught) Category() Category { return CategoryUncaught }
func (*Uncaught) sealed()              {}

var jwtTokenErrors = []error{
	jwt.ErrTokenMalformed,
	jwt.ErrTokenUnverifiable,
	jwt.ErrTokenSignatureInvalid,
	jwt.ErrTokenRequiredClaimMissing,
	jwt.ErrTokenInvalidAudience,
	jwt.ErrTokenUsedBeforeIssued,
	jwt.ErrTokenInvalidIssuer,
	jwt.ErrTokenInvalidSubject,
	jwt.ErrTokenNotValidYet,
	jwt.ErrTokenInvalidId,
	jwt.ErrTokenInvalidClaims,
}

// Classify maps err to a Failure. The outermost recognised error in the
// chain wins; anything unrecognised becomes Uncaught. A nil err yields nil.
func Classify(err error) Failure {
	if err == nil {
		return nil
	}
	var found Failure
	walk(err, func(e error) bool {
		found = classifyOne(e, err)
		return found != nil
	})
	if found != nil {
		return found
	}
	if errors.Is(err, jwt.ErrTokenExpired) {
		return &Business{Fault: fault.Wrap(codes.TokenExpired, err)}
	}
	for _, target := range jwtTokenErrors {
		if errors.Is(err, target) {
			return &Business{Fault: fault.Wrap(codes.TokenInvalid, err)}
		}
	}
	return &Uncaught{Err: err}
}

func classifyOne(e, whole error) Failure {
	switch v := e.(type) {
	case Failure:
		return v
	case *fault.Fault:
		return &Business{Fault: v}
	case validator.ValidationErrors:
		return FromValidationErrors(v)
	case *json.SyntaxError, *json.UnmarshalTypeError:
		return &MalformedBody{Cause: whole}
	}
	if e == io.ErrUnexpectedEOF {
		return &MalformedBody{Cause: whole}
	}
	return nil
}

// walk visits err and its causes outermost first, depth first through
// joined errors, until visit returns true.
func walk(err error, visit func(error) bool) bool {
	for err != nil {
		if visit(err) {
			return true
		}
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				if walk(inner, visit) {
					return true
				}
			}
			return false
		}
		err = errors.Unwrap(err)
	}
	return false
}

// FromValidationErrors converts validator output, keeping its order.
func FromValidationErrors(errs validator.ValidationErrors) *ValidationFailure {
	out := &ValidationFailure{Violations: make([]Violation, 0, len(errs))}
	for _, fe := range errs {
		v := Violation{Field: fieldPath(fe), Message: constraintMessage(fe)}
		if fe.Tag() != "required" {
			v.Rejected = fe.Value()
		}
		out.Violations = append(out.Violations, v)
	}
	return out
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	if ns == "" {
		return fe.Field()
	}
	return ns
}

func constraintMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be blank"
	case "email":
		return "must be a well-formed email address"
	case "min", "gte":
		return "must be greater than or equal to " + fe.Param()
	case "max", "lte":
		return "must be less than or equal to " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "lt":
		return "must be less than " + fe.Param()
	case "len":
		return "length must be " + fe.Param()
	case "oneof":
		return "must be one of [" + fe.Param() + "]"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "url":
		return "must be a valid URL"
	}
	if fe.Param() != "" {
		return fmt.Sprintf("failed on the '%s=%s' constraint", fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("failed on the '%s' constraint", fe.Tag())
}

package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Goden-Gun/fault-lib/pkg/translate"
)

var (
	errEmptyBody    = errors.New("request body is empty")
	errTrailingData = errors.New("request body has trailing data")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// DecodeJSON decodes one JSON value from the body into v. Any decoding
// problem is reported as a MalformedBody.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return &translate.MalformedBody{Cause: errEmptyBody}
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			err = errEmptyBody
		}
		return &translate.MalformedBody{Cause: err}
	}
	if dec.More() {
		return &translate.MalformedBody{Cause: errTrailingData}
	}
	return nil
}

// DecodeAndValidate is DecodeJSON followed by Validate.
func DecodeAndValidate(r *http.Request, v any) error {
	if err := DecodeJSON(r, v); err != nil {
		return err
	}
	return Validate(v)
}

// Validate checks v's `validate` tags and reports every violation at once.
// Field names follow json tags.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return translate.FromValidationErrors(verrs)
	}
	return err
}

// ValidateParam checks a single named parameter against tag and reports a
// constraint violation.
func ValidateParam(name string, value any, tag string) error {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	failure := translate.FromValidationErrors(verrs)
	failure.Constraint = true
	for i := range failure.Violations {
		failure.Violations[i].Field = name
	}
	return failure
}

// RequireQuery returns the named query parameter or a MissingParameter.
func RequireQuery(r *http.Request, name string) (string, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return "", &translate.MissingParameter{Name: name}
	}
	return v, nil
}

// QueryInt parses a required integer query parameter.
func QueryInt(r *http.Request, name string) (int, error) {
	raw, err := RequireQuery(r, name)
	if err != nil {
		return 0, err
	}
	return parseInt(name, raw)
}

// QueryIntDefault is QueryInt with a fallback for an absent parameter.
func QueryIntDefault(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return parseInt(name, raw)
}

// PathInt parses an integer path wildcard registered on a ServeMux pattern.
func PathInt(r *http.Request, name string) (int, error) {
	raw := r.PathValue(name)
	if raw == "" {
		return 0, &translate.MissingParameter{Name: name}
	}
	return parseInt(name, raw)
}

func parseInt(name, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &translate.TypeMismatch{Name: name, Value: raw, Cause: err}
	}
	return n, nil
}

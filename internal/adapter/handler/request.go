package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/rl1809/my-basket/internal/core/domain"
	"github.com/rl1809/my-basket/internal/core/service"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Numeric tags (gt, lte) compare decimals through their float value.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// decodeBody reads a JSON body into dst and validates it. Any failure comes
// back as a *service.ValidationError carrying message.
func decodeBody(r *http.Request, dst any, message string) error {
	if err := decodeJSON(r, dst, message); err != nil {
		return err
	}
	return validateStruct(dst, message)
}

// decodeJSON treats an empty body as an empty object.
func decodeJSON(r *http.Request, dst any, message string) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return service.NewValidationError(message, service.FieldError{Field: "body", Message: describeDecodeError(err)})
	}
	return nil
}

func validateStruct(v any, message string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return service.NewValidationError(message, service.FieldError{Field: "body", Message: err.Error()})
	}

	details := make([]service.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, service.FieldError{Field: fieldPath(fe), Message: fieldMessage(fe)})
	}
	return service.NewValidationError(message, details...)
}

// fieldPath drops the root struct name from the validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

func describeDecodeError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("%s must be of type %s", typeErr.Field, typeErr.Type)
	}
	return "malformed JSON body"
}

// queryParser collects query parameter errors instead of stopping at the first.
type queryParser struct {
	values  url.Values
	details []service.FieldError
}

func newQueryParser(r *http.Request) *queryParser {
	return &queryParser{values: r.URL.Query()}
}

func (q *queryParser) fail(field, message string) {
	q.details = append(q.details, service.FieldError{Field: field, Message: message})
}

func (q *queryParser) positiveInt(key string) int {
	raw := q.values.Get(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		q.fail(key, "must be a positive number")
		return 0
	}
	return n
}

func (q *queryParser) pagination() domain.Pagination {
	p := domain.Pagination{Page: q.positiveInt("page"), Limit: q.positiveInt("limit")}
	if p.Limit > domain.MaxLimit {
		q.fail("limit", fmt.Sprintf("must be at most %d", domain.MaxLimit))
	}
	return p
}

func (q *queryParser) decimal(key string) *decimal.Decimal {
	raw := q.values.Get(key)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		q.fail(key, "must be a number")
		return nil
	}
	return &d
}

func (q *queryParser) boolean(key string) *bool {
	raw := q.values.Get(key)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		q.fail(key, "must be true or false")
		return nil
	}
	return &b
}

// date accepts RFC 3339 timestamps or plain YYYY-MM-DD dates.
func (q *queryParser) date(key string, endOfDay bool) *time.Time {
	raw := q.values.Get(key)
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		q.fail(key, "must be an RFC 3339 timestamp or YYYY-MM-DD date")
		return nil
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t
}

func (q *queryParser) err() error {
	if len(q.details) == 0 {
		return nil
	}
	return service.NewValidationError("Invalid query parameters", q.details...)
}

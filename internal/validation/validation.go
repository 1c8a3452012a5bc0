// Package validation turns raw request input (JSON body, query string, path
// parameters) into typed DTOs using gin's binding layer and
// go-playground/validator struct tags.
//
// Binding never panics and never leaks validator types: the outcome is a
// Result holding either the parsed value or a failure. Shape failures are
// reported as *Error (a schema failure with per-field issues) which the error
// registry maps to VALIDATION_ERROR. A body that is not valid JSON at all is
// reported as an apperr validation failure instead.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/tbourn/go-commerce-backend/internal/apperr"
)

// Source names the part of the request that failed to parse.
type Source string

const (
	SourceBody  Source = "body"
	SourceQuery Source = "query"
	SourcePath  Source = "path"
)

// Error is a schema failure: the input did not match the declared shape.
type Error struct {
	Source  Source
	Message string
	Issues  []apperr.FieldIssue
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.Field+": "+is.Message)
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, "; "))
}

// Result is the outcome of parsing one piece of input.
type Result[T any] struct {
	Value   T
	Failure error
}

// OK reports whether parsing succeeded.
func (r Result[T]) OK() bool { return r.Failure == nil }

// Unwrap returns the value and the failure (nil on success).
func (r Result[T]) Unwrap() (T, error) { return r.Value, r.Failure }

// Body parses the JSON request body into T.
func Body[T any](c *gin.Context) Result[T] {
	setup()
	var v T
	if err := c.ShouldBindJSON(&v); err != nil {
		return Result[T]{Failure: fromBindError(SourceBody, err)}
	}
	return Result[T]{Value: v}
}

// Query parses the URL query string into T (form tags, default= supported).
func Query[T any](c *gin.Context) Result[T] {
	setup()
	var v T
	if err := c.ShouldBindQuery(&v); err != nil {
		return Result[T]{Failure: fromBindError(SourceQuery, err)}
	}
	return Result[T]{Value: v}
}

// Path parses route parameters into T (uri tags).
func Path[T any](c *gin.Context) Result[T] {
	setup()
	var v T
	if err := c.ShouldBindUri(&v); err != nil {
		return Result[T]{Failure: fromBindError(SourcePath, err)}
	}
	return Result[T]{Value: v}
}

var setupOnce sync.Once

// setup configures gin's validator engine once: field names are reported by
// their wire name (json, form or uri tag) and decimal.Decimal fields are
// validated through their float value so numeric tags (gt, lte) apply.
func setup() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(wireName)
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				return d.InexactFloat64()
			}
			return nil
		}, decimal.Decimal{})
	})
}

func wireName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form", "uri"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

func messageFor(src Source) string {
	switch src {
	case SourceQuery:
		return "Invalid query parameters"
	case SourcePath:
		return "Invalid path parameters"
	default:
		return "Validation failed"
	}
}

func fromBindError(src Source, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		issues := make([]apperr.FieldIssue, 0, len(verrs))
		for _, fe := range verrs {
			issues = append(issues, apperr.FieldIssue{
				Field:   fieldPath(fe.Namespace()),
				Message: describe(fe),
			})
		}
		return &Error{Source: src, Message: messageFor(src), Issues: issues}
	}

	if src == SourceBody {
		var ute *json.UnmarshalTypeError
		if errors.As(err, &ute) && ute.Field != "" {
			return &Error{
				Source:  src,
				Message: messageFor(src),
				Issues: []apperr.FieldIssue{{
					Field:   ute.Field,
					Message: "expected " + ute.Type.String() + ", got " + ute.Value,
				}},
			}
		}
		if errors.Is(err, io.EOF) {
			return apperr.Validation("Request body is required")
		}
		return apperr.Validation("Invalid JSON body")
	}

	// Query/uri conversion failures (e.g. page=abc) carry no field metadata.
	return &Error{
		Source:  src,
		Message: messageFor(src),
		Issues:  []apperr.FieldIssue{{Field: string(src), Message: err.Error()}},
	}
}

// fieldPath converts a validator namespace such as
// "createOrderRequest.items[0].price" into "items.0.price".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	ns = strings.ReplaceAll(ns, "[", ".")
	return strings.ReplaceAll(ns, "]", "")
}

func describe(fe validator.FieldError) string {
	param := fe.Param()
	isCollection := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Array || fe.Kind() == reflect.Map

	switch fe.Tag() {
	case "required":
		return "is required"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + param + " characters"
		}
		if isCollection {
			return "must contain at least " + param + " item(s)"
		}
		return "must be at least " + param
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + param + " characters"
		}
		if isCollection {
			return "must contain at most " + param + " item(s)"
		}
		return "must be at most " + param
	case "gt":
		return "must be greater than " + param
	case "gte":
		return "must be greater than or equal to " + param
	case "lte":
		return "must be less than or equal to " + param
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(param, " ", ", ")
	default:
		return "failed '" + fe.Tag() + "' validation"
	}
}

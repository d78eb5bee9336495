// Package validation evaluates explicit input schemas before any I/O happens.
//
// A Schema is an ordered list of rules. Each rule names the field it guards,
// the predicate that must hold and the message reported when it does not.
// Only the first failing rule per field is reported.
package validation

import (
	"mime"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/LuisRivera1699/wedding-presents/internal/domain"
)

var validate = validator.New()

// Rule guards a single field of T.
type Rule[T any] struct {
	Field   string
	Check   func(T) bool
	Kind    domain.ErrorKind
	Message string
}

// Schema is an ordered rule set for T.
type Schema[T any] struct {
	Name  string
	Rules []Rule[T]
}

// Validate runs every rule and returns a domain error describing the failed fields,
// or nil when the input is acceptable.
func (s Schema[T]) Validate(in T) error {
	fields := map[string]string{}
	kind := domain.ErrorKind("")
	for _, rule := range s.Rules {
		if _, failed := fields[rule.Field]; failed {
			continue
		}
		if rule.Check(in) {
			continue
		}
		fields[rule.Field] = rule.Message
		if kind == "" {
			kind = rule.Kind
		}
	}
	if len(fields) == 0 {
		return nil
	}
	err := domain.ValidationErr("invalid "+s.Name, fields)
	if kind != "" {
		err.Kind = kind
	}
	return err
}

// NotBlank reports whether s has content after trimming.
func NotBlank(s string) bool {
	return validate.Var(strings.TrimSpace(s), "required") == nil
}

// MaxLen reports whether s is at most n characters long.
func MaxLen(s string, n int) bool {
	return validate.Var(s, "max="+strconv.Itoa(n)) == nil
}

// Email reports whether s is a syntactically valid e-mail address.
func Email(s string) bool {
	return validate.Var(strings.TrimSpace(s), "required,email") == nil
}

// Decimal reports whether s is a plain decimal number such as "120.50".
func Decimal(s string) bool {
	return validate.Var(strings.TrimSpace(s), "required,numeric") == nil
}

// MaxDecimals reports whether d has at most places fractional digits.
func MaxDecimals(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

// Positive reports whether d is strictly greater than zero.
func Positive(d decimal.Decimal) bool {
	return d.IsPositive()
}

// OneOf reports whether s equals one of options exactly.
func OneOf(s string, options []string) bool {
	for _, option := range options {
		if s == option {
			return true
		}
	}
	return false
}

// ImageContentType reports whether a declared media type is an image type.
func ImageContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(contentType))
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "image/")
}

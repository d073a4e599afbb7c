// Package validate wraps go-playground/validator with the storefront's form tags and turns
// validation failures into per-field messages that handlers return next to the form.
package validate

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	inErrors "github.com/Alturino/storefront/internal/errors"
)

var (
	pincodePattern    = regexp.MustCompile(`^[0-9]{6}$`)
	cardNumberPattern = regexp.MustCompile(`^[0-9]{16}$`)
	cardExpiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
	cvvPattern        = regexp.MustCompile(`^[0-9]{3,4}$`)
	upiPattern        = regexp.MustCompile(`^[a-zA-Z0-9._-]{2,256}@[a-zA-Z]{2,64}$`)
)

var (
	once     sync.Once
	validate *validator.Validate
)

// NormalizeCardNumber drops the spaces and dashes people type between digit groups.
func NormalizeCardNumber(number string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(number)
}

func IsPincode(s string) bool    { return pincodePattern.MatchString(s) }
func IsCardNumber(s string) bool { return cardNumberPattern.MatchString(NormalizeCardNumber(s)) }
func IsCardExpiry(s string) bool { return cardExpiryPattern.MatchString(s) }
func IsCVV(s string) bool        { return cvvPattern.MatchString(s) }
func IsUPI(s string) bool        { return upiPattern.MatchString(s) }

func stringRule(fn func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return fn(fl.Field().String())
	}
}

func Get() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})
		_ = validate.RegisterValidation("pincode", stringRule(IsPincode))
		_ = validate.RegisterValidation("cardnumber", stringRule(IsCardNumber))
		_ = validate.RegisterValidation("cardexpiry", stringRule(IsCardExpiry))
		_ = validate.RegisterValidation("cvv", stringRule(IsCVV))
		_ = validate.RegisterValidation("upi", stringRule(IsUPI))
	})
	return validate
}

// Error carries one message per invalid field, keyed by the field's json name.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid fields " + strings.Join(parts, ", ")
}

func (e *Error) FieldErrors() map[string]string { return e.Fields }

func (e *Error) Is(target error) bool { return target == inErrors.ErrValidation }

func (e *Error) Has(field string) bool {
	_, ok := e.Fields[field]
	return ok
}

func NewError(fields map[string]string) *Error {
	return &Error{Fields: fields}
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "enter a valid email address"
	case "pincode":
		return "pincode must be 6 digits"
	case "cardnumber":
		return "card number must be 16 digits"
	case "cardexpiry":
		return "expiry must be MM/YY"
	case "cvv":
		return "cvv must be 3 or 4 digits"
	case "upi":
		return "enter a valid UPI id like name@bank"
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s does not match", field)
	case "len":
		return fmt.Sprintf("%s must be %s characters", field, fe.Param())
	case "numeric":
		return fmt.Sprintf("%s must contain only digits", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt", "gte":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", field)
}

// Struct validates v and returns *Error when any field fails. Only the first failure per field is kept.
func Struct(c context.Context, v interface{}) error {
	err := Get().StructCtx(c, v)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return fmt.Errorf("failed validating struct with error=%w", err)
	}
	fields := make(map[string]string, len(ves))
	for _, fe := range ves {
		if _, ok := fields[fe.Field()]; ok {
			continue
		}
		fields[fe.Field()] = message(fe)
	}
	return NewError(fields)
}

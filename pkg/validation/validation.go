// Package validation holds the validator instance shared by the domain
// validators and the translation of its errors into field messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	apperrors "villagestay/pkg/errors"

	"github.com/go-playground/validator/v10"
)

// New returns a validator that reports fields by their JSON names.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Errors is a list of rejected fields. It satisfies error so validators can
// return it directly.
type Errors []apperrors.FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return ""
	}
	messages := make([]string, 0, len(e))
	for _, fe := range e {
		messages = append(messages, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(e), strings.Join(messages, "; "))
}

// Add appends a field error and returns the list for chaining.
func (e Errors) Add(field, message string) Errors {
	return append(e, apperrors.FieldError{Field: field, Message: message})
}

// Struct runs v against s and converts any failure to Errors.
func Struct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return Translate(validationErrs)
	}
	return err
}

func Translate(errs validator.ValidationErrors) Errors {
	out := make(Errors, 0, len(errs))
	for _, err := range errs {
		field := fieldPath(err)
		var message string

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "min":
			message = fmt.Sprintf("%s must be at least %s", field, err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", field, err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid id", field)
		case "e164":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +919876543210)", field)
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", field)
		case "url":
			message = fmt.Sprintf("%s must be a valid URL", field)
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", field, err.Param())
		case "gtfield":
			message = fmt.Sprintf("%s must be after %s", field, lowerFirst(err.Param()))
		default:
			message = fmt.Sprintf("%s is invalid", field)
		}

		out = out.Add(field, message)
	}
	return out
}

// AsAppError converts validator output into a 400. Other errors pass through
// as internal errors.
func AsAppError(message string, err error) error {
	if err == nil {
		return nil
	}
	var fields Errors
	if errors.As(err, &fields) {
		return apperrors.ValidationFields(message, fields)
	}
	return apperrors.Internal("Validation could not be completed", err)
}

// fieldPath drops the root struct name from the namespace so nested fields
// read as location.state.
func fieldPath(err validator.FieldError) string {
	ns := err.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return err.Field()
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// Package validation validates admin form structs with go-playground's
// validator and turns failures into sentences fit for a form error banner.
//
//	type sphereForm struct {
//	    Name       string  `form:"name" validate:"required,max=255"`
//	    InitialYaw float64 `form:"initial_yaw" validate:"min=-360,max=360"`
//	}
//
//	if verr := validation.ValidateStruct(&f); verr != nil {
//	    data["Error"] = verr.Error()
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Message string
}

func (e FieldError) Error() string {
	return e.Message
}

// Errors collects the failures of one ValidateStruct call.
type Errors struct {
	fields []FieldError
}

// Fields returns the failures in struct order.
func (ve *Errors) Fields() []FieldError {
	return ve.fields
}

// For returns the message for a form field, or "".
func (ve *Errors) For(field string) string {
	for _, f := range ve.fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

func (ve *Errors) Error() string {
	if len(ve.fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(ve.fields))
	for i, f := range ve.fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// GetValidator returns the shared validator. Field names in messages come
// from the form tag so they match the inputs on the page.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, key := range []string{"form", "json"} {
				name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})
	})
	return validate
}

// ValidateStruct validates s and returns nil or the collected failures.
func ValidateStruct(s any) *Errors {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &Errors{fields: []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}}
	}

	out := make([]FieldError, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: translate(fe),
		}
	}
	return &Errors{fields: out}
}

var messages = map[string]string{
	"required":    "%s is required",
	"required_if": "%s is required",
	"email":       "%s must be a valid email address",
	"uuid":        "%s must be a valid id",
	"url":         "%s must be a valid URL",
	"http_url":    "%s must be a valid URL",
}

var messagesWithParam = map[string]string{
	"oneof":   "%s must be one of: %s",
	"gte":     "%s must be greater than or equal to %s",
	"lte":     "%s must be less than or equal to %s",
	"eqfield": "%s must match %s",
}

func translate(fe validator.FieldError) string {
	field := humanize(fe.Field())
	if tmpl, ok := messages[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	if tmpl, ok := messagesWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field, fe.Param())
	}

	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// humanize turns "target_sphere_id" into "Target sphere id".
func humanize(name string) string {
	s := strings.ReplaceAll(name, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

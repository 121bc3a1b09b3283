package services

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NewValidator constructs the validator shared by all services. Field names in
// validation errors come from json tags so detail maps onto request payloads.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

func checkStruct(validate *validator.Validate, value any) error {
	err := validate.Struct(value)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		fields[fieldErr.Field()] = validationMessage(fieldErr)
	}
	return &ValidationError{Fields: fields}
}

func validationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + err.Param() + " characters"
	case "email":
		return "must be a valid email address"
	case "gte":
		return "must be at least " + err.Param()
	case "gt":
		return "must be greater than " + err.Param()
	default:
		return "is invalid"
	}
}

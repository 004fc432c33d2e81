package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/login-service/internal/auth"
	apperrors "github.com/spec-kit/login-service/pkg/util/errorutil"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, "registration_password", func(fl validator.FieldLevel) bool {
		return auth.ValidRegistrationPassword(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// check runs the struct rules and reports every failing field in Details.
func check(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError("invalid request", nil)
	}
	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		if _, seen := details[fe.Field()]; !seen {
			details[fe.Field()] = describe(fe)
		}
	}
	return apperrors.NewValidationError("request validation failed", details)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank":
		return "must not be blank"
	case "min":
		return fmt.Sprintf("must be at least %s characters long", fe.Param())
	case "email":
		return "must be a well-formed email address"
	case "registration_password":
		return "must be at least 8 characters long and contain one special character"
	case "oneof":
		return "must be one of: " + fe.Param()
	}
	return "is invalid"
}

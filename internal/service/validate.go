package service

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bookmate/bookmate-server/internal/domain"
	domainerrors "github.com/bookmate/bookmate-server/internal/errors"
)

// validate is shared by every service. Field names in messages come from
// the json tags.
var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		_, ok := domain.ParseStatus(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(domain.DueDateLayout, fl.Field().String())
		return err == nil
	})
	return v
}()

// formatValidationError turns the first validator failure into a
// VALIDATION error.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	e := verrs[0]
	field := e.Field()
	switch e.Tag() {
	case "required":
		return domainerrors.Validationf("%s is required", field)
	case "email":
		return domainerrors.Validationf("%s must be a valid email address", field)
	case "min":
		if e.Kind() == reflect.String {
			return domainerrors.Validationf("%s must be at least %s characters", field, e.Param())
		}
		return domainerrors.Validationf("%s must be at least %s", field, e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return domainerrors.Validationf("%s exceeds maximum length of %s characters", field, e.Param())
		}
		return domainerrors.Validationf("%s must be at most %s", field, e.Param())
	case "status":
		return domainerrors.Validationf("%s must be one of 'To Read', 'Reading', 'Completed'", field)
	case "isodate":
		return domainerrors.Validationf("%s must be a date in YYYY-MM-DD format", field)
	default:
		return domainerrors.Validationf("%s is invalid", field)
	}
}

func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

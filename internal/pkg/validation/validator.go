// Package validation wraps go-playground/validator with the rules used by
// request and model structs.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/yigit/enrollment/internal/pkg/apperrors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := configure(v); err != nil {
		panic(err)
	}
	return v
}

func configure(v *validator.Validate) error {
	// Report JSON names so messages match the request payload.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("clock", isClock); err != nil {
		return err
	}
	return v.RegisterValidation("offeringcode", isOfferingCode)
}

// RegisterWith installs the custom rules and JSON field naming on another
// validator engine, such as the one behind gin's request binding.
func RegisterWith(engine interface{}) error {
	v, ok := engine.(*validator.Validate)
	if !ok {
		return fmt.Errorf("unsupported validator engine %T", engine)
	}
	return configure(v)
}

// Struct validates s. The first failing field is reported as an
// apperrors.ErrValidationFailed error naming that field.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return apperrors.NewValidationError(fe.Field(), formatFieldError(fe))
	}
	return fmt.Errorf("%w: %v", apperrors.ErrValidationFailed, err)
}

// Messages formats every field error of err, keyed by JSON field name.
func Messages(err error) map[string]string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	out := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field()] = formatFieldError(fe)
	}
	return out
}

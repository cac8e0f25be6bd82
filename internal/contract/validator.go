package contract

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

// ConfigError is a fatal problem with a single configuration parameter.
type ConfigError struct {
	Param  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("parameter '%s': %s", e.Param, e.Reason)
}

// validatorInstance configures and returns the shared validator used for raw inputs.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		// Report input names rather than Go field names.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("mapstructure"), ",")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})

		_ = v.RegisterValidation("retrycodes", func(fl validator.FieldLevel) bool {
			_, err := ParseRetryCodes(fl.Field().String())
			return err == nil
		})

		_ = v.RegisterValidation("boolstring", func(fl validator.FieldLevel) bool {
			if fl.Field().String() == "" {
				return true
			}
			_, err := ParseBoolString(fl.Field().String())
			return err == nil
		})

		validateInst = v
	})

	return validateInst
}

// convertValidationError turns the first validator failure into a ConfigError.
func convertValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return err
	}
	fe := validationErrs[0]
	return &ConfigError{Param: fe.Field(), Reason: describeFieldError(fe)}
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return fmt.Sprintf("%q is not a valid URL", fe.Value())
	case "oneof":
		return fmt.Sprintf("%q must be one of [%s]", fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("must be at least %s (received %v)", fe.Param(), fe.Value())
	case "retrycodes":
		return fmt.Sprintf("%q must be a comma separated list of HTTP status codes", fe.Value())
	case "boolstring":
		return fmt.Sprintf("%q must be one of yes/no/true/false/1/0", fe.Value())
	default:
		return fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
}

package dispatch

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// validate is shared across all executors; validator instances cache struct
// metadata and are safe for concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validation is the outcome of parameter validation.
type Validation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// newParamsValue returns a pointer to a fresh zero value of the same type
// as the prototype (itself a struct or pointer to struct).
func newParamsValue(prototype any) (any, error) {
	t := reflect.TypeOf(prototype)
	if t == nil {
		return nil, fmt.Errorf("tool declares a nil params prototype")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("tool params prototype must be a struct, got %s", t.Kind())
	}
	return reflect.New(t).Interface(), nil
}

// validateParams runs struct-tag validation and the tool's own validator
// over decoded parameters, collecting every violation.
func validateParams(tool *Tool, decoded any) Validation {
	var errs []string

	if tool.Params != nil {
		if err := validate.Struct(decoded); err != nil {
			if verrs, ok := err.(validator.ValidationErrors); ok {
				for _, fe := range verrs {
					errs = append(errs, describeFieldError(fe))
				}
			} else {
				errs = append(errs, err.Error())
			}
		}
	}

	if tool.Validate != nil {
		errs = append(errs, tool.Validate(decoded)...)
	}

	return Validation{Valid: len(errs) == 0, Errors: errs}
}

// describeFieldError renders a validator field error as a plain message.
func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

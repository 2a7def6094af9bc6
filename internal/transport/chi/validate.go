package chi

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags and flattens the failures into one message.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("validate: %w", err)
	}

	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, fieldMessage(e))
	}
	return errors.New(strings.Join(msgs, " and "))
}

// validateOneOf checks an optional enum value outside of a struct.
func validateOneOf(name, value string, enums ...string) error {
	if err := validate.Var(value, "omitempty,oneof="+strings.Join(enums, " ")); err != nil {
		return fmt.Errorf("value %q for %s not recognized, only support %q", value, name, strings.Join(enums, " "))
	}
	return nil
}

func fieldMessage(e validator.FieldError) string {
	field := e.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}

	switch e.Tag() {
	case "required", "required_unless":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("value %q for %s not recognized, only support %q", fmt.Sprint(e.Value()), field, e.Param())
	case "gte":
		return fmt.Sprintf("%s cannot be less than %s", field, e.Param())
	case "lte", "max":
		return fmt.Sprintf("%s cannot be more than %s", field, e.Param())
	case "min":
		return fmt.Sprintf("%s needs at least %s", field, e.Param())
	}
	return e.Error()
}

package httpserver

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

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

// validationMessage turns the first failed rule of req into a message
// suitable for clients.
func validationMessage(req any) string {
	err := validate.Struct(req)
	if err == nil {
		return ""
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}

	first := verrs[0]
	switch first.Tag() {
	case "required":
		return fmt.Sprintf("field '%s' is required", first.Field())
	case "email":
		return fmt.Sprintf("field '%s' must be a valid email address", first.Field())
	case "max":
		return fmt.Sprintf("field '%s' must be at most %s characters long", first.Field(), first.Param())
	default:
		return fmt.Sprintf("field '%s' failed on '%s'", first.Field(), first.Tag())
	}
}

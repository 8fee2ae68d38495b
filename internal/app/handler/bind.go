package handler

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"asdm/internal/app/apperr"
)

// RegisterValidatorTags makes validation errors report the json (or form)
// field name instead of the Go field name.
func RegisterValidatorTags() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
}

var validationMessages = map[string]string{
	"required": "required",
	"oneof":    "invalid_choice",
	"gt":       "must_be_positive",
	"gte":      "too_small",
	"email":    "invalid_email",
	"min":      "too_short",
	"max":      "too_long",
}

// bindingError converts gin binding failures into a ValidationError.
func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		v := apperr.Violations{}
		for _, fe := range verrs {
			msg, ok := validationMessages[fe.Tag()]
			if !ok {
				msg = "invalid"
			}
			v.Add(fe.Field(), msg)
		}
		return v.Err()
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperr.Invalid(typeErr.Field, "invalid_type")
	}
	if errors.Is(err, io.EOF) {
		return apperr.Invalid("body", "required")
	}
	return apperr.Invalid("body", "malformed")
}

func bindJSON(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		return bindingError(err)
	}
	return nil
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(c *gin.Context, obj any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return bindJSON(c, obj)
}

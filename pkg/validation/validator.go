package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/kunalverma25/users-api/pkg/response"
)

// usernameRe mirrors the classic username rule: letters, digits and @/./+/-/_
var usernameRe = regexp.MustCompile(`^[\pL\pN@.+\-_]+$`)

// Init configures the global validator used by Gin's binding.
// - Uses JSON tag names in errors.
// - Registers the username charset rule and common aliases.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernameRe.MatchString(fl.Field().String())
		})
		v.RegisterAlias("pwd", "min=8")     // password minimum length
		v.RegisterAlias("gender", "oneof=M F T O")
		v.RegisterAlias("dateonly", "datetime=2006-01-02")
	}
}

// ToFieldErrors converts binding/validation errors into the field -> messages
// mapping the envelope carries for 400 responses. Messages are lists so
// clients can do field-level display.
func ToFieldErrors(err error) response.FieldErrors {
	if err == nil {
		return nil
	}

	// Invalid JSON payloads
	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) {
		return response.FieldErrors{"payload": {"invalid json"}}
	}
	if errors.As(err, &ute) {
		field := ute.Field
		if field == "" {
			field = "payload"
		}
		return response.FieldErrors{field: {"invalid value"}}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(response.FieldErrors, len(verrs))
		for _, fe := range verrs {
			out.Add(fe.Field(), formatFieldError(fe))
		}
		return out
	}

	return response.FieldErrors{"payload": {"invalid payload"}}
}

func formatFieldError(fe validator.FieldError) string {
	tag := fe.Tag()
	param := fe.Param()

	switch tag {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email"
	case "url":
		return "must be a valid URL"
	case "uuid":
		return "must be a valid UUID"
	case "e164":
		return "must be a valid phone number"
	case "min":
		if isNumberKind(fe.Kind()) {
			return "must be at least " + param
		}
		return "must be at least " + param + " characters long"
	case "max":
		if isNumberKind(fe.Kind()) {
			return "must be at most " + param
		}
		return "must be at most " + param + " characters long"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "gender":
		return "must be one of: M, F, T, O"
	case "datetime", "dateonly":
		return "must be a date in YYYY-MM-DD format"
	case "username":
		return "may contain only letters, digits and @/./+/-/_ characters"
	case "pwd":
		return "must be at least 8 characters long"
	case "boolean":
		return "must be a boolean value"
	default:
		if param != "" {
			return fmt.Sprintf("validation failed for '%s' with parameter '%s'", tag, param)
		}
		return fmt.Sprintf("validation failed for '%s'", tag)
	}
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

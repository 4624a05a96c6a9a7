package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/pkg/util"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)

	_ = validate.RegisterValidation("br_phone", func(fl validator.FieldLevel) bool {
		return IsBRPhone(fl.Field().String())
	})
	_ = validate.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return domain.Role(fl.Field().String()).IsValid()
	})
}

// Struct validates a request DTO.
//
// A failing rule on the phone field yields PHONE_NOT_VALID and a failing rule
// on the password field yields PASSWORD_NOT_VALID, so handlers and the account
// service report the same codes. Anything else is VALIDATION_FAILED with the
// offending fields keyed by JSON name.
func Struct(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return util.NewValidationError("invalid payload", nil)
	}

	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Tag() == "br_phone" || fe.Field() == "phone" {
			return util.ErrPhoneNotValid()
		}
		if fe.Field() == "password" {
			return util.ErrPasswordNotValid()
		}
		details[fe.Field()] = describe(fe)
	}
	return util.NewValidationError("validation failed", details)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "role":
		return domain.RoleChoices()
	default:
		return "is invalid"
	}
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

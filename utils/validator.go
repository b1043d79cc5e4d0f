package utils

import (
	"errors"
	"reflect"
	"strings"

	"devsync/models"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return strings.ToLower(fld.Name)
		}
		return name
	})
	_ = v.RegisterValidation("invitecode", func(fl validator.FieldLevel) bool {
		return models.IsValidInviteCode(strings.ToUpper(strings.TrimSpace(fl.Field().String())))
	})
	return v
}

func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	// Format validation errors
	var msgs []string
	for _, err := range verrs {
		field := err.Field()
		param := err.Param()

		switch err.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "min":
			msgs = append(msgs, field+" must be at least "+param+" characters")
		case "max":
			msgs = append(msgs, field+" must be at most "+param+" characters")
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		case "url":
			msgs = append(msgs, field+" must be a valid URL")
		case "oneof":
			msgs = append(msgs, field+" must be one of: "+param)
		case "datetime":
			msgs = append(msgs, field+" must be a date in the form "+param)
		case "invitecode":
			msgs = append(msgs, field+" must be 8 characters of 0-9 or A-Z")
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}

	return &models.FieldError{
		Field:   verrs[0].Field(),
		Message: strings.Join(msgs, ", "),
	}
}

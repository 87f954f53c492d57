package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxPhoneLength = 15

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// SupportedImageTypes lists the media types accepted for uploads.
var SupportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()

	// Report json field names instead of Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Custom validations
	v.RegisterValidation("supported_image", validateImageType)
	v.RegisterValidation("name", validateName)
	v.RegisterValidation("phone", validatePhone)
	v.RegisterValidation("not_numeric", validateNotNumeric)

	return &Validator{
		validate: v,
	}
}

func (v *Validator) Struct(s interface{}) error {
	return v.validate.Struct(s)
}

func (v *Validator) Var(field interface{}, tag string) error {
	return v.validate.Var(field, tag)
}

// Fields turns a validation error into {"field": ["message", ...]}.
// Errors that are not validation errors come back as nil.
func (v *Validator) Fields(err error) map[string][]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], message(fe))
	}
	return fields
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		if fe.Field() == "password" || fe.Field() == "new_password" {
			return fmt.Sprintf("This password is too short. It must contain at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "not_numeric":
		return "This password is entirely numeric."
	case "name":
		return fmt.Sprintf("%s can only contain letters, numbers, underscores, and hyphens.", label(fe.Field()))
	case "phone":
		if s, ok := fe.Value().(string); ok && len(s) > maxPhoneLength {
			return "Phone number must be at most 15 characters long."
		}
		return "Phone number can only contain digits and '+'"
	case "supported_image":
		return "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	}
	return fmt.Sprintf("Failed on the '%s' rule.", fe.Tag())
}

// label turns first_name into "First name".
func label(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// validateImageType accepts the media types in SupportedImageTypes.
func validateImageType(fl validator.FieldLevel) bool {
	return SupportedImageTypes[fl.Field().String()]
}

func validateName(fl validator.FieldLevel) bool {
	return namePattern.MatchString(fl.Field().String())
}

func validatePhone(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if len(value) > maxPhoneLength {
		return false
	}
	for _, r := range value {
		if (r < '0' || r > '9') && r != '+' {
			return false
		}
	}
	return true
}

func validateNotNumeric(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return true
		}
	}
	return false
}

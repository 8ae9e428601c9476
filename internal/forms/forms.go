package forms

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mcnijman/go-emailaddress"
)

// NonFieldErrors is the Errors key for errors not tied to one field.
const NonFieldErrors = "__all__"

// Errors maps a form field name to its validation messages.
type Errors map[string][]string

// Add appends msg to field.
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Get returns the messages of field. Safe on a nil map.
func (e Errors) Get(field string) []string {
	return e[field]
}

// First returns the first message of field, or "".
func (e Errors) First(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// NonField returns the errors not tied to one field.
func (e Errors) NonField() []string {
	return e[NonFieldErrors]
}

// Any reports whether any error was recorded.
func (e Errors) Any() bool {
	return len(e) > 0
}

var (
	channelNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	numericPattern     = regexp.MustCompile(`^[0-9]+$`)

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	mustRegister(v, "channelname", func(fl validator.FieldLevel) bool {
		return channelNamePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "notnumeric", func(fl validator.FieldLevel) bool {
		return !numericPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "emailaddr", func(fl validator.FieldLevel) bool {
		_, err := emailaddress.Parse(fl.Field().String())
		return err == nil
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("forms: register %q: %v", tag, err))
	}
}

// validateStruct runs the struct tags of form and returns the errors keyed by
// form field name.
func validateStruct(form interface{}) Errors {
	errs := Errors{}
	err := validate.Struct(form)
	if err == nil {
		return errs
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs.Add(NonFieldErrors, "Invalid input.")
		return errs
	}
	for _, fe := range fieldErrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email", "emailaddr":
		return "Enter a valid email address."
	case "min":
		if fe.Kind() == reflect.String {
			return "Ensure this value has at least " + fe.Param() + " characters."
		}
	case "max":
		if fe.Kind() == reflect.String {
			return "Ensure this value has at most " + fe.Param() + " characters."
		}
	case "channelname":
		return "Use only letters, numbers and underscores."
	case "notnumeric":
		return "This password is entirely numeric."
	case "numeric":
		return "Select a valid choice."
	}
	return "Enter a valid value."
}

// NormalizeEmail trims the address and lowercases its domain part.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

func checkPasswords(errs Errors, field1, password1, field2, password2 string) {
	if len(errs.Get(field1)) == 0 && len(errs.Get(field2)) == 0 && password1 != password2 {
		errs.Add(field2, "The two password fields didn't match.")
	}
}

package models

import (
	"errors"
	"regexp"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	emailMaxLength    = 180
	nameMinLength     = 2
	nameMaxLength     = 255
	passwordMinLength = 8
	passwordMaxLength = 4096
)

var errPasswordComplexity = errors.New("must contain at least one letter and one number")

var namePattern = regexp.MustCompile(`^[\p{L}\s'-]+$`)

// hasLetterAndDigit requires at least one letter and one digit.
var hasLetterAndDigit = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	var letter, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return errPasswordComplexity
	}
	return nil
})

type fieldRules struct {
	name  string
	value interface{}
	rules []validation.Rule
}

// ValidateRegistration checks a registration candidate. Every failing rule
// contributes a message, so a field can carry more than one. A nil map means
// the input is valid.
func ValidateRegistration(email, name, password string) map[string][]string {
	return collect([]fieldRules{
		{"email", email, []validation.Rule{
			validation.Required.Error("email is required"),
			is.Email.Error("must be a valid email address"),
			validation.RuneLength(0, emailMaxLength).Error("must be at most 180 characters"),
		}},
		{"name", name, []validation.Rule{
			validation.Required.Error("name is required"),
			validation.RuneLength(nameMinLength, nameMaxLength).Error("must be between 2 and 255 characters"),
			validation.Match(namePattern).Error("may only contain letters, spaces, hyphens and apostrophes"),
		}},
		{"password", password, []validation.Rule{
			validation.Required.Error("password is required"),
			validation.Length(passwordMinLength, passwordMaxLength).Error("must be between 8 and 4096 characters"),
			hasLetterAndDigit,
		}},
	})
}

// ValidateEmail reports whether s is a syntactically valid email address.
func ValidateEmail(s string) bool {
	return validation.Validate(s, validation.Required, is.Email) == nil
}

func collect(fields []fieldRules) map[string][]string {
	var out map[string][]string
	for _, f := range fields {
		for _, rule := range f.rules {
			err := validation.Validate(f.value, rule)
			if err == nil {
				continue
			}
			if out == nil {
				out = make(map[string][]string)
			}
			out[f.name] = append(out[f.name], err.Error())
		}
	}
	return out
}

package account

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const minPasswordLength = 8

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	namePattern  = regexp.MustCompile(`^[A-Za-z\s]+$`)
)

var ErrValidation = errors.New("validation failed")

// ValidationError maps form field names to user-facing messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

type validator map[string]string

func (v validator) name(field, label, value string) {
	trimmed := strings.TrimSpace(value)
	switch n := utf8.RuneCountInString(trimmed); {
	case n == 0:
		v[field] = label + " is required"
	case n < 2:
		v[field] = label + " must be at least 2 characters"
	case n > 100:
		v[field] = label + " cannot exceed 100 characters"
	case !namePattern.MatchString(value):
		v[field] = label + " can only contain letters"
	}
}

func (v validator) email(value string) {
	switch {
	case value == "":
		v["email"] = "Email is required"
	case !emailPattern.MatchString(value):
		v["email"] = "Please enter a valid email address"
	}
}

func (v validator) password(password, confirm string) {
	switch {
	case password == "":
		v["password"] = "Password is required"
	case len(password) < minPasswordLength:
		v["password"] = "Password must be at least 8 characters long"
	}
	switch {
	case confirm == "":
		v["confirmPassword"] = "Please confirm your password"
	case confirm != password:
		v["confirmPassword"] = "Passwords do not match"
	}
}

func (v validator) err() error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Fields: v}
}

type SignupForm struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (f SignupForm) Validate() error {
	v := validator{}
	v.name("firstName", "First name", f.FirstName)
	v.name("lastName", "Last name", f.LastName)
	v.email(f.Email)
	v.password(f.Password, f.ConfirmPassword)
	return v.err()
}

type ForgotPasswordForm struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (f ForgotPasswordForm) Validate() error {
	v := validator{}
	v.email(f.Email)
	v.name("firstName", "First name", f.FirstName)
	v.name("lastName", "Last name", f.LastName)
	return v.err()
}

type ResetPasswordForm struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (f ResetPasswordForm) Validate() error {
	v := validator{}
	if strings.TrimSpace(f.ID) == "" {
		v["id"] = "Reset id is required"
	}
	v.email(f.Email)
	v.password(f.Password, f.ConfirmPassword)
	return v.err()
}

// SigninForm is checked before credentials are sent to the API.
type SigninForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (f SigninForm) Validate() error {
	v := validator{}
	v.email(f.Email)
	switch {
	case f.Password == "":
		v["password"] = "Password is required"
	case len(f.Password) < minPasswordLength:
		v["password"] = "Password must be at least 8 characters long"
	}
	return v.err()
}
